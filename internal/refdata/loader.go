package refdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain/repository"
)

const maxResourceSize = 32 << 20

// FileLoader читает GeoJSON с локального диска
type FileLoader struct {
	logger *zap.Logger
}

func NewFileLoader(logger *zap.Logger) *FileLoader {
	return &FileLoader{logger: logger}
}

func (l *FileLoader) Load(ctx context.Context, resourcePath string) (*geojson.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resourcePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resourcePath, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", resourcePath, err)
	}

	l.logger.Debug("Reference data read from file",
		zap.String("path", resourcePath),
		zap.Int("features", len(fc.Features)))
	return fc, nil
}

// HTTPLoader скачивает GeoJSON по http(s)
type HTTPLoader struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPLoader(timeout time.Duration, logger *zap.Logger) *HTTPLoader {
	return &HTTPLoader{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (l *HTTPLoader) Load(ctx context.Context, resourcePath string) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourcePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		l.logger.Error("Failed to fetch reference data", zap.String("url", resourcePath), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference data request failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", resourcePath, err)
	}
	return fc, nil
}

// AutoLoader выбирает загрузчик по схеме пути
type AutoLoader struct {
	file *FileLoader
	http *HTTPLoader
}

func NewAutoLoader(timeout time.Duration, logger *zap.Logger) repository.ReferenceDataLoader {
	return &AutoLoader{
		file: NewFileLoader(logger),
		http: NewHTTPLoader(timeout, logger),
	}
}

func (l *AutoLoader) Load(ctx context.Context, resourcePath string) (*geojson.FeatureCollection, error) {
	if strings.HasPrefix(resourcePath, "http://") || strings.HasPrefix(resourcePath, "https://") {
		return l.http.Load(ctx, resourcePath)
	}
	return l.file.Load(ctx, strings.TrimPrefix(resourcePath, "file://"))
}
