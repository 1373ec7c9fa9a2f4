package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
)

type directionsResponse struct {
	Code    string           `json:"code"`
	Message string           `json:"message,omitempty"`
	Routes  []directionRoute `json:"routes"`
}

type directionRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry string  `json:"geometry"`
}

// Client - клиент Mapbox Directions API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	profile     string
	logger      *zap.Logger
}

// NewClient создает новый клиент для Mapbox Directions API
func NewClient(cfg *config.MapboxConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		profile:     cfg.DrivingProfile,
		logger:      logger,
	}
}

// Route возвращает расстояние, время и геометрию маршрута между двумя точками
func (c *Client) Route(ctx context.Context, origin, destination domain.Point) (*domain.RouteResult, error) {
	coords := fmt.Sprintf("%f,%f;%f,%f", origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	query := url.Values{}
	query.Set("geometries", "polyline")
	query.Set("overview", "full")
	query.Set("access_token", c.accessToken)

	endpoint := fmt.Sprintf("%s/directions/v5/%s/%s?%s", c.baseURL, c.profile, coords, query.Encode())

	c.logger.Debug("Calling Mapbox Directions API",
		zap.String("profile", c.profile),
		zap.String("coordinates", coords))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var directions directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&directions); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if directions.Code != "Ok" {
		c.logger.Warn("Mapbox API returned non-OK code",
			zap.String("code", directions.Code),
			zap.String("message", directions.Message))
		return nil, fmt.Errorf("mapbox API returned code: %s", directions.Code)
	}
	if len(directions.Routes) == 0 {
		return nil, fmt.Errorf("mapbox API returned no routes")
	}

	route := directions.Routes[0]
	result := &domain.RouteResult{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
	}

	if route.Geometry != "" {
		coordsList, _, err := polyline.DecodeCoords([]byte(route.Geometry))
		if err != nil {
			return nil, fmt.Errorf("failed to decode route geometry: %w", err)
		}
		result.Path = make([]domain.Point, 0, len(coordsList))
		for _, pair := range coordsList {
			result.Path = append(result.Path, domain.Point{Lat: pair[0], Lng: pair[1]})
		}
	}

	c.logger.Debug("Mapbox Directions API call successful",
		zap.Float64("distance_m", result.DistanceMeters),
		zap.Float64("duration_s", result.DurationSeconds),
		zap.Int("path_points", len(result.Path)))

	return result, nil
}
