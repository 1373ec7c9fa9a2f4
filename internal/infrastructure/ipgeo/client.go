// Package ipgeo определяет примерное положение пользователя по IP-адресу.
package ipgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
)

const lookupFields = "status,message,lat,lon"

type lookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Client - клиент ip-api совместимого сервиса геолокации
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient создает клиент геолокации
func NewClient(cfg *config.GeolocationConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

// Locate возвращает координаты для IP. Для приватных и loopback адресов
// сервис определяет положение по адресу, с которого пришел запрос
func (c *Client) Locate(ctx context.Context, ip string) (domain.Point, error) {
	target := ip
	if parsed := net.ParseIP(ip); parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		target = ""
	}

	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", c.baseURL, target, lookupFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Point{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Point{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Point{}, fmt.Errorf("geolocation API error: status %d", resp.StatusCode)
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return domain.Point{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if lookup.Status != "success" {
		c.logger.Debug("IP lookup failed", zap.String("ip", ip), zap.String("message", lookup.Message))
		return domain.Point{}, fmt.Errorf("geolocation lookup failed: %s", lookup.Message)
	}

	return domain.Point{Lat: lookup.Lat, Lng: lookup.Lon}, nil
}

type ipLocator struct {
	client *Client
	ip     string
}

// ForIP привязывает клиент к адресу запроса и возвращает LocationService
func ForIP(client *Client, ip string) repository.LocationService {
	return &ipLocator{client: client, ip: ip}
}

func (l *ipLocator) GetCurrentPosition(ctx context.Context) (domain.Point, error) {
	return l.client.Locate(ctx, l.ip)
}
