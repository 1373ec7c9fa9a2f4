package mapbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
)

func testClient(baseURL string) *Client {
	cfg := &config.MapboxConfig{
		AccessToken:    "test_token",
		BaseURL:        baseURL,
		DrivingProfile: "mapbox/driving",
		RequestTimeout: 5,
	}
	return NewClient(cfg, zap.NewNop())
}

var (
	centralPier = domain.Point{Lat: 22.2871, Lng: 114.1617}
	ifcMall     = domain.Point{Lat: 22.2849, Lng: 114.1588}
)

func TestClient_Route(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		geometry := polyline.EncodeCoords([][]float64{
			{22.2871, 114.1617},
			{22.2860, 114.1600},
			{22.2849, 114.1588},
		})

		requests := make(chan *http.Request, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests <- r.Clone(context.Background())

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(directionsResponse{
				Code: "Ok",
				Routes: []directionRoute{
					{Distance: 3000, Duration: 1200, Geometry: string(geometry)},
				},
			})
		}))
		defer server.Close()

		result, err := testClient(server.URL).Route(context.Background(), centralPier, ifcMall)
		require.NoError(t, err)

		got := <-requests
		assert.Equal(t, "/directions/v5/mapbox/driving/114.161700,22.287100;114.158800,22.284900", got.URL.Path)
		assert.Equal(t, "test_token", got.URL.Query().Get("access_token"))
		assert.Equal(t, "polyline", got.URL.Query().Get("geometries"))
		assert.Equal(t, "full", got.URL.Query().Get("overview"))

		assert.Equal(t, 3000.0, result.DistanceMeters)
		assert.Equal(t, 1200.0, result.DurationSeconds)
		require.Len(t, result.Path, 3)
		assert.InDelta(t, 22.2871, result.Path[0].Lat, 1e-5)
		assert.InDelta(t, 114.1617, result.Path[0].Lng, 1e-5)
		assert.InDelta(t, 22.2849, result.Path[2].Lat, 1e-5)
	})

	t.Run("no geometry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"Ok","routes":[{"distance":500,"duration":90}]}`))
		}))
		defer server.Close()

		result, err := testClient(server.URL).Route(context.Background(), centralPier, ifcMall)
		require.NoError(t, err)
		assert.Equal(t, 500.0, result.DistanceMeters)
		assert.Empty(t, result.Path)
	})

	t.Run("non-ok code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"NoRoute","message":"No route found","routes":[]}`))
		}))
		defer server.Close()

		result, err := testClient(server.URL).Route(context.Background(), centralPier, ifcMall)
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "NoRoute")
	})

	t.Run("empty routes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"Ok","routes":[]}`))
		}))
		defer server.Close()

		_, err := testClient(server.URL).Route(context.Background(), centralPier, ifcMall)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no routes")
	})

	t.Run("api error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
		}))
		defer server.Close()

		result, err := testClient(server.URL).Route(context.Background(), centralPier, ifcMall)
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("context cancelled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := testClient(server.URL).Route(ctx, centralPier, ifcMall)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
