package http_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	delivery "github.com/trip-planner/internal/delivery/http"
	"github.com/trip-planner/internal/delivery/http/handler"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/fare"
	"github.com/trip-planner/internal/refdata"
	"github.com/trip-planner/internal/usecase"
)

var (
	centralPier = domain.Point{Lat: 22.2871, Lng: 114.1617}
	ifcMall     = domain.Point{Lat: 22.2849, Lng: 114.1588}
	starFerry   = domain.Point{Lat: 22.2936, Lng: 114.1688}
)

type staticRouter struct {
	result *domain.RouteResult
}

func (r staticRouter) Route(ctx context.Context, origin, destination domain.Point) (*domain.RouteResult, error) {
	return r.result, nil
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:             "127.0.0.1",
			Port:             0,
			EventWaitTimeout: 2 * time.Second,
			CORSOrigins:      "*",
		},
		Trip: config.TripConfig{
			ClearArrivalPolicy:    config.ClearArrivalKeepDeparture,
			ProximityRadiusMeters: 1000,
			LocateTimeout:         time.Second,
			RouteTimeout:          2 * time.Second,
			CityCenterLat:         22.236,
			CityCenterLng:         114.191,
			CityZoom:              11,
			StationZoom:           18,
			MeZoom:                15,
			DriveZoom:             13,
			DistrictTilt:          45,
			ViewportWidth:         390,
			ViewportHeight:        844,
		},
		Session: config.SessionConfig{TTL: 30 * time.Minute},
		Fare: config.FareConfig{
			BaseFare:           24,
			BaseDistanceMeters: 2000,
			IncrementMeters:    200,
			IncrementAmount:    1,
			DiscountFactor:     0.7,
			PeakFloor:          65,
			OffPeakFloor:       35,
			PeakWindows:        []config.PeakWindow{{StartHour: 8, EndHour: 10}, {StartHour: 18, EndHour: 20}},
			TimeZone:           "Asia/Hong_Kong",
		},
	}
}

func newTestServer(t *testing.T, checks map[string]handler.HealthChecker) *delivery.Server {
	t.Helper()

	store, err := refdata.NewStore(
		[]domain.Station{
			{ID: "a", Name: "Central Pier", DistrictName: "Central", Position: centralPier},
			{ID: "b", Name: "IFC Mall", DistrictName: "Central", Position: ifcMall},
			{ID: "c", Name: "Star Ferry TST", DistrictName: "Tsim Sha Tsui", Position: starFerry},
		},
		[]domain.District{
			{ID: "central", Name: "Central", Position: domain.Point{Lat: 22.282, Lng: 114.158}},
			{ID: "tst", Name: "Tsim Sha Tsui", Position: domain.Point{Lat: 22.2976, Lng: 114.1722}},
		},
	)
	require.NoError(t, err)
	provider := refdata.NewStaticProvider(store)

	cfg := testConfig()
	estimator, err := fare.NewEstimator(cfg.Fare)
	require.NoError(t, err)

	logger := zap.NewNop()
	router := staticRouter{result: &domain.RouteResult{DistanceMeters: 3000, DurationSeconds: 600}}
	sessionUC := usecase.NewSessionUseCase(provider, router, estimator, nil, nil, cfg, logger)
	sessionUC.SetClock(func() time.Time {
		return time.Date(2024, 3, 4, 14, 0, 0, 0, estimator.Location())
	})
	t.Cleanup(sessionUC.Close)

	return delivery.NewServer(
		cfg,
		logger,
		handler.NewSessionHandler(sessionUC, nil, logger),
		handler.NewReferenceHandler(provider, cfg.Trip.ProximityRadiusMeters, logger),
		handler.NewFareHandler(estimator, logger),
		handler.NewHealthHandler(provider, sessionUC, checks, logger),
	)
}

func do(t *testing.T, s *delivery.Server, method, target, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func decodeState(t *testing.T, env envelope) domain.TripState {
	t.Helper()
	var state domain.TripState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	return state
}

func TestServer_SessionTrip(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := do(t, s, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, status)
	created := decodeState(t, env)
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, created.SessionID, env.Meta["session_id"])
	assert.Equal(t, domain.ModeSelectingDeparture, created.Selection.Mode)

	base := "/api/v1/sessions/" + created.SessionID

	status, env = do(t, s, http.MethodPost, base+"/map-loaded", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decodeState(t, env).MapReady)

	status, _ = do(t, s, http.MethodPost, base+"/events", `{"type":"station_tapped","station_id":"a"}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, s, http.MethodPost, base+"/events", `{"type":"choose_destination"}`)
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, s, http.MethodPost, base+"/events", `{"type":"station_tapped","station_id":"c","wait":true}`)
	require.Equal(t, http.StatusOK, status)
	state := decodeState(t, env)
	assert.Equal(t, domain.ModeFareDisplayed, state.Selection.Mode)
	require.NotNil(t, state.Quote)
	assert.Equal(t, 35.0, state.Quote.OurFare)

	status, env = do(t, s, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.ModeFareDisplayed, decodeState(t, env).Selection.Mode)

	status, _ = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env = do(t, s, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)

	status, env = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestServer_SessionEventErrors(t *testing.T) {
	s := newTestServer(t, nil)

	_, env := do(t, s, http.MethodPost, "/api/v1/sessions", "")
	base := "/api/v1/sessions/" + decodeState(t, env).SessionID

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed body", `{`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown event type", `{"type":"fly_away"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"station id missing", `{"type":"station_tapped"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown station", `{"type":"station_tapped","station_id":"zzz"}`, http.StatusNotFound, "STATION_NOT_FOUND"},
		{"not available in step", `{"type":"continue"}`, http.StatusConflict, "INVALID_TRANSITION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, s, http.MethodPost, base+"/events", tt.body)
			assert.Equal(t, tt.wantCode, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestServer_Locate(t *testing.T) {
	s := newTestServer(t, nil)

	_, env := do(t, s, http.MethodPost, "/api/v1/sessions", "")
	base := "/api/v1/sessions/" + decodeState(t, env).SessionID
	do(t, s, http.MethodPost, base+"/map-loaded", "")

	t.Run("partial coordinates", func(t *testing.T) {
		status, env := do(t, s, http.MethodPost, base+"/locate", `{"lat":22.28}`)
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_COORDINATES", env.Error.Code)
	})

	t.Run("reported coordinates", func(t *testing.T) {
		status, env := do(t, s, http.MethodPost, base+"/locate", `{"lat":22.2871,"lng":114.1617,"wait":true}`)
		require.Equal(t, http.StatusOK, status)
		state := decodeState(t, env)
		require.NotNil(t, state.UserLocation)
		assert.Equal(t, centralPier, *state.UserLocation)
		assert.Equal(t, domain.ViewMe, state.View.Name)
	})
}

func TestServer_Reference(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("all stations", func(t *testing.T) {
		status, env := do(t, s, http.MethodGet, "/api/v1/stations", "")
		require.Equal(t, http.StatusOK, status)
		var stations []domain.Station
		require.NoError(t, json.Unmarshal(env.Data, &stations))
		assert.Len(t, stations, 3)
		assert.Equal(t, float64(3), env.Meta["total"])
	})

	t.Run("stations near point", func(t *testing.T) {
		status, env := do(t, s, http.MethodGet, "/api/v1/stations?lat=22.2871&lng=114.1617&radius=500", "")
		require.Equal(t, http.StatusOK, status)
		var stations []domain.Station
		require.NoError(t, json.Unmarshal(env.Data, &stations))
		require.Len(t, stations, 2)
		for _, st := range stations {
			assert.Equal(t, "Central", st.DistrictName)
		}
	})

	t.Run("only lat", func(t *testing.T) {
		status, env := do(t, s, http.MethodGet, "/api/v1/stations?lat=22.2871", "")
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_COORDINATES", env.Error.Code)
	})

	t.Run("districts", func(t *testing.T) {
		status, env := do(t, s, http.MethodGet, "/api/v1/districts", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), env.Meta["total"])
	})

	t.Run("district stations", func(t *testing.T) {
		status, env := do(t, s, http.MethodGet, "/api/v1/districts/tst/stations", "")
		require.Equal(t, http.StatusOK, status)
		var body struct {
			District domain.District  `json:"district"`
			Stations []domain.Station `json:"stations"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.Equal(t, "Tsim Sha Tsui", body.District.Name)
		require.Len(t, body.Stations, 1)
		assert.Equal(t, "c", body.Stations[0].ID)
	})

	t.Run("unknown district", func(t *testing.T) {
		status, env := do(t, s, http.MethodGet, "/api/v1/districts/nowhere/stations", "")
		assert.Equal(t, http.StatusNotFound, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "DISTRICT_NOT_FOUND", env.Error.Code)
	})
}

func TestServer_FareEstimate(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name     string
		body     string
		wantFare float64
		wantPeak bool
	}{
		{"off peak floor", `{"distance_meters":3000,"duration_seconds":600,"at":"2024-03-04T14:00:00+08:00"}`, 35, false},
		{"peak floor", `{"distance_meters":3000,"duration_seconds":600,"at":"2024-03-04T08:30:00+08:00"}`, 65, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, s, http.MethodPost, "/api/v1/fare/estimate", tt.body)
			require.Equal(t, http.StatusOK, status)

			var resp struct {
				Quote    domain.FareQuote `json:"quote"`
				TimeZone string           `json:"time_zone"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tt.wantFare, resp.Quote.OurFare)
			assert.Equal(t, tt.wantPeak, resp.Quote.IsPeak)
			assert.Equal(t, "Asia/Hong_Kong", resp.TimeZone)
		})
	}

	t.Run("negative distance", func(t *testing.T) {
		status, env := do(t, s, http.MethodPost, "/api/v1/fare/estimate", `{"distance_meters":-1,"duration_seconds":60}`)
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	})
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, map[string]handler.HealthChecker{
			"redis": healthFunc(func(ctx context.Context) error { return nil }),
		})

		status, env := do(t, s, http.MethodGet, "/api/v1/health", "")
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Status        string            `json:"status"`
			ReferenceData string            `json:"reference_data"`
			Checks        map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "ready", resp.ReferenceData)
		assert.Equal(t, "ok", resp.Checks["redis"])
	})

	t.Run("dependency down", func(t *testing.T) {
		s := newTestServer(t, map[string]handler.HealthChecker{
			"redis": healthFunc(func(ctx context.Context) error { return stderrors.New("connection refused") }),
		})

		status, env := do(t, s, http.MethodGet, "/api/v1/health", "")
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["redis"])
	})
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := do(t, s, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
