package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Mapbox      MapboxConfig
	Geolocation GeolocationConfig
	RefData     RefDataConfig
	Fare        FareConfig
	Trip        TripConfig
	Session     SessionConfig
	Cache       CacheConfig
	Log         LogConfig
	Worker      WorkerConfig
}

type ServerConfig struct {
	Host             string
	Port             int
	Env              string
	EventWaitTimeout time.Duration
	CORSOrigins      string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type MapboxConfig struct {
	AccessToken    string
	BaseURL        string
	DrivingProfile string
	RequestTimeout int // seconds
}

type GeolocationConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RefDataConfig - источники станций и районов: путь к файлу или http(s) URL
type RefDataConfig struct {
	StationsPath  string
	DistrictsPath string
	LoadTimeout   time.Duration
	RetryInterval time.Duration
}

// PeakWindow - полуоткрытый интервал часов [StartHour, EndHour)
type PeakWindow struct {
	StartHour int
	EndHour   int
}

type FareConfig struct {
	BaseFare           float64
	BaseDistanceMeters float64
	IncrementMeters    float64
	IncrementAmount    float64
	DiscountFactor     float64
	PeakFloor          float64
	OffPeakFloor       float64
	PeakWindows        []PeakWindow
	TimeZone           string
}

// ClearArrivalPolicy определяет, куда возвращается выбор после сброса точки прибытия
type ClearArrivalPolicy string

const (
	ClearArrivalKeepDeparture ClearArrivalPolicy = "keep_departure"
	ClearArrivalReset         ClearArrivalPolicy = "reset"
)

type TripConfig struct {
	ClearArrivalPolicy    ClearArrivalPolicy
	ProximityRadiusMeters float64
	LocateTimeout         time.Duration
	RouteTimeout          time.Duration
	CityCenterLat         float64
	CityCenterLng         float64
	CityZoom              float64
	StationZoom           float64
	MeZoom                float64
	DriveZoom             float64
	DistrictTilt          float64
	ViewportWidth         int
	ViewportHeight        int
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type CacheConfig struct {
	RouteCacheTTL  time.Duration
	RouteCacheSize int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled       bool
	ConsumerGroup string
	MaxRetries    int
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom читает конфигурацию из указанного env-файла; отсутствие файла не ошибка
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	peakWindows, err := parsePeakWindows(v.GetString("FARE_PEAK_WINDOWS"))
	if err != nil {
		return nil, fmt.Errorf("invalid FARE_PEAK_WINDOWS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:             v.GetString("API_HOST"),
			Port:             v.GetInt("API_PORT"),
			Env:              v.GetString("API_ENV"),
			EventWaitTimeout: time.Duration(v.GetInt("API_EVENT_WAIT_TIMEOUT")) * time.Millisecond,
			CORSOrigins:      v.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Mapbox: MapboxConfig{
			AccessToken:    v.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:        v.GetString("MAPBOX_BASE_URL"),
			DrivingProfile: v.GetString("MAPBOX_DRIVING_PROFILE"),
			RequestTimeout: v.GetInt("MAPBOX_REQUEST_TIMEOUT"),
		},
		Geolocation: GeolocationConfig{
			BaseURL: v.GetString("GEOLOCATION_BASE_URL"),
			Timeout: time.Duration(v.GetInt("GEOLOCATION_TIMEOUT")) * time.Millisecond,
		},
		RefData: RefDataConfig{
			StationsPath:  v.GetString("REFDATA_STATIONS_PATH"),
			DistrictsPath: v.GetString("REFDATA_DISTRICTS_PATH"),
			LoadTimeout:   time.Duration(v.GetInt("REFDATA_LOAD_TIMEOUT")) * time.Second,
			RetryInterval: time.Duration(v.GetInt("REFDATA_RETRY_INTERVAL")) * time.Second,
		},
		Fare: FareConfig{
			BaseFare:           v.GetFloat64("FARE_BASE"),
			BaseDistanceMeters: v.GetFloat64("FARE_BASE_DISTANCE_M"),
			IncrementMeters:    v.GetFloat64("FARE_INCREMENT_M"),
			IncrementAmount:    v.GetFloat64("FARE_INCREMENT_AMOUNT"),
			DiscountFactor:     v.GetFloat64("FARE_DISCOUNT_FACTOR"),
			PeakFloor:          v.GetFloat64("FARE_PEAK_FLOOR"),
			OffPeakFloor:       v.GetFloat64("FARE_OFFPEAK_FLOOR"),
			PeakWindows:        peakWindows,
			TimeZone:           v.GetString("FARE_TIMEZONE"),
		},
		Trip: TripConfig{
			ClearArrivalPolicy:    ClearArrivalPolicy(strings.ToLower(v.GetString("TRIP_CLEAR_ARRIVAL_POLICY"))),
			ProximityRadiusMeters: v.GetFloat64("TRIP_PROXIMITY_RADIUS_M"),
			LocateTimeout:         time.Duration(v.GetInt("TRIP_LOCATE_TIMEOUT")) * time.Millisecond,
			RouteTimeout:          time.Duration(v.GetInt("TRIP_ROUTE_TIMEOUT")) * time.Millisecond,
			CityCenterLat:         v.GetFloat64("TRIP_CITY_CENTER_LAT"),
			CityCenterLng:         v.GetFloat64("TRIP_CITY_CENTER_LNG"),
			CityZoom:              v.GetFloat64("TRIP_CITY_ZOOM"),
			StationZoom:           v.GetFloat64("TRIP_STATION_ZOOM"),
			MeZoom:                v.GetFloat64("TRIP_ME_ZOOM"),
			DriveZoom:             v.GetFloat64("TRIP_DRIVE_ZOOM"),
			DistrictTilt:          v.GetFloat64("TRIP_DISTRICT_TILT"),
			ViewportWidth:         v.GetInt("TRIP_VIEWPORT_WIDTH"),
			ViewportHeight:        v.GetInt("TRIP_VIEWPORT_HEIGHT"),
		},
		Session: SessionConfig{
			TTL:           time.Duration(v.GetInt("SESSION_TTL")) * time.Second,
			SweepInterval: time.Duration(v.GetInt("SESSION_SWEEP_INTERVAL")) * time.Second,
		},
		Cache: CacheConfig{
			RouteCacheTTL:  time.Duration(v.GetInt("ROUTE_CACHE_TTL")) * time.Second,
			RouteCacheSize: v.GetInt("ROUTE_CACHE_SIZE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:       v.GetBool("WORKER_ENABLED"),
			ConsumerGroup: v.GetString("WORKER_CONSUMER_GROUP"),
			MaxRetries:    v.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	switch cfg.Trip.ClearArrivalPolicy {
	case ClearArrivalKeepDeparture, ClearArrivalReset:
	default:
		return nil, fmt.Errorf("invalid TRIP_CLEAR_ARRIVAL_POLICY %q", cfg.Trip.ClearArrivalPolicy)
	}

	if _, err := time.LoadLocation(cfg.Fare.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid FARE_TIMEZONE: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("API_EVENT_WAIT_TIMEOUT", 8000)
	v.SetDefault("API_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "trip_planner")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("MAPBOX_DRIVING_PROFILE", "mapbox/driving")
	v.SetDefault("MAPBOX_REQUEST_TIMEOUT", 10)

	v.SetDefault("GEOLOCATION_BASE_URL", "http://ip-api.com")
	v.SetDefault("GEOLOCATION_TIMEOUT", 3000)

	v.SetDefault("REFDATA_STATIONS_PATH", "./data/stations.geojson")
	v.SetDefault("REFDATA_DISTRICTS_PATH", "./data/districts.geojson")
	v.SetDefault("REFDATA_LOAD_TIMEOUT", 10)
	v.SetDefault("REFDATA_RETRY_INTERVAL", 30)

	v.SetDefault("FARE_BASE", 24)
	v.SetDefault("FARE_BASE_DISTANCE_M", 2000)
	v.SetDefault("FARE_INCREMENT_M", 200)
	v.SetDefault("FARE_INCREMENT_AMOUNT", 1)
	v.SetDefault("FARE_DISCOUNT_FACTOR", 0.7)
	v.SetDefault("FARE_PEAK_FLOOR", 65)
	v.SetDefault("FARE_OFFPEAK_FLOOR", 35)
	v.SetDefault("FARE_PEAK_WINDOWS", "8-10,18-20")
	v.SetDefault("FARE_TIMEZONE", "Asia/Hong_Kong")

	v.SetDefault("TRIP_CLEAR_ARRIVAL_POLICY", string(ClearArrivalKeepDeparture))
	v.SetDefault("TRIP_PROXIMITY_RADIUS_M", 1000)
	v.SetDefault("TRIP_LOCATE_TIMEOUT", 5000)
	v.SetDefault("TRIP_ROUTE_TIMEOUT", 10000)
	v.SetDefault("TRIP_CITY_CENTER_LAT", 22.236)
	v.SetDefault("TRIP_CITY_CENTER_LNG", 114.191)
	v.SetDefault("TRIP_CITY_ZOOM", 11)
	v.SetDefault("TRIP_STATION_ZOOM", 18)
	v.SetDefault("TRIP_ME_ZOOM", 15)
	v.SetDefault("TRIP_DRIVE_ZOOM", 13)
	v.SetDefault("TRIP_DISTRICT_TILT", 45)
	v.SetDefault("TRIP_VIEWPORT_WIDTH", 390)
	v.SetDefault("TRIP_VIEWPORT_HEIGHT", 844)

	v.SetDefault("SESSION_TTL", 1800)
	v.SetDefault("SESSION_SWEEP_INTERVAL", 60)

	v.SetDefault("ROUTE_CACHE_TTL", 3600)
	v.SetDefault("ROUTE_CACHE_SIZE", 1000)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("WORKER_CONSUMER_GROUP", "trip-quote-recorders")
	v.SetDefault("WORKER_MAX_RETRIES", 3)
}

// parsePeakWindows разбирает строку вида "8-10,18-20"
func parsePeakWindows(s string) ([]PeakWindow, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	result := make([]PeakWindow, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		bounds := strings.SplitN(trimmed, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("window %q must look like start-end", trimmed)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("window %q: %w", trimmed, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("window %q: %w", trimmed, err)
		}
		if start < 0 || end > 24 || start >= end {
			return nil, fmt.Errorf("window %q is out of range", trimmed)
		}
		result = append(result, PeakWindow{StartHour: start, EndHour: end})
	}
	return result, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
