package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrDataDir = errors.New("failed to resolve application data directory")

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Prefetch  Prefetch  `envPrefix:"PREFETCH_"`
		Stats     Stats     `envPrefix:"STATS_"`
		Redis     Redis     `envPrefix:"REDIS_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Host         string        `env:"HOST" envDefault:"127.0.0.1"`
		Port         string        `env:"PORT" envDefault:"8765"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-tilecache"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"desktop"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	}

	// Cache locates the application data directory. DataDir wins when set,
	// otherwise the per-user config directory joined with AppID is used.
	Cache struct {
		DataDir string `env:"DATA_DIR"`
		AppID   string `env:"APP_ID" envDefault:"com.warddirectory.map"`
	}

	Upstream struct {
		OSMURL       string        `env:"OSM_URL" envDefault:"https://tile.openstreetmap.org/{z}/{x}/{y}.png"`
		SatelliteURL string        `env:"SATELLITE_URL" envDefault:"https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"`
		UserAgent    string        `env:"USER_AGENT" envDefault:"Ward Directory Map/1.0.0"`
		Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s"`
		// RateLimit is requests per second, 0 disables limiting.
		RateLimit float64 `env:"RATE_LIMIT" envDefault:"0"`
		RateBurst int     `env:"RATE_BURST" envDefault:"1"`
	}

	Prefetch struct {
		Workers  int `env:"WORKERS" envDefault:"4"`
		MaxTiles int `env:"MAX_TILES" envDefault:"20000"`
	}

	Stats struct {
		// Backend is one of sqlite, redis, memory.
		Backend    string `env:"BACKEND" envDefault:"sqlite"`
		SQLitePath string `env:"SQLITE_PATH"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Root returns the absolute application data directory.
func (c Cache) Root() (string, error) {
	dir := c.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDataDir, err)
		}
		dir = filepath.Join(base, c.AppID)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataDir, err)
	}

	return abs, nil
}

func (s Stats) Path(dataDir string) string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return filepath.Join(dataDir, "stats.db")
}
