package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		Cache     Cache     `envPrefix:"CACHE_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Fetch     Fetch     `envPrefix:"FETCH_"`
		Resolver  Resolver  `envPrefix:"RESOLVER_"`
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Redis     Redis     `envPrefix:"REDIS_"`
	}

	Cache struct {
		Path        string        `env:"PATH" envDefault:"slmap-cache.db"`
		NegativeTTL time.Duration `env:"NEGATIVE_TTL" envDefault:"24h"`
	}

	Upstream struct {
		TileBaseURL         string        `env:"TILE_BASE_URL" envDefault:"https://secondlife-maps-cdn.akamaized.net"`
		CoordinateLookupURL string        `env:"COORDINATE_LOOKUP_URL" envDefault:"https://cap.secondlife.com/cap/0/d661249b-2b5a-4436-966a-3d3b8d7a574f"`
		NameLookupURL       string        `env:"NAME_LOOKUP_URL" envDefault:"https://cap.secondlife.com/cap/0/b713fe80-283b-4585-af4d-a3b7d9a32492"`
		Timeout             time.Duration `env:"TIMEOUT" envDefault:"30s"`
	}

	Fetch struct {
		RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"10"`
		Burst         int     `env:"BURST" envDefault:"1"`
		Concurrency   int     `env:"CONCURRENCY" envDefault:"8"`
		MaxAttempts   int     `env:"MAX_ATTEMPTS" envDefault:"4"`
	}

	Resolver struct {
		LRUSize int `env:"LRU_SIZE" envDefault:"1024"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"sl-map-tools"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	}

	Redis struct {
		Enabled  bool          `env:"ENABLED" envDefault:"false"`
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"168h"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "SLMAP_"})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
