package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
	StorageFS       = "fs"
)

type Config struct {
	Env  string `envconfig:"ENV" default:"development"`
	Mode Mode   `envconfig:"MODE" default:"online"`
	Port string `envconfig:"PORT" default:"5000"`

	// Hosted backend (online mode)
	SupabaseURL            string `envconfig:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`

	// Session credential
	JWTSecret  string        `envconfig:"JWT_SECRET" default:"dev_secret"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	FrontendURLs []string `envconfig:"FRONTEND_URL" default:"http://localhost:3000,http://localhost:3001"`

	// Local tables + identity (offline mode)
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN"`

	// Signed playback URLs
	StorageDriver string        `envconfig:"STORAGE_DRIVER"` // supabase|s3|fs, empty = by mode
	VideoBucket   string        `envconfig:"VIDEO_BUCKET" default:"videos"`
	SignedURLTTL  time.Duration `envconfig:"SIGNED_URL_TTL" default:"1h"`
	BlobBasePath  string        `envconfig:"BLOB_BASE_PATH" default:"./data"`
	S3URL         string        `envconfig:"SUPABASE_S3_URL"`
	S3Region      string        `envconfig:"SUPABASE_S3_REGION" default:"us-east-1"`
	S3AccessKey   string        `envconfig:"SUPABASE_S3_ACCESS_KEY"`
	S3SecretKey   string        `envconfig:"SUPABASE_S3_SECRET_KEY"`

	ProfileRetryDelay time.Duration `envconfig:"PROFILE_RETRY_DELAY" default:"1s"`
	CheckoutURL       string        `envconfig:"CHECKOUT_URL" default:"https://example.com/checkout/session"`
	UpstreamTimeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"15s"`
	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.FrontendURLs = trimCSV(cfg.FrontendURLs)
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageSupabase
		if cfg.Mode == ModeOffline {
			cfg.StorageDriver = StorageFS
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeOnline, ModeOffline:
	default:
		return errors.New("MODE must be online or offline")
	}
	if c.Mode == ModeOnline && (c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "") {
		return errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required in online mode")
	}
	switch c.StorageDriver {
	case StorageSupabase:
		if c.SupabaseURL == "" {
			return errors.New("STORAGE_DRIVER=supabase needs SUPABASE_URL")
		}
	case StorageS3:
		if c.S3URL == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("STORAGE_DRIVER=s3 needs SUPABASE_S3_URL, SUPABASE_S3_ACCESS_KEY and SUPABASE_S3_SECRET_KEY")
		}
	case StorageFS:
	default:
		return errors.New("STORAGE_DRIVER must be supabase, s3 or fs")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func trimCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
