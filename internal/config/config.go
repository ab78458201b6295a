package config

import (
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds every knob the gateway reads. Defaults first, then an
// optional YAML file (GATEWAY_CONFIG), then environment variables on top.
type Config struct {
	Port        string `env:"PORT" yaml:"port"`
	DatabaseURL string `env:"DATABASE_URL" yaml:"database_url"`
	RedisAddr   string `env:"REDIS_ADDR" yaml:"redis_addr"`

	// SecretKey signs session and unread-count cookies and keys the
	// legacy password hash.
	SecretKey string `env:"SECRET_KEY" yaml:"secret_key"`

	StorageDir string `env:"STORAGE_DIR" yaml:"storage_dir"`

	MaxJobsPerUser     int   `env:"MAX_JOBS_PER_USER" yaml:"max_jobs_per_user"`
	MaxPrintLength     int64 `env:"MAX_PRINT_LENGTH" yaml:"max_print_length"`
	MaxPagesPerJob     int   `env:"MAX_PAGES_PER_JOB" yaml:"max_pages_per_job"`
	PDFPrintingAllowed bool  `env:"PDF_PRINTING_ALLOWED" yaml:"pdf_printing_allowed"`

	// Login throttle, requests per second with a burst allowance, per IP.
	LoginRatePerSec float64 `env:"LOGIN_RATE_PER_SEC" yaml:"login_rate_per_sec"`
	LoginRateBurst  int     `env:"LOGIN_RATE_BURST" yaml:"login_rate_burst"`
}

func Defaults() Config {
	return Config{
		Port:            "5050",
		StorageDir:      "./objects",
		MaxJobsPerUser:  10,
		MaxPrintLength:  10000000,
		MaxPagesPerJob:  10,
		LoginRatePerSec: 1,
		LoginRateBurst:  5,
	}
}

var Cfg Config

// Load populates Cfg. A missing YAML file is fine; a missing SecretKey is
// not, since every signed cookie depends on it.
func Load() {
	_ = godotenv.Load(".env.local")

	Cfg = Defaults()

	if path := os.Getenv("GATEWAY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("Failed to read config file: ", err)
		}
		if err := yaml.Unmarshal(data, &Cfg); err != nil {
			log.Fatal("Failed to parse config file: ", err)
		}
	}

	if err := env.Parse(&Cfg); err != nil {
		log.Fatal("Failed to parse environment: ", err)
	}

	if Cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is empty")
	}
}
