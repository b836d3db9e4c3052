package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the application configuration, read from a YAML file with
// environment variable overrides.
type Config struct {
	Env        string `yaml:"env" env:"BRIGADE_ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`

	MetricsAddress string `yaml:"metrics_address" env:"BRIGADE_METRICS_ADDRESS" env-default:":9090"`

	DBDialect string `yaml:"db_dialect" env:"BRIGADE_DB_DIALECT" env-default:"sqlite3"`
	DBDSN     string `yaml:"db_dsn" env:"BRIGADE_DB_DSN" env-default:"brigade.db"`

	JWTSecret string `yaml:"jwt_secret" env:"BRIGADE_JWT_SECRET"`
	SeedFile  string `yaml:"seed_file" env:"BRIGADE_SEED_FILE"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"BRIGADE_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Load reads the configuration file at path. A missing file is not an
// error; defaults and environment variables apply.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return &cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	return &cfg, nil
}
