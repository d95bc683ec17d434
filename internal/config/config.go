package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config/config.yaml"

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"url"`
	// Migrate runs the CREATE IF NOT EXISTS bootstrap on start.
	Migrate bool `yaml:"migrate"`
}

type RealtimeConfig struct {
	PingTimeout time.Duration `yaml:"ping_timeout"`
	SendBuffer  int           `yaml:"send_buffer"`
	MaxFrame    int64         `yaml:"max_frame_bytes"`
}

type GroupsConfig struct {
	AdminOnly bool `yaml:"admin_only"`
	GroupOnly bool `yaml:"group_only"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type PDFConfig struct {
	FontPath string `yaml:"font_path"`
}

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	CORS struct {
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Groups   GroupsConfig   `yaml:"groups"`
	Redis    RedisConfig    `yaml:"redis"`
	PDF      PDFConfig      `yaml:"pdf"`
}

// LoadConfig reads config/config.yaml and panics if it cannot.
func LoadConfig() *Config {
	cfg, err := Load(defaultPath)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

// Load decodes the YAML file at path, applies .env and PARLEY_* overrides,
// then fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PARLEY_DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PARLEY_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PARLEY_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PARLEY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PARLEY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 1821
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Realtime.PingTimeout <= 0 {
		c.Realtime.PingTimeout = 60 * time.Second
	}
	if c.Realtime.SendBuffer <= 0 {
		c.Realtime.SendBuffer = 256
	}
	if c.Realtime.MaxFrame <= 0 {
		c.Realtime.MaxFrame = 64 << 10
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "parley:rooms"
	}
}
