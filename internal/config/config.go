package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	UploadDir    string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:3000"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
