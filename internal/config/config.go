package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	pkgconfig "github.com/skraps68/planner-sub000/pkg/config"
)

// Config is the full service configuration: yaml file first, environment
// variables override.
type Config struct {
	Server pkgconfig.ServerConfig `yaml:"server"`
	DB     pkgconfig.DBConfig     `yaml:"db"`
	Redis  pkgconfig.RedisConfig  `yaml:"redis"`
	MQ     pkgconfig.MQConfig     `yaml:"mq"`
	JWT    pkgconfig.JWTConfig    `yaml:"jwt"`
}

// Load reads config/<env>.yaml (env from CONFIG_ENV, default "local") and
// applies environment overrides on top.
func Load() (*Config, error) {
	env := pkgconfig.GetEnv("CONFIG_ENV", "local")
	dir := pkgconfig.GetEnv("CONFIG_DIR", "config")

	cfg := &Config{}

	path := filepath.Join(dir, fmt.Sprintf("%s.yaml", env))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)

	return cfg, nil
}
