package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`

	SentryEnabled bool `toml:"sentry_enabled"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// redis, used for rate limiting the auth endpoints
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	AuthRateLimitAllowedPerMin int `toml:"auth_rate_limit_allowed_per_min"`

	// strava api
	StravaAuthEndpoint  string `toml:"strava_auth_endpoint"`
	StravaTokenEndpoint string `toml:"strava_token_endpoint"`
	StravaAPIEndpoint   string `toml:"strava_api_endpoint"`
	StravaRedirectURI   string `toml:"strava_redirect_uri"`
	ActivityMaxPages    int    `toml:"activity_max_pages"`

	// frontend, where the athlete browser is sent after the auth callback
	FrontendURL string `toml:"frontend_url"`

	// training plan recommendations
	RecommendModel          string `toml:"recommend_model"`
	RecommendTimeoutSeconds int    `toml:"recommend_timeout_seconds"`
}

func (c *Config) RecommendTimeout() time.Duration {
	if c.RecommendTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RecommendTimeoutSeconds) * time.Second
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found in [%s]", env, path)
	}

	return cfg, nil
}
