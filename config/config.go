package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/CIDgravity/snakelet"
)

// config structure
type Config struct {
	API    APIConfig    `mapstructure:"API"`
	Github GithubConfig `mapstructure:"GITHUB"`
	Cache  CacheConfig  `mapstructure:"CACHE"`
	Logs   LogsConfig   `mapstructure:"LOGS"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type GithubConfig struct {
	BaseURL            string `mapstructure:"BaseURL"`
	Token              string `mapstructure:"Token"`
	UserAgent          string `mapstructure:"UserAgent"`
	PerPage            int    `mapstructure:"PerPage"`
	MaxPages           int    `mapstructure:"MaxPages"`
	MaxLangRepos       int    `mapstructure:"MaxLangRepos"`
	MaxParallelFetches int    `mapstructure:"MaxParallelFetches"`
	FetchDelayMs       int    `mapstructure:"FetchDelayMs"`
	TimeoutSeconds     int    `mapstructure:"TimeoutSeconds"`
}

type CacheConfig struct {
	Backend           string `mapstructure:"Backend"` // memory | redis
	RedisURL          string `mapstructure:"RedisURL"`
	ProfileTTLSeconds int    `mapstructure:"ProfileTTLSeconds"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJson bool   `mapstructure:"OutputLogsAsJson"`
}

// Load
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(dir + "/config/config.toml"); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	// load default and config file content
	cfg := GetDefault()
	_, err = snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides lets deployment environments inject secrets without
// writing them into the config file
func (cfg *Config) ApplyEnvOverrides() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.Github.Token = token
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Cache.RedisURL = redisURL
		cfg.Cache.Backend = "redis"
	}
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Github: GithubConfig{
			BaseURL:            "https://api.github.com",
			UserAgent:          "gh-profile-api/1.3",
			PerPage:            100,
			MaxPages:           20,
			MaxLangRepos:       60,
			MaxParallelFetches: 8,
			FetchDelayMs:       30,
			TimeoutSeconds:     10,
		},
		Cache: CacheConfig{
			Backend:           "memory",
			ProfileTTLSeconds: 300,
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJson: false,
		},
	}
}
