// Package config loads service settings from defaults, an optional YAML file
// and GEO_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/seo-optimizer/geo/judge"
)

// Config holds every tunable of the service and the CLI.
type Config struct {
	LogLevel string `koanf:"log_level"`
	Addr     string `koanf:"addr"`
	GinMode  string `koanf:"gin_mode"`
	DataDir  string `koanf:"data_dir"`
	DevMode  bool   `koanf:"dev_mode"`

	LLMBaseURL       string  `koanf:"llm_base_url"`
	LLMAPIKey        string  `koanf:"llm_api_key"`
	LLMTemperature   float64 `koanf:"llm_temperature"`
	LLMMaxTokens     int     `koanf:"llm_max_tokens"`
	LLMRatePerSecond float64 `koanf:"llm_rate_per_second"`
	LLMBurst         int     `koanf:"llm_burst"`

	JudgeTimeout    time.Duration `koanf:"judge_timeout"`
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`
	SiteConcurrency int           `koanf:"site_concurrency"`
	MaxCompetitors  int           `koanf:"max_competitors"`
	DiscoveryModel  string        `koanf:"discovery_model"`
	Judges          []JudgeConfig `koanf:"judges"`

	CacheTTL     time.Duration `koanf:"cache_ttl"`
	CacheSize    int           `koanf:"cache_size"`
	RedisAddr    string        `koanf:"redis_addr"`
	KafkaBrokers string        `koanf:"kafka_brokers"`
	KafkaTopic   string        `koanf:"kafka_topic"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// JudgeConfig describes one judge persona in YAML.
type JudgeConfig struct {
	ID    string             `koanf:"id"`
	Name  string             `koanf:"name"`
	Model string             `koanf:"model"`
	Role  string             `koanf:"role"`
	Focus map[string]float64 `koanf:"focus"`
}

// New returns the defaults.
func New() *Config {
	defaults := judge.DefaultPersonas()
	judges := make([]JudgeConfig, 0, len(defaults))
	for _, p := range defaults {
		judges = append(judges, fromPersona(p))
	}

	return &Config{
		LogLevel: "info",
		Addr:     ":8082",
		GinMode:  "release",
		DataDir:  "data",

		LLMBaseURL:       "https://openrouter.ai/api",
		LLMTemperature:   0.3,
		LLMMaxTokens:     2500,
		LLMRatePerSecond: 5,
		LLMBurst:         5,

		JudgeTimeout:    60 * time.Second,
		FetchTimeout:    15 * time.Second,
		SiteConcurrency: 3,
		MaxCompetitors:  5,
		DiscoveryModel:  defaults[0].Model,
		Judges:          judges,

		CacheTTL:   30 * time.Minute,
		CacheSize:  1000,
		KafkaTopic: "geo.scorecards",

		RateLimitRPS:   2,
		RateLimitBurst: 5,
	}
}

// Validate reports the first setting that makes the config unusable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case len(c.Judges) == 0:
		return fmt.Errorf("%w: at least one judge is required", ErrInvalidConfig)
	case c.JudgeTimeout <= 0:
		return fmt.Errorf("%w: judge_timeout must be positive", ErrInvalidConfig)
	case c.SiteConcurrency <= 0:
		return fmt.Errorf("%w: site_concurrency must be positive", ErrInvalidConfig)
	case c.MaxCompetitors < 0:
		return fmt.Errorf("%w: max_competitors must not be negative", ErrInvalidConfig)
	}
	for i, j := range c.Judges {
		if j.ID == "" || j.Model == "" {
			return fmt.Errorf("%w: judge %d needs id and model", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Personas converts the configured judges into panel personas.
func (c *Config) Personas() []judge.Persona {
	out := make([]judge.Persona, 0, len(c.Judges))
	for _, j := range c.Judges {
		p := judge.Persona{
			ID:    j.ID,
			Name:  j.Name,
			Model: j.Model,
			Role:  j.Role,
		}
		if len(j.Focus) > 0 {
			p.Focus = make(map[judge.Category]float64, len(j.Focus))
			for k, v := range j.Focus {
				if cat, ok := judge.ParseCategory(k); ok {
					p.Focus[cat] = v
				}
			}
		}
		out = append(out, p)
	}
	return out
}

// Brokers splits the comma separated kafka_brokers value.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func fromPersona(p judge.Persona) JudgeConfig {
	jc := JudgeConfig{ID: p.ID, Name: p.Name, Model: p.Model, Role: p.Role}
	if len(p.Focus) > 0 {
		jc.Focus = make(map[string]float64, len(p.Focus))
		for k, v := range p.Focus {
			jc.Focus[string(k)] = v
		}
	}
	return jc
}
