package gateway

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	AgentURL string

	// Forward timeouts per mode, in seconds. Pipeline mode runs several
	// sequential model calls and needs the larger budget.
	DirectTimeoutSecs   int
	PipelineTimeoutSecs int

	RateLimitRPS   int
	RateLimitBurst int

	OTelEnabled  bool
	OTelEndpoint string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		ListenAddr: getEnv("OPTIROUTE_GATEWAY_LISTEN_ADDR", ":8001"),
		LogLevel:   getEnv("OPTIROUTE_LOG_LEVEL", "info"),

		AgentURL: getEnv("OPTIROUTE_AGENT_URL", os.Getenv("AGENT_URL")),

		DirectTimeoutSecs:   getEnvInt("OPTIROUTE_DIRECT_TIMEOUT_SECS", 30),
		PipelineTimeoutSecs: getEnvInt("OPTIROUTE_PIPELINE_TIMEOUT_SECS", 60),

		RateLimitRPS:   getEnvInt("OPTIROUTE_RATE_LIMIT_RPS", 60),
		RateLimitBurst: getEnvInt("OPTIROUTE_RATE_LIMIT_BURST", 120),

		OTelEnabled:  getEnvBool("OPTIROUTE_OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OPTIROUTE_OTEL_ENDPOINT", "localhost:4318"),
	}
	if cfg.AgentURL == "" {
		cfg.AgentURL = "http://localhost:5000"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DirectTimeoutSecs <= 0 {
		return fmt.Errorf("OPTIROUTE_DIRECT_TIMEOUT_SECS must be > 0, got %d", c.DirectTimeoutSecs)
	}
	if c.PipelineTimeoutSecs <= 0 {
		return fmt.Errorf("OPTIROUTE_PIPELINE_TIMEOUT_SECS must be > 0, got %d", c.PipelineTimeoutSecs)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("OPTIROUTE_RATE_LIMIT_RPS must be > 0, got %d", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("OPTIROUTE_RATE_LIMIT_BURST must be > 0, got %d", c.RateLimitBurst)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
