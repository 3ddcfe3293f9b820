package agent

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	// Model provider.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	ModelTimeout  int // seconds per model call

	DBDSN string

	// Tracing.
	OTelEnabled  bool
	OTelEndpoint string

	// Temporal workflow dispatch for pipeline mode.
	TemporalEnabled   bool
	TemporalHostPort  string
	TemporalNamespace string
	TemporalTaskQueue string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		ListenAddr: getEnv("OPTIROUTE_AGENT_LISTEN_ADDR", ":5000"),
		LogLevel:   getEnv("OPTIROUTE_LOG_LEVEL", "info"),

		OpenAIAPIKey:  getEnv("OPTIROUTE_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: getEnv("OPTIROUTE_OPENAI_BASE_URL", "https://openai.api.proxyapi.ru/v1"),
		Model:         getEnv("OPTIROUTE_MODEL", "gpt-3.5-turbo"),
		ModelTimeout:  getEnvInt("OPTIROUTE_MODEL_TIMEOUT_SECS", 30),

		DBDSN: getEnv("OPTIROUTE_AGENT_DB_DSN", "file:optiroute-agent.sqlite"),

		OTelEnabled:  getEnvBool("OPTIROUTE_OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OPTIROUTE_OTEL_ENDPOINT", "localhost:4318"),

		TemporalEnabled:   getEnvBool("OPTIROUTE_TEMPORAL_ENABLED", false),
		TemporalHostPort:  getEnv("OPTIROUTE_TEMPORAL_HOST", "localhost:7233"),
		TemporalNamespace: getEnv("OPTIROUTE_TEMPORAL_NAMESPACE", "optiroute"),
		TemporalTaskQueue: getEnv("OPTIROUTE_TEMPORAL_TASK_QUEUE", "optiroute-pipeline"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPTIROUTE_OPENAI_API_KEY (or OPENAI_API_KEY) is required")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("OPTIROUTE_MODEL_TIMEOUT_SECS must be > 0, got %d", c.ModelTimeout)
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
