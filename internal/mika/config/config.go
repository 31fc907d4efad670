package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	App     AppConfig     `json:"app" yaml:"app"`
	API     APIConfig     `json:"api" yaml:"api"`
	OpenAI  OpenAIConfig  `json:"openai" yaml:"openai"`
	Stylist StylistConfig `json:"stylist" yaml:"stylist"`
	Usage   UsageConfig   `json:"usage" yaml:"usage"`
}

type AppConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Environment string `json:"environment" yaml:"environment"`
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format"`
}

type APIConfig struct {
	Host           string   `json:"host" yaml:"host"`
	Port           int      `json:"port" yaml:"port"`
	Base           string   `json:"base" yaml:"base"`
	CORSOrigins    []string `json:"cors_origins" yaml:"cors_origins"`
	MaxRequestSize int64    `json:"max_request_size" yaml:"max_request_size"`
}

// Addr is the listen address for the HTTP server.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type OpenAIConfig struct {
	APIKey       string        `json:"-" yaml:"api_key"`
	Organization string        `json:"organization" yaml:"organization"`
	Project      string        `json:"project" yaml:"project"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Model        string        `json:"model" yaml:"model"`
	Temperature  float64       `json:"temperature" yaml:"temperature"`
	MaxTokens    int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
}

// MaskedAPIKey returns a loggable form of the key.
func (c OpenAIConfig) MaskedAPIKey() string {
	if len(c.APIKey) <= 12 {
		return "(none)"
	}
	return c.APIKey[:8] + "…" + c.APIKey[len(c.APIKey)-6:]
}

type StylistConfig struct {
	Name     string `json:"name" yaml:"name"`
	Brand    string `json:"brand" yaml:"brand"`
	Region   string `json:"region" yaml:"region"`
	Currency string `json:"currency" yaml:"currency"`
}

type UsageConfig struct {
	Store         string `json:"store" yaml:"store"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"-" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
	TTLDays       int    `json:"ttl_days" yaml:"ttl_days"`
}

// Load reads .env, CONFIG_DIR/app_config.yaml and the process environment.
// Environment variables win over YAML values, which win over defaults.
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	configDir := getEnv("CONFIG_DIR", "config")
	yamlConfig := loadYAMLConfig(configDir)

	config.App = AppConfig{
		Name:        getEnvWithYAML("APP_NAME", yamlConfig, "app.name", "Mika API"),
		Version:     getEnvWithYAML("APP_VERSION", yamlConfig, "app.version", "1.0.0"),
		Environment: getEnvWithYAML("ENVIRONMENT", yamlConfig, "app.environment", "development"),
		LogLevel:    getEnvWithYAML("LOG_LEVEL", yamlConfig, "app.log_level", "info"),
		LogFormat:   getEnvWithYAML("LOG_FORMAT", yamlConfig, "app.log_format", "json"),
	}

	config.API = APIConfig{
		Host:           getEnvWithYAML("API_HOST", yamlConfig, "api.host", "0.0.0.0"),
		Port:           getEnvIntWithYAML("PORT", yamlConfig, "api.port", 8787),
		Base:           NormalizeBase(getEnvWithYAML("API_BASE", yamlConfig, "api.base", "/api/mika")),
		CORSOrigins:    getEnvSliceWithYAML("API_CORS_ORIGINS", yamlConfig, "api.cors_origins", []string{"*"}),
		MaxRequestSize: getEnvInt64WithYAML("MAX_REQUEST_SIZE", yamlConfig, "api.max_request_size", 5<<20),
	}

	config.OpenAI = OpenAIConfig{
		APIKey:       strings.TrimSpace(getEnvWithYAML("OPENAI_API_KEY", yamlConfig, "openai.api_key", "")),
		Organization: strings.TrimSpace(getEnvWithYAML("OPENAI_ORG", yamlConfig, "openai.organization", "")),
		Project:      strings.TrimSpace(getEnvWithYAML("OPENAI_PROJECT", yamlConfig, "openai.project", "")),
		BaseURL:      getEnvWithYAML("OPENAI_BASE_URL", yamlConfig, "openai.base_url", "https://api.openai.com/v1"),
		Model:        getEnvWithYAML("OPENAI_MODEL", yamlConfig, "openai.model", "gpt-4.1-mini"),
		Temperature:  getEnvFloat64WithYAML("OPENAI_TEMPERATURE", yamlConfig, "openai.temperature", 0.7),
		MaxTokens:    getEnvIntWithYAML("OPENAI_MAX_TOKENS", yamlConfig, "openai.max_tokens", 700),
		Timeout:      time.Duration(getEnvIntWithYAML("OPENAI_TIMEOUT_MS", yamlConfig, "openai.timeout_ms", 7000)) * time.Millisecond,
	}

	config.Stylist = StylistConfig{
		Name:     getEnvWithYAML("STYLIST_NAME", yamlConfig, "stylist.name", "Mika"),
		Brand:    getEnvWithYAML("STYLIST_BRAND", yamlConfig, "stylist.brand", "Fermoza"),
		Region:   getEnvWithYAML("STYLIST_REGION", yamlConfig, "stylist.region", "Philippines"),
		Currency: getEnvWithYAML("STYLIST_CURRENCY", yamlConfig, "stylist.currency", "₱"),
	}

	config.Usage = UsageConfig{
		Store:         strings.ToLower(getEnvWithYAML("USAGE_STORE", yamlConfig, "usage.store", "memory")),
		RedisAddr:     getEnvWithYAML("REDIS_ADDR", yamlConfig, "usage.redis_addr", "localhost:6379"),
		RedisPassword: getEnvWithYAML("REDIS_PASSWORD", yamlConfig, "usage.redis_password", ""),
		RedisDB:       getEnvIntWithYAML("REDIS_DB", yamlConfig, "usage.redis_db", 0),
		TTLDays:       getEnvIntWithYAML("USAGE_TTL_DAYS", yamlConfig, "usage.ttl_days", 7),
	}

	return config
}

// NormalizeBase forces a leading slash and strips trailing ones. "/" and "" both
// become "".
func NormalizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadYAMLConfig(configDir string) map[string]interface{} {
	yamlConfig := make(map[string]interface{})

	appConfigPath := filepath.Join(configDir, "app_config.yaml")
	if data, err := os.ReadFile(appConfigPath); err == nil {
		var config map[string]interface{}
		if err := yaml.Unmarshal(data, &config); err == nil && config != nil {
			yamlConfig = config
		}
	}

	return yamlConfig
}

// getEnvWithYAML gets environment variable with YAML fallback
func getEnvWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		return yamlValue
	}

	return defaultValue
}

// parsedWithYAML walks env, then YAML, keeping the first value parse accepts.
// Unparsable values are skipped rather than zeroed.
func parsedWithYAML[T any](envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue T, parse func(string) (T, error)) T {
	for _, raw := range []string{os.Getenv(envKey), getYAMLValue(yamlConfig, yamlPath)} {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		if v, err := parse(raw); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvIntWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int) int {
	return parsedWithYAML(envKey, yamlConfig, yamlPath, defaultValue, strconv.Atoi)
}

func getEnvInt64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int64) int64 {
	return parsedWithYAML(envKey, yamlConfig, yamlPath, defaultValue, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func getEnvFloat64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue float64) float64 {
	return parsedWithYAML(envKey, yamlConfig, yamlPath, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// getEnvSliceWithYAML gets string slice environment variable with YAML fallback
func getEnvSliceWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue []string) []string {
	if value := os.Getenv(envKey); value != "" {
		// Split by comma for environment variable
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		return result
	}

	if yamlValue := getYAMLSlice(yamlConfig, yamlPath); yamlValue != nil {
		return yamlValue
	}

	return defaultValue
}

// getYAMLValue gets a scalar from YAML config using dot notation path. Numbers and
// booleans are returned in their textual form.
func getYAMLValue(config map[string]interface{}, path string) string {
	value, ok := lookupYAML(config, path)
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v)
	}
	return ""
}

// getYAMLSlice gets string slice from YAML config using dot notation path
func getYAMLSlice(config map[string]interface{}, path string) []string {
	value, ok := lookupYAML(config, path)
	if !ok {
		return nil
	}
	slice, ok := value.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(slice))
	for _, item := range slice {
		if str, ok := item.(string); ok {
			result = append(result, str)
		}
	}
	return result
}

func lookupYAML(config map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current := config

	for i, part := range parts {
		if i == len(parts)-1 {
			value, ok := current[part]
			return value, ok
		}

		next, ok := current[part].(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}
