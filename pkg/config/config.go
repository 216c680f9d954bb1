package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
// 전략 파라미터(윈도우, 임계값, 자본)는 internal/strategyconfig YAML에서 관리
type Config struct {
	Env string // development, staging, production

	// Paths
	StrategyConfig string // 전략 YAML 경로 (비어 있으면 기본 전략)
	DataDir        string // 입력 CSV 기본 디렉터리
	OutputDir      string // 산출물 디렉터리

	// Logging
	LogLevel  string
	LogFormat string // json | console | pretty
	LogOutput string // stderr | stdout

	// Charts
	ChartsEnabled bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		StrategyConfig: getEnv("STRATEGY_CONFIG", ""),
		DataDir:        getEnv("DATA_DIR", "."),
		OutputDir:      getEnv("OUTPUT_DIR", "output"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),

		ChartsEnabled: getEnvAsBool("CHARTS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ResolveDataPath joins a relative input path onto DataDir
func (c *Config) ResolveDataPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch strings.ToLower(c.LogOutput) {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("LOG_OUTPUT must be one of: stderr, stdout")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
