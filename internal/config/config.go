package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Oracle    OracleConfig
	Engine    EngineConfig
	Tesseract TesseractConfig
	Vocab     VocabConfig
	S3        S3Config
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string
	Port            int
	StaticDir       string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-related configuration. An empty URL disables
// audit persistence.
type DatabaseConfig struct {
	URL             string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// OracleConfig selects and configures the text/vision model provider. An
// empty APIKey puts the service in mock mode.
type OracleConfig struct {
	Provider    string // "openai" or "gemini"
	APIKey      string
	BaseURL     string
	VisionModel string
	OCRModel    string
	ChatModel   string
	GeminiModel string
	Timeout     time.Duration
	MockLatency time.Duration
}

// EngineConfig tunes receipt audits and item identification.
type EngineConfig struct {
	OCREngine         string // "oracle" or "tesseract"
	Reconciler        string // "oracle" or "heuristic"
	MinReceiptChars   int
	AuditQueueSize    int
	AuditWorkers      int
	AuditWriteTimeout time.Duration
}

// TesseractConfig configures the local OCR engine.
type TesseractConfig struct {
	Binary   string
	Language string
	PSM      int // page segmentation mode; 0 leaves tesseract's default
}

// VocabConfig lists the qualifier word lists used by the name matcher.
type VocabConfig struct {
	Files []string
}

// S3Config holds AWS S3 configuration for vocabulary files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "vocab/")
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", getEnvAsInt("PORT", 5000)),
			StaticDir:       getEnv("STATIC_DIR", "./client"),
			MaxBodyBytes:    int64(getEnvAsInt("MAX_BODY_BYTES", 50<<20)),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Oracle: OracleConfig{
			Provider:    strings.ToLower(getEnv("ORACLE_PROVIDER", "openai")),
			APIKey:      getEnv("ORACLE_API_KEY", getEnv("DEEPSEEK_API_KEY", "")),
			BaseURL:     getEnv("ORACLE_BASE_URL", "https://api.deepseek.com"),
			VisionModel: getEnv("ORACLE_VISION_MODEL", "deepseek-vl"),
			OCRModel:    getEnv("ORACLE_OCR_MODEL", "deepseek-ocr"),
			ChatModel:   getEnv("ORACLE_CHAT_MODEL", "deepseek-chat"),
			GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:     getEnvAsDuration("ORACLE_TIMEOUT", 30*time.Second),
			MockLatency: getEnvAsDuration("ORACLE_MOCK_LATENCY", 1500*time.Millisecond),
		},
		Engine: EngineConfig{
			OCREngine:         strings.ToLower(getEnv("OCR_ENGINE", "oracle")),
			Reconciler:        strings.ToLower(getEnv("RECONCILER", "oracle")),
			MinReceiptChars:   getEnvAsInt("MIN_RECEIPT_CHARS", 3),
			AuditQueueSize:    getEnvAsInt("AUDIT_QUEUE_SIZE", 64),
			AuditWorkers:      getEnvAsInt("AUDIT_WORKERS", 2),
			AuditWriteTimeout: getEnvAsDuration("AUDIT_WRITE_TIMEOUT", 5*time.Second),
		},
		Tesseract: TesseractConfig{
			Binary:   getEnv("TESSERACT_BIN", "tesseract"),
			Language: getEnv("TESSERACT_LANG", "eng"),
			PSM:      getEnvAsInt("TESSERACT_PSM", 0),
		},
		Vocab: VocabConfig{
			Files: getEnvAsList("VOCAB_FILES"),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "vocab/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("max body bytes must be positive")
	}

	if c.Database.Enabled() {
		if c.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be at least 1")
		}
		if c.Database.MinConnections < 0 {
			return fmt.Errorf("database min connections cannot be negative")
		}
		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database min connections cannot exceed max connections")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Oracle.Provider != "openai" && c.Oracle.Provider != "gemini" {
		return fmt.Errorf("invalid oracle provider: %s (must be openai or gemini)", c.Oracle.Provider)
	}

	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive")
	}

	if c.Oracle.MockLatency < 0 {
		return fmt.Errorf("oracle mock latency cannot be negative")
	}

	if c.Engine.OCREngine != "oracle" && c.Engine.OCREngine != "tesseract" {
		return fmt.Errorf("invalid OCR engine: %s (must be oracle or tesseract)", c.Engine.OCREngine)
	}

	if c.Engine.Reconciler != "oracle" && c.Engine.Reconciler != "heuristic" {
		return fmt.Errorf("invalid reconciler: %s (must be oracle or heuristic)", c.Engine.Reconciler)
	}

	if c.Engine.MinReceiptChars < 1 {
		return fmt.Errorf("min receipt chars must be at least 1")
	}

	if c.Engine.AuditQueueSize < 1 {
		return fmt.Errorf("audit queue size must be at least 1")
	}

	if c.Engine.AuditWorkers < 1 {
		return fmt.Errorf("audit workers must be at least 1")
	}

	if c.Engine.AuditWriteTimeout <= 0 {
		return fmt.Errorf("audit write timeout must be positive")
	}

	if c.Tesseract.PSM < 0 || c.Tesseract.PSM > 13 {
		return fmt.Errorf("invalid tesseract page segmentation mode: %d", c.Tesseract.PSM)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// Enabled reports whether audit persistence is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// Live reports whether a real oracle credential is configured.
func (c *OracleConfig) Live() bool {
	return c.APIKey != ""
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("1500ms", "30s").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
