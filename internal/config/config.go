package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Region       string        `mapstructure:"region"`
	Bucket       string        `mapstructure:"bucket"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
}

// LLMConfig holds OCR / extraction vendor configuration
type LLMConfig struct {
	OCRURL         string        `mapstructure:"ocr_url"`
	OCRAPIKey      string        `mapstructure:"ocr_api_key"`
	OCRModel       string        `mapstructure:"ocr_model"`
	OCRModelFree   string        `mapstructure:"ocr_model_free"`
	ExtractURL     string        `mapstructure:"extract_url"`
	ExtractAPIKey  string        `mapstructure:"extract_api_key"`
	ExtractModel   string        `mapstructure:"extract_model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// EncryptionConfig holds the field-level encryption key
type EncryptionConfig struct {
	Key string `mapstructure:"key"`
}

// PipelineConfig holds processing deadlines
type PipelineConfig struct {
	EmailTimeout     time.Duration `mapstructure:"email_timeout"`
	CandidateTimeout time.Duration `mapstructure:"candidate_timeout"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	// Webhook requests block for the whole pipeline run, so the write
	// deadline must outlast the per-email deadline.
	viper.SetDefault("server.write_timeout", "16m")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.bucket", "lazy-receipt")
	viper.SetDefault("storage.signed_url_ttl", "24h")

	viper.SetDefault("llm.ocr_url", "https://openrouter.ai/api/v1/chat/completions")
	viper.SetDefault("llm.extract_url", "https://api.deepseek.com/chat/completions")
	viper.SetDefault("llm.extract_model", "deepseek-chat")
	viper.SetDefault("llm.request_timeout", "120s")

	viper.SetDefault("pipeline.email_timeout", "15m")
	viper.SetDefault("pipeline.candidate_timeout", "5m")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Storage
	viper.BindEnv("storage.region", "AWS_REGION")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	viper.BindEnv("storage.signed_url_ttl", "STORAGE_SIGNED_URL_TTL")

	// LLM
	viper.BindEnv("llm.ocr_url", "OPENROUTER_URL")
	viper.BindEnv("llm.ocr_api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("llm.ocr_model", "MODEL")
	viper.BindEnv("llm.ocr_model_free", "MODEL_FREE")
	viper.BindEnv("llm.extract_url", "DEEPSEEK_URL")
	viper.BindEnv("llm.extract_api_key", "DEEPSEEK_API_KEY")
	viper.BindEnv("llm.extract_model", "DEEPSEEK_MODEL")
	viper.BindEnv("llm.request_timeout", "LLM_REQUEST_TIMEOUT")

	// Encryption
	viper.BindEnv("encryption.key", "ENCRYPTION_KEY")

	// Pipeline
	viper.BindEnv("pipeline.email_timeout", "PIPELINE_EMAIL_TIMEOUT")
	viper.BindEnv("pipeline.candidate_timeout", "PIPELINE_CANDIDATE_TIMEOUT")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	if c.LLM.OCRAPIKey == "" || c.LLM.ExtractAPIKey == "" {
		return fmt.Errorf("OCR and extraction API keys are required")
	}

	if c.LLM.OCRModel == "" || c.LLM.OCRModelFree == "" {
		return fmt.Errorf("both OCR model tiers are required")
	}

	if c.Encryption.Key == "" {
		return fmt.Errorf("encryption key is required")
	}

	if c.Pipeline.EmailTimeout <= 0 || c.Pipeline.CandidateTimeout <= 0 {
		return fmt.Errorf("pipeline timeouts must be greater than 0")
	}

	return nil
}
