package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Scratch ScratchConfig
	Staging StagingConfig
	OCR     OCRConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// CORSConfig holds CORS settings. Origins are matched exactly, patterns as regular expressions.
type CORSConfig struct {
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowedOriginPatterns []string `mapstructure:"allowed_origin_patterns"`
}

// ScratchConfig holds local temporary file settings.
type ScratchConfig struct {
	Dir         string `mapstructure:"dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (s *ScratchConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB * 1024 * 1024
}

// StagingConfig selects and configures the remote store documents are staged to.
type StagingConfig struct {
	Provider    string           `mapstructure:"provider"`
	TimeoutSecs int              `mapstructure:"timeout_secs"`
	Cloudinary  CloudinaryConfig `mapstructure:"cloudinary"`
	S3          S3Config         `mapstructure:"s3"`
	GCS         GCSConfig        `mapstructure:"gcs"`
}

// Timeout returns the outbound staging call timeout.
func (s *StagingConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// CloudinaryConfig holds unsigned Cloudinary upload settings.
type CloudinaryConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	CloudName    string `mapstructure:"cloud_name"`
	UploadPreset string `mapstructure:"upload_preset"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Prefix          string `mapstructure:"prefix"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	SignedURLExpiry int64  `mapstructure:"signed_url_expiry"`
}

// OCRConfig holds OCR provider settings.
type OCRConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Endpoint    string `mapstructure:"endpoint"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Load reads configuration from environment variables with the PAPERTRUST_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAPERTRUST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.environment", "development")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", "https://papertotrust.web.app")
	v.SetDefault("cors.allowed_origin_patterns", `^http://localhost:\d+$`)

	// Scratch defaults
	v.SetDefault("scratch.dir", filepath.Join(os.TempDir(), "papertrust"))
	v.SetDefault("scratch.max_upload_mb", 20)

	// Staging defaults
	v.SetDefault("staging.provider", "cloudinary")
	v.SetDefault("staging.timeout_secs", 60)
	v.SetDefault("staging.cloudinary.base_url", "https://api.cloudinary.com/v1_1")
	v.SetDefault("staging.cloudinary.cloud_name", "dj1wdo0uh")
	v.SetDefault("staging.cloudinary.upload_preset", "papertrust")
	v.SetDefault("staging.s3.region", "us-east-1")
	v.SetDefault("staging.s3.bucket", "papertrust-staging")
	v.SetDefault("staging.s3.endpoint", "")
	v.SetDefault("staging.s3.prefix", "staging")
	v.SetDefault("staging.s3.public_base_url", "")
	v.SetDefault("staging.s3.presign_expiry", 3600)
	v.SetDefault("staging.gcs.bucket", "papertrust-staging")
	v.SetDefault("staging.gcs.endpoint", "")
	v.SetDefault("staging.gcs.credentials_file", "")
	v.SetDefault("staging.gcs.prefix", "staging")
	v.SetDefault("staging.gcs.public_base_url", "")
	v.SetDefault("staging.gcs.signed_url_expiry", 3600)

	// OCR defaults
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.endpoint", "https://api.mistral.ai/v1/ocr")
	v.SetDefault("ocr.model", "mistral-ocr-latest")
	v.SetDefault("ocr.timeout_secs", 120)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "PAPERTRUST_SERVER_PORT",
		"server.read_timeout":               "PAPERTRUST_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "PAPERTRUST_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":           "PAPERTRUST_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":                "PAPERTRUST_SERVER_ENVIRONMENT",
		"cors.allowed_origins":              "PAPERTRUST_CORS_ALLOWED_ORIGINS",
		"cors.allowed_origin_patterns":      "PAPERTRUST_CORS_ALLOWED_ORIGIN_PATTERNS",
		"scratch.dir":                       "PAPERTRUST_SCRATCH_DIR",
		"scratch.max_upload_mb":             "PAPERTRUST_SCRATCH_MAX_UPLOAD_MB",
		"staging.provider":                  "PAPERTRUST_STAGING_PROVIDER",
		"staging.timeout_secs":              "PAPERTRUST_STAGING_TIMEOUT_SECS",
		"staging.cloudinary.base_url":       "PAPERTRUST_STAGING_CLOUDINARY_BASE_URL",
		"staging.cloudinary.cloud_name":     "PAPERTRUST_STAGING_CLOUDINARY_CLOUD_NAME",
		"staging.cloudinary.upload_preset":  "PAPERTRUST_STAGING_CLOUDINARY_UPLOAD_PRESET",
		"staging.s3.region":                 "PAPERTRUST_STAGING_S3_REGION",
		"staging.s3.bucket":                 "PAPERTRUST_STAGING_S3_BUCKET",
		"staging.s3.endpoint":               "PAPERTRUST_STAGING_S3_ENDPOINT",
		"staging.s3.access_key":             "PAPERTRUST_STAGING_S3_ACCESS_KEY",
		"staging.s3.secret_key":             "PAPERTRUST_STAGING_S3_SECRET_KEY",
		"staging.s3.prefix":                 "PAPERTRUST_STAGING_S3_PREFIX",
		"staging.s3.public_base_url":        "PAPERTRUST_STAGING_S3_PUBLIC_BASE_URL",
		"staging.s3.presign_expiry":         "PAPERTRUST_STAGING_S3_PRESIGN_EXPIRY",
		"staging.gcs.bucket":                "PAPERTRUST_STAGING_GCS_BUCKET",
		"staging.gcs.endpoint":              "PAPERTRUST_STAGING_GCS_ENDPOINT",
		"staging.gcs.credentials_file":      "PAPERTRUST_STAGING_GCS_CREDENTIALS_FILE",
		"staging.gcs.prefix":                "PAPERTRUST_STAGING_GCS_PREFIX",
		"staging.gcs.public_base_url":       "PAPERTRUST_STAGING_GCS_PUBLIC_BASE_URL",
		"staging.gcs.signed_url_expiry":     "PAPERTRUST_STAGING_GCS_SIGNED_URL_EXPIRY",
		"ocr.api_key":                       "PAPERTRUST_OCR_API_KEY",
		"ocr.endpoint":                      "PAPERTRUST_OCR_ENDPOINT",
		"ocr.model":                         "PAPERTRUST_OCR_MODEL",
		"ocr.timeout_secs":                  "PAPERTRUST_OCR_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// Fall back to the provider-conventional MISTRAL_API_KEY when the prefixed key is unset.
	if v.GetString("ocr.api_key") == "" {
		if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
			v.Set("ocr.api_key", key)
		}
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PAPERTRUST_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PAPERTRUST_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins:        splitList(v.GetString("cors.allowed_origins")),
		AllowedOriginPatterns: splitList(v.GetString("cors.allowed_origin_patterns")),
	}
	cfg.Scratch = ScratchConfig{
		Dir:         v.GetString("scratch.dir"),
		MaxUploadMB: v.GetInt64("scratch.max_upload_mb"),
	}
	cfg.Staging = StagingConfig{
		Provider:    strings.ToLower(v.GetString("staging.provider")),
		TimeoutSecs: v.GetInt("staging.timeout_secs"),
		Cloudinary: CloudinaryConfig{
			BaseURL:      strings.TrimRight(v.GetString("staging.cloudinary.base_url"), "/"),
			CloudName:    v.GetString("staging.cloudinary.cloud_name"),
			UploadPreset: v.GetString("staging.cloudinary.upload_preset"),
		},
		S3: S3Config{
			Region:        v.GetString("staging.s3.region"),
			Bucket:        v.GetString("staging.s3.bucket"),
			Endpoint:      v.GetString("staging.s3.endpoint"),
			AccessKey:     v.GetString("staging.s3.access_key"),
			SecretKey:     v.GetString("staging.s3.secret_key"),
			Prefix:        v.GetString("staging.s3.prefix"),
			PublicBaseURL: strings.TrimRight(v.GetString("staging.s3.public_base_url"), "/"),
			PresignExpiry: v.GetInt64("staging.s3.presign_expiry"),
		},
		GCS: GCSConfig{
			Bucket:          v.GetString("staging.gcs.bucket"),
			Endpoint:        strings.TrimRight(v.GetString("staging.gcs.endpoint"), "/"),
			CredentialsFile: v.GetString("staging.gcs.credentials_file"),
			Prefix:          v.GetString("staging.gcs.prefix"),
			PublicBaseURL:   strings.TrimRight(v.GetString("staging.gcs.public_base_url"), "/"),
			SignedURLExpiry: v.GetInt64("staging.gcs.signed_url_expiry"),
		},
	}
	cfg.OCR = OCRConfig{
		APIKey:      v.GetString("ocr.api_key"),
		Endpoint:    v.GetString("ocr.endpoint"),
		Model:       v.GetString("ocr.model"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot produce a working server.
// A missing OCR credential is reported by the OCR client itself.
func (c *Config) Validate() error {
	if c.Scratch.Dir == "" {
		return fmt.Errorf("scratch.dir must be set")
	}
	if c.Scratch.MaxUploadMB <= 0 {
		return fmt.Errorf("scratch.max_upload_mb must be positive, got %d", c.Scratch.MaxUploadMB)
	}
	switch c.Staging.Provider {
	case "cloudinary":
		if c.Staging.Cloudinary.CloudName == "" || c.Staging.Cloudinary.UploadPreset == "" {
			return fmt.Errorf("staging.cloudinary.cloud_name and upload_preset must be set")
		}
	case "s3":
		if c.Staging.S3.Bucket == "" {
			return fmt.Errorf("staging.s3.bucket must be set")
		}
	case "gcs":
		if c.Staging.GCS.Bucket == "" {
			return fmt.Errorf("staging.gcs.bucket must be set")
		}
	default:
		return fmt.Errorf("unknown staging provider: %q", c.Staging.Provider)
	}
	if c.OCR.Endpoint == "" || c.OCR.Model == "" {
		return fmt.Errorf("ocr.endpoint and ocr.model must be set")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
