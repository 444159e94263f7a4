package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"db_path" yaml:"db_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	UploadDir      string `mapstructure:"upload_dir" yaml:"upload_dir"`
	PublicBaseURL  string `mapstructure:"public_base_url" yaml:"public_base_url"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	EnrichmentBaseURL string        `mapstructure:"enrichment_base_url" yaml:"enrichment_base_url"`
	EnrichmentTimeout time.Duration `mapstructure:"enrichment_timeout" yaml:"enrichment_timeout"`

	TypingTTL      time.Duration `mapstructure:"typing_ttl" yaml:"typing_ttl"`
	HistoryLimit   int           `mapstructure:"history_limit" yaml:"history_limit"`
	AboutMaxLen    int           `mapstructure:"about_max_len" yaml:"about_max_len"`
	BootstrapAdmin string        `mapstructure:"bootstrap_admin" yaml:"bootstrap_admin"`

	WSMsgsPerMinute int `mapstructure:"ws_msgs_per_minute" yaml:"ws_msgs_per_minute"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "relaychat.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "relaychat",
		JWTAudience:       "relaychat-client",
		JWTTTL:            24 * time.Hour,
		UploadDir:         "uploads",
		PublicBaseURL:     "",
		MaxUploadBytes:    8 << 20,
		EnrichmentBaseURL: "",
		EnrichmentTimeout: 2 * time.Second,
		TypingTTL:         3 * time.Second,
		HistoryLimit:      50,
		AboutMaxLen:       300,
		WSMsgsPerMinute:   240,
	}
}
