package models

// Config represents application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	JWT      JWTConfig
	APIKey   APIKeyConfig
	Pricing  PricingConfig
	Match    MatchConfig
	Payment  PaymentConfig
	Logger   LoggerConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int // seconds
	WriteTimeout    int // seconds
	ShutdownTimeout int // seconds
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// APIKeyConfig contains keys accepted on internal service-to-service routes
type APIKeyConfig struct {
	InternalKey string
}

// PricingConfig contains fare calculation parameters. The cancellation fee
// thresholds live here rather than in the state machine so policy can be
// tuned without touching transition logic.
type PricingConfig struct {
	BaseFare              float64 `json:"base_fare"`
	PerKmRate             float64 `json:"per_km_rate"`
	PerMinuteRate         float64 `json:"per_minute_rate"`
	TaxRate               float64 `json:"tax_rate"`
	Currency              string  `json:"currency"`
	CancelFeeConfirmed    float64 `json:"cancel_fee_confirmed"`
	CancelFeeAccepted     float64 `json:"cancel_fee_accepted"`
	CancelFeeArrived      float64 `json:"cancel_fee_arrived"`
	AvgSpeedKmh           float64 `json:"avg_speed_kmh"`
}

// MatchConfig contains matcher specific configuration
type MatchConfig struct {
	SearchRadiusKm  float64 `json:"search_radius_km"`
	MaxAlternatives int     `json:"max_alternatives"`
	PoolLimit       int     `json:"pool_limit"`
}

// PaymentConfig contains settlement configuration
type PaymentConfig struct {
	ProviderTimeoutSec  int    `json:"provider_timeout_sec"`
	RateLimitAttempts   int    `json:"rate_limit_attempts"`
	RateLimitWindowSec  int    `json:"rate_limit_window_sec"`
	StripeAPIKey        string `json:"-"`
}

// LoggerConfig contains structured logging configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}
