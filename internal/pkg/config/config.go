package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// InitConfig loads configuration from environment variables, optionally
// seeded from a local .env file when APP_ENV=local.
func InitConfig(configPath string) *models.Config {
	local := GetEnv("APP_ENV", "local")
	if local == "local" {
		err := godotenv.Load(configPath)
		if err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "dispatch-engine")
	configs.App.Environment = GetEnv("APP_ENV", "")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 9990)
	configs.Server.ReadTimeout = GetEnvAsInt("SERVER_READ_TIMEOUT", 10)
	configs.Server.WriteTimeout = GetEnvAsInt("SERVER_WRITE_TIMEOUT", 10)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 15)

	// Database config
	configs.Database.Host = GetEnv("DB_HOST", "localhost")
	configs.Database.Port = GetEnvAsInt("DB_PORT", 5432)
	configs.Database.Username = GetEnv("DB_USERNAME", "")
	configs.Database.Password = GetEnv("DB_PASSWORD", "")
	configs.Database.Database = GetEnv("DB_DATABASE", "jalur")
	configs.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 10)
	configs.Database.IdleConns = GetEnvAsInt("DB_IDLE_CONNS", 2)

	// Redis config
	configs.Redis.Host = GetEnv("REDIS_HOST", "localhost")
	configs.Redis.Port = GetEnvAsInt("REDIS_PORT", 6379)
	configs.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = GetEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = GetEnvAsInt("REDIS_POOL_SIZE", 10)

	// NATS config
	configs.NATS.URL = GetEnv("NATS_URL", "nats://localhost:4222")

	// JWT config
	configs.JWT.Secret = GetEnv("JWT_SECRET", "")
	configs.JWT.Expiration = GetEnvAsInt("JWT_EXPIRATION", 60)
	configs.JWT.Issuer = GetEnv("JWT_ISSUER", "jalur")

	// Internal API key
	configs.APIKey.InternalKey = GetEnv("INTERNAL_API_KEY", "")

	// Pricing config
	configs.Pricing.BaseFare = GetEnvAsFloat("PRICING_BASE_FARE", 2.50)
	configs.Pricing.PerKmRate = GetEnvAsFloat("PRICING_PER_KM_RATE", 1.25)
	configs.Pricing.PerMinuteRate = GetEnvAsFloat("PRICING_PER_MINUTE_RATE", 0.35)
	configs.Pricing.TaxRate = GetEnvAsFloat("PRICING_TAX_RATE", 0.08)
	configs.Pricing.Currency = GetEnv("PRICING_CURRENCY", "USD")
	configs.Pricing.CancelFeeConfirmed = GetEnvAsFloat("PRICING_CANCEL_FEE_CONFIRMED", 2.50)
	configs.Pricing.CancelFeeAccepted = GetEnvAsFloat("PRICING_CANCEL_FEE_ACCEPTED", 2.50)
	configs.Pricing.CancelFeeArrived = GetEnvAsFloat("PRICING_CANCEL_FEE_ARRIVED", 5.00)
	configs.Pricing.AvgSpeedKmh = GetEnvAsFloat("PRICING_AVG_SPEED_KMH", 25)

	// Match config
	configs.Match.SearchRadiusKm = GetEnvAsFloat("MATCH_SEARCH_RADIUS_KM", 15.0)
	configs.Match.MaxAlternatives = GetEnvAsInt("MATCH_MAX_ALTERNATIVES", 2)
	configs.Match.PoolLimit = GetEnvAsInt("MATCH_POOL_LIMIT", 50)

	// Payment config
	configs.Payment.ProviderTimeoutSec = GetEnvAsInt("PAYMENT_PROVIDER_TIMEOUT", 10)
	configs.Payment.RateLimitAttempts = GetEnvAsInt("PAYMENT_RATE_LIMIT_ATTEMPTS", 5)
	configs.Payment.RateLimitWindowSec = GetEnvAsInt("PAYMENT_RATE_LIMIT_WINDOW", 60)
	configs.Payment.StripeAPIKey = GetEnv("STRIPE_API_KEY", "")

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "")

	return configs
}

// Helper functions to get environment variables with different types
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}
