package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port     string
	LogLevel string
	TenantID string
	Timezone string

	VonageJWT                 string
	GeospecificMessagesAPIURL string
	MessagesAPIURL            string
	VonageSenderID            string

	OpenAIKey        string
	ElevenLabsAPIKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StateTTL      time.Duration

	TrinksAPIKey            string
	TrinksEstabelecimentoID string
	TrinksBaseURL           string
	TrinksTimeout           time.Duration

	DatabaseURL string
	S3Bucket    string
	S3Region    string
	S3Prefix    string

	HistoryLimit  int
	ContextTurns  int
	BusinessHours string
}

// Load reads the environment, after an optional .env file, and exits when a
// required setting is missing.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TenantID: getEnv("TENANT_ID", "default"),
		Timezone: getEnv("TIMEZONE", "America/Araguaina"),

		VonageJWT:                 getEnv("VONAGE_JWT", ""),
		GeospecificMessagesAPIURL: getEnv("GEOSPECIFIC_MESSAGES_API_URL", "https://api-us.nexmo.com/v1/messages"),
		MessagesAPIURL:            getEnv("MESSAGES_API_URL", "https://api.nexmo.com/v1/messages"),
		VonageSenderID:            getEnv("VONAGE_SENDER_ID", ""),

		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StateTTL:      getEnvDuration("STATE_TTL", 30*24*time.Hour),

		TrinksAPIKey:            getEnv("TRINKS_API_KEY", ""),
		TrinksEstabelecimentoID: getEnv("TRINKS_ESTABELECIMENTO_ID", ""),
		TrinksBaseURL:           getEnv("TRINKS_BASE_URL", "https://api.trinks.com/v1"),
		TrinksTimeout:           getEnvDuration("TRINKS_TIMEOUT", 10*time.Second),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-2"),
		S3Prefix:    getEnv("S3_PREFIX", "booking-attempts"),

		HistoryLimit:  getEnvInt("HISTORY_LIMIT", 20),
		ContextTurns:  getEnvInt("CONTEXT_TURNS", 8),
		BusinessHours: getEnv("BUSINESS_HOURS", "Funcionamos de terça a sábado, das 9h às 19h."),
	}

	required := map[string]string{
		"VONAGE_JWT":                cfg.VonageJWT,
		"VONAGE_SENDER_ID":          cfg.VonageSenderID,
		"OPENAI_API_KEY":            cfg.OpenAIKey,
		"TRINKS_API_KEY":            cfg.TrinksAPIKey,
		"TRINKS_ESTABELECIMENTO_ID": cfg.TrinksEstabelecimentoID,
	}
	for name, value := range required {
		if value == "" {
			log.Fatal().Str("variable", name).Msg("Required environment variable is not set")
		}
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC-3 when the tz database is
// not available in the image.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.Timezone).Msg("Unknown timezone, using UTC-3")
		return time.FixedZone("UTC-3", -3*60*60)
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("variable", key).Str("value", value).Msg("Invalid duration, using default")
	}
	return defaultValue
}
