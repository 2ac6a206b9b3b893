// README: Config loader with env defaults for HTTP, DB, Redis, Google Maps, Twilio and conversation settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type ConversationConfig struct {
	// MaxRetries caps consecutive invalid inputs in one state; 0 disables the cap.
	MaxRetries int
	TooFarKm   float64
	LockTTL    time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // text|json
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey   string
		CacheTTL time.Duration
	}
	Twilio struct {
		AccountSID        string
		AuthToken         string
		FromNumber        string
		ValidateSignature bool
		PublicURL         string
		VoiceAction       string
	}
	AI struct {
		GeminiKey string
	}
	Conversation ConversationConfig
	Logging      LoggingConfig
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("RIDESAFE_HTTP_ADDR", ":5001")
	cfg.DB.DSN = os.Getenv("RIDESAFE_DB_DSN")
	cfg.Redis.Addr = os.Getenv("RIDESAFE_REDIS_ADDR")

	cfg.Maps.APIKey = os.Getenv("GEOCODING_API_KEY")
	cfg.Maps.CacheTTL = envOrDefaultDuration("RIDESAFE_GEOCODE_CACHE_TTL", 30*24*time.Hour)

	cfg.Twilio.AccountSID = firstNonEmpty(os.Getenv("TWILIO_SID"), os.Getenv("TWILIO_ACCOUNT_SID"))
	cfg.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Twilio.FromNumber = os.Getenv("TWILIO_PHONE_NUMBER")
	cfg.Twilio.ValidateSignature = envOrDefaultBool("RIDESAFE_VALIDATE_SIGNATURE", false)
	cfg.Twilio.PublicURL = strings.TrimSuffix(os.Getenv("RIDESAFE_PUBLIC_URL"), "/")
	cfg.Twilio.VoiceAction = envOrDefault("RIDESAFE_VOICE_ACTION", "/voice")

	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")

	cfg.Conversation.MaxRetries = envOrDefaultInt("RIDESAFE_MAX_RETRIES", 0)
	cfg.Conversation.TooFarKm = envOrDefaultFloat("RIDESAFE_TOO_FAR_KM", 50)
	cfg.Conversation.LockTTL = envOrDefaultDuration("RIDESAFE_LOCK_TTL", 30*time.Second)

	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.Logging.Format = envOrDefault("LOG_FORMAT", "text")

	if cfg.Conversation.MaxRetries < 0 {
		return Config{}, errors.New("RIDESAFE_MAX_RETRIES must not be negative")
	}
	if cfg.Twilio.ValidateSignature && cfg.Twilio.AuthToken == "" {
		return Config{}, errors.New("RIDESAFE_VALIDATE_SIGNATURE requires TWILIO_AUTH_TOKEN")
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
