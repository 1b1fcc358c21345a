package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Config is built once in main and passed into constructors; nothing reads
// the environment ad hoc after startup.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	StoreURL    string // base URL of the REST-fronted relational store
	StoreKey    string // service-role key
	MongoURI    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	DedupWindow time.Duration // identifier tolerance window
	ReadLimit   int           // rows fetched before the read-time filter
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8001"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		StoreURL:    env("STORE_URL", ""),
		StoreKey:    env("STORE_SERVICE_ROLE_KEY", ""),
		MongoURI:    env("MONGO_URL", "mongodb://localhost:27017"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		DedupWindow: time.Duration(atoi("DEDUP_WINDOW_SECONDS", 60)) * time.Second,
		ReadLimit:   atoi("REVIEW_READ_LIMIT", 100),
	}
	if c.StoreURL == "" || c.StoreKey == "" {
		log.Warn().Msg("STORE_URL/STORE_SERVICE_ROLE_KEY not set; review persistence disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
