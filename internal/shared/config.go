package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver string
	MySQLDSN      string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	CatalogBase string
	CatalogKey  string
	CatalogRPS  int
	SeedWorkers int
	SeedHotels  []int64

	AMQPURL   string
	AMQPQueue string

	DefaultTotalRooms int
}

// Load reads the environment, after merging a .env file when one is present.
// Variables already set in the environment win over .env entries.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       metricsAddr(),
		StorageDriver:     strings.ToLower(env("STORAGE_DRIVER", StorageMySQL)),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/travel?parseTime=true&clientFoundRows=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		CatalogBase:       os.Getenv("CATALOG_BASE_URL"),
		CatalogKey:        env("CATALOG_API_KEY", ""),
		CatalogRPS:        atoi("CATALOG_RPS", 5),
		SeedWorkers:       atoi("SEED_WORKERS", 8),
		SeedHotels:        parseIDs(env("SEED_HOTEL_IDS", "")),
		AMQPURL:           os.Getenv("AMQP_URL"),
		AMQPQueue:         env("AMQP_QUEUE", "booking.events"),
		DefaultTotalRooms: atoi("DEFAULT_TOTAL_ROOMS", 20),
	}
	if c.StorageDriver != StorageMySQL && c.StorageDriver != StorageMemory {
		log.Warn().Str("driver", c.StorageDriver).Msg("unknown STORAGE_DRIVER, using mysql")
		c.StorageDriver = StorageMySQL
	}
	if c.SeedWorkers <= 0 {
		c.SeedWorkers = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// metricsAddr defaults to a separate :9100 listener. Setting METRICS_ADDR to
// an empty value serves /metrics on the API router instead.
func metricsAddr() string {
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		return strings.TrimSpace(v)
	}
	return ":9100"
}

// parseIDs reads a comma separated id list, skipping blanks and garbage.
func parseIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			log.Warn().Str("value", part).Msg("skipping invalid hotel id")
			continue
		}
		out = append(out, id)
	}
	return out
}
