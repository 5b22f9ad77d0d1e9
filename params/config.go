package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	Listen string // HTTP listen address
}

type Storage struct {
	DataDir string // pebble directory
}

type Persist struct {
	// QueueDepth is how many write-behind operations may be pending
	// before a mutation blocks on enqueue.
	QueueDepth int
	// Retries and Backoff bound how hard a failed durable write is
	// retried before it is logged and dropped.
	Retries int
	Backoff time.Duration
}

type Config struct {
	Server  Server
	Storage Storage
	Persist Persist
	LogFile string // empty = console only
}

func Default() Config {
	return Config{
		Server:  Server{Listen: ":3000"},
		Storage: Storage{DataDir: "data/book"},
		Persist: Persist{
			QueueDepth: 1024,
			Retries:    3,
			Backoff:    50 * time.Millisecond,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PERSIST_QUEUE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Persist.QueueDepth = n
		}
	}
	if v := os.Getenv("PERSIST_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Persist.Retries = n
		}
	}
	if v := os.Getenv("PERSIST_BACKOFF_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Persist.Backoff = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}
