package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort   string
	OrdersFile string
	StateDir   string
	RemoteURL  string

	// SyncInterval drives the manager's background pull; RefreshInterval
	// drives the cashier screen's re-fetch.
	SyncInterval    time.Duration
	RefreshInterval time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads the environment, picking up a .env from the working
// directory or its parents when present.
func Load() Config {
	loadEnv()

	return Config{
		HTTPPort:        getEnv("HTTP_PORT", "5175"),
		OrdersFile:      getEnv("ORDERS_FILE", "orders.json"),
		StateDir:        getEnv("STATE_DIR", ".orderhub"),
		RemoteURL:       getEnv("REMOTE_URL", "http://localhost:5175"),
		SyncInterval:    getDuration("SYNC_INTERVAL", 5*time.Second),
		RefreshInterval: getDuration("REFRESH_INTERVAL", 3*time.Second),
		KafkaBrokers:    getList("KAFKA_BROKERS"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "order-audit"),
	}
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			return
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
