package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from the process environment, loading an
// optional .env file first. Unset variables keep their current values.
func parseEnv(config *Config) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	setString(&config.DatabaseDSN, os.Getenv("DATABASE_DSN"))
	setString(&config.S3AccessKey, os.Getenv("S3_ACCESS_KEY"))
	setString(&config.S3SecretKey, os.Getenv("S3_SECRET_KEY"))
	setString(&config.S3Bucket, os.Getenv("S3_BUCKET"))
	setString(&config.S3Region, os.Getenv("S3_REGION"))
	setString(&config.S3BaseEndpoint, os.Getenv("S3_BASE_ENDPOINT"))

	if v := envInt("SWEEP_INTERVAL_SECONDS"); v > 0 {
		config.SweepInterval = time.Duration(v) * time.Second
	}
	if v := envInt("SWEEP_WORKERS"); v > 0 {
		config.SweepWorkers = v
	}
	if v := envInt("STORE_TIMEOUT_SECONDS"); v > 0 {
		config.StoreTimeout = time.Duration(v) * time.Second
	}
}

func envInt(name string) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0
	}
	return v
}
