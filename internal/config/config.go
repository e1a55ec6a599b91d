package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // DATED_VALUES_DATABASE_URL (required)
	GRPCAddr    string // DATED_VALUES_GRPC_ADDR (default ":9090"; empty = no gRPC listener)
	HTTPAddr    string // DATED_VALUES_HTTP_ADDR (default ":8080")
	NATSURL     string // DATED_VALUES_NATS_URL (optional, empty = no events)
	AuthToken   string // DATED_VALUES_AUTH_TOKEN (optional, empty = token auth disabled)

	TrustProxyHeaders bool   // DATED_VALUES_TRUST_PROXY_HEADERS (accept X-Forwarded-User)
	LoginURL          string // DATED_VALUES_LOGIN_URL (redirect target when access is denied)
	SettingsPath      string // DATED_VALUES_SETTINGS (TOML settings file; default under the config dir)

	// Sync settings
	SyncInterval   time.Duration // DATED_VALUES_SYNC_INTERVAL (default 1h; 0 = disabled)
	SyncS3Bucket   string        // DATED_VALUES_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // DATED_VALUES_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // DATED_VALUES_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // DATED_VALUES_SYNC_S3_KEY (strftime pattern, default "datedvalues/backup.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("DATED_VALUES_DATABASE_URL"),
		GRPCAddr:       lookupOrDefault("DATED_VALUES_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("DATED_VALUES_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("DATED_VALUES_NATS_URL"),
		AuthToken:      os.Getenv("DATED_VALUES_AUTH_TOKEN"),
		LoginURL:       os.Getenv("DATED_VALUES_LOGIN_URL"),
		SettingsPath:   envOrDefault("DATED_VALUES_SETTINGS", SettingsPath()),
		SyncS3Bucket:   os.Getenv("DATED_VALUES_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("DATED_VALUES_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("DATED_VALUES_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("DATED_VALUES_SYNC_S3_KEY", "datedvalues/backup.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATED_VALUES_DATABASE_URL is required")
	}

	if v := os.Getenv("DATED_VALUES_TRUST_PROXY_HEADERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DATED_VALUES_TRUST_PROXY_HEADERS: %w", err)
		}
		c.TrustProxyHeaders = b
	}

	intervalStr := envOrDefault("DATED_VALUES_SYNC_INTERVAL", "1h")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("DATED_VALUES_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// lookupOrDefault is like envOrDefault but honors a variable that is set to
// the empty string.
func lookupOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
