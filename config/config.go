package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ServiceAccountCredential holds the warehouse service account identity.
// Loaded once at startup; the private key is never logged or persisted.
type ServiceAccountCredential struct {
	ClientEmail   string
	PrivateKeyPEM []byte
	TokenURI      string
	ProjectID     string
}

type Config struct {
	Port string

	DatabaseURL string

	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDB       string
	ClickHouseUser     string
	ClickHousePassword string

	SessionSecret string

	WarehouseBaseURL string
	WarehouseDataset string
	WarehouseTable   string
	Credential       ServiceAccountCredential

	// MaxRowLimit caps the per-request row limit regardless of what the
	// client asks for.
	MaxRowLimit int

	// FallbackEntityIDs is the known-entity set substituted when an
	// organization has no approved entities yet.
	FallbackEntityIDs []string

	DataSource string
}

// defaultFallbackEntities are the client apps every tenant is known to track.
var defaultFallbackEntities = []string{
	"284882215",
	"389801252",
	"544007664",
	"310633997",
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        envOr("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ClickHouseHost:     os.Getenv("CLICKHOUSE_HOST"),
		ClickHouseDB:       os.Getenv("CLICKHOUSE_DB_NAME"),
		ClickHouseUser:     os.Getenv("CLICKHOUSE_USERNAME"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),

		SessionSecret: os.Getenv("SESSION_SECRET_KEY"),

		WarehouseBaseURL: envOr("WAREHOUSE_BASE_URL", "https://bigquery.googleapis.com/bigquery/v2"),
		WarehouseDataset: envOr("WAREHOUSE_DATASET", "aso_analytics"),
		WarehouseTable:   envOr("WAREHOUSE_TABLE", "search_traffic_daily"),

		DataSource: envOr("APPROVAL_DATA_SOURCE", "app_store_connect"),
	}

	if portStr := os.Getenv("CLICKHOUSE_NATIVE_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid CLICKHOUSE_NATIVE_PORT: %w", err)
		}
		cfg.ClickHousePort = p
	}

	cfg.MaxRowLimit = 1000
	if v := os.Getenv("MAX_ROW_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_ROW_LIMIT: %q", v)
		}
		cfg.MaxRowLimit = n
	}

	cfg.FallbackEntityIDs = defaultFallbackEntities
	if v := os.Getenv("FALLBACK_ENTITY_IDS"); v != "" {
		var ids []string
		for _, part := range strings.Split(v, ",") {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.FallbackEntityIDs = ids
		}
	}

	cred, err := credentialFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Credential = cred

	return cfg, nil
}

func credentialFromEnv() (ServiceAccountCredential, error) {
	cred := ServiceAccountCredential{
		ClientEmail: os.Getenv("GOOGLE_CLIENT_EMAIL"),
		TokenURI:    envOr("GOOGLE_TOKEN_URI", "https://oauth2.googleapis.com/token"),
		ProjectID:   os.Getenv("GOOGLE_PROJECT_ID"),
	}

	if cred.ClientEmail == "" || cred.ProjectID == "" {
		return cred, fmt.Errorf("GOOGLE_CLIENT_EMAIL and GOOGLE_PROJECT_ID must be set")
	}

	if keyFile := os.Getenv("GOOGLE_PRIVATE_KEY_FILE"); keyFile != "" {
		pem, err := os.ReadFile(keyFile)
		if err != nil {
			return cred, fmt.Errorf("failed to read GOOGLE_PRIVATE_KEY_FILE: %w", err)
		}
		cred.PrivateKeyPEM = pem
	} else if key := os.Getenv("GOOGLE_PRIVATE_KEY"); key != "" {
		// .env files carry the key with literal \n escapes.
		cred.PrivateKeyPEM = []byte(strings.ReplaceAll(key, `\n`, "\n"))
	} else {
		return cred, fmt.Errorf("GOOGLE_PRIVATE_KEY or GOOGLE_PRIVATE_KEY_FILE must be set")
	}

	return cred, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
