package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Catalog backends
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config holds the service configuration read from the environment
type Config struct {
	Port string
	Env  string

	CatalogBackend string

	// Postgres
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	// Firestore
	FirestoreProjectID   string
	CredentialsFile      string
	ProductsCollection   string
	PromotionsCollection string

	// Pricing
	TaxRate             decimal.Decimal
	ClampFixedDiscounts bool
	LookupConcurrency   int

	RequestTimeout time.Duration
	MetricsEnabled bool
}

// IsProduction reports whether the service runs with ENV=production
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from environment variables
func Load() (Config, error) {
	port := strings.TrimPrefix(getenv("PORT", "8080"), ":")

	cfg := Config{
		Port:           port,
		Env:            getenv("ENV", "development"),
		CatalogBackend: strings.ToLower(getenv("CATALOG_BACKEND", BackendPostgres)),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   getenv("DB_SSLMODE", "disable"),

		FirestoreProjectID:   os.Getenv("FIRESTORE_PROJECT_ID"),
		CredentialsFile:      os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ProductsCollection:   getenv("FIRESTORE_CATALOG_COLLECTION", "productos"),
		PromotionsCollection: getenv("FIRESTORE_PROMOTIONS_COLLECTION", "promociones"),
	}

	var err error
	if cfg.AutoMigrate, err = parseBool("DB_AUTO_MIGRATE", false); err != nil {
		return Config{}, err
	}
	if cfg.ClampFixedDiscounts, err = parseBool("PRICING_CLAMP_FIXED_DISCOUNTS", true); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = parseBool("METRICS_ENABLED", true); err != nil {
		return Config{}, err
	}

	cfg.TaxRate, err = decimal.NewFromString(getenv("PRICING_TAX_RATE", "0.16"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PRICING_TAX_RATE: %w", err)
	}
	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("invalid PRICING_TAX_RATE: %s must be in [0, 1)", cfg.TaxRate)
	}

	cfg.LookupConcurrency, err = strconv.Atoi(getenv("CATALOG_LOOKUP_CONCURRENCY", "8"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CATALOG_LOOKUP_CONCURRENCY: %w", err)
	}
	if cfg.LookupConcurrency <= 0 {
		return Config{}, fmt.Errorf("invalid CATALOG_LOOKUP_CONCURRENCY: must be greater than 0")
	}

	cfg.RequestTimeout, err = time.ParseDuration(getenv("REQUEST_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	switch cfg.CatalogBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" && (cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "") {
			return Config{}, fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
		}
	case BackendFirestore:
		if cfg.FirestoreProjectID == "" {
			return Config{}, fmt.Errorf("FIRESTORE_PROJECT_ID environment variable is not set")
		}
	default:
		return Config{}, fmt.Errorf("invalid CATALOG_BACKEND %q: use %s or %s", cfg.CatalogBackend, BackendPostgres, BackendFirestore)
	}

	return cfg, nil
}

// DSN returns the Postgres connection string, built from the DB_* variables
// when DATABASE_URL is not set
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func parseBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", k, err)
	}
	return b, nil
}
