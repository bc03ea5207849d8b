// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Supported DB_DRIVER values.
const (
	DriverMongo     = "mongo"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

var (
	ErrUnknownDriver       = errors.New("unknown DB_DRIVER")
	ErrMissingCredentials  = errors.New("mongo requires DB_URI or DB_USERNAME, DB_PASSWORD and DB_HOST")
	ErrMissingProject      = errors.New("firestore requires FIRESTORE_PROJECT_ID")
	ErrMissingSQLitePath   = errors.New("sqlite requires SQLITE_PATH")
	ErrInvalidUploadLimit  = errors.New("invalid MAX_UPLOAD_SIZE")
	ErrInvalidLookupConfig = errors.New("invalid IP lookup settings")
)

// defaultMaxUpload is the upload cap when MAX_UPLOAD_SIZE is unset, lowered
// to what the selected driver can store.
const defaultMaxUpload = 16_000_000

// Largest single document each backend accepts, in bytes.
const (
	mongoDocumentLimit     = 16 << 20
	firestoreDocumentLimit = 1 << 20
	sqliteDocumentLimit    = 1_000_000_000

	// documentOverhead is reserved for the id, metadata fields and key names.
	documentOverhead = 4 << 10
)

// MaxStorableUpload returns the largest raw upload whose base64 encoding
// still fits one document of driver, or 0 for an unknown driver.
func MaxStorableUpload(driver string) int64 {
	var limit int64
	switch driver {
	case DriverMongo:
		limit = mongoDocumentLimit
	case DriverFirestore:
		limit = firestoreDocumentLimit
	case DriverSQLite:
		limit = sqliteDocumentLimit
	default:
		return 0
	}
	return (limit - documentOverhead) / 4 * 3
}

type Config struct {
	ServerPort string
	LogLevel   string

	DBDriver         string
	DBURI            string
	DBUsername       string
	DBPassword       string
	DBHost           string
	DBName           string
	DBConnectTimeout time.Duration

	SQLitePath string

	FirestoreProject     string
	FirestoreCredentials string

	MaxUploadSize int64

	IPLookupURL      string
	IPLookupTimeout  time.Duration
	IPLookupRetryMax int
}

// Load reads envFile (if it exists) into the environment, then builds and
// validates the configuration. Variables already set in the environment win
// over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	maxUpload := int64(-1)
	if raw := getEnv("MAX_UPLOAD_SIZE", ""); raw != "" {
		parsed, err := humanize.ParseBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidUploadLimit, err)
		}
		maxUpload = int64(parsed)
	}

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", DriverMongo)),
		DBURI:                getEnv("DB_URI", ""),
		DBUsername:           getEnv("DB_USERNAME", ""),
		DBPassword:           getEnv("DB_PASSWORD", ""),
		DBHost:               getEnv("DB_HOST", ""),
		DBName:               getEnv("DB_NAME", "multimedia_db"),
		DBConnectTimeout:     getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		SQLitePath:           getEnv("SQLITE_PATH", "build/data/gameassets.db"),
		FirestoreProject:     getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentials: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		MaxUploadSize:        maxUpload,
		IPLookupURL:          getEnv("IP_LOOKUP_URL", "https://api.ipify.org"),
		IPLookupTimeout:      getEnvAsDuration("IP_LOOKUP_TIMEOUT", 10*time.Second),
		IPLookupRetryMax:     getEnvAsInt("IP_LOOKUP_RETRY_MAX", 0),
	}

	storable := MaxStorableUpload(cfg.DBDriver)
	switch {
	case cfg.MaxUploadSize < 0:
		cfg.MaxUploadSize = min(defaultMaxUpload, storable)
	case cfg.MaxUploadSize == 0:
		cfg.MaxUploadSize = storable
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMongo:
		if c.DBURI == "" && (c.DBUsername == "" || c.DBPassword == "" || c.DBHost == "") {
			return ErrMissingCredentials
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return ErrMissingSQLitePath
		}
	case DriverFirestore:
		if c.FirestoreProject == "" {
			return ErrMissingProject
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}

	if storable := MaxStorableUpload(c.DBDriver); c.MaxUploadSize <= 0 || c.MaxUploadSize > storable {
		return fmt.Errorf("%w: %d bytes, %s documents hold at most %d", ErrInvalidUploadLimit, c.MaxUploadSize, c.DBDriver, storable)
	}

	if c.IPLookupRetryMax < 0 || c.IPLookupTimeout < 0 {
		return ErrInvalidLookupConfig
	}
	return nil
}

// MongoURI returns DB_URI, or an Atlas style SRV URI built from the
// credential variables.
func (c *Config) MongoURI() string {
	if c.DBURI != "" {
		return c.DBURI
	}

	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUsername, c.DBPassword),
		Host:     c.DBHost,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
