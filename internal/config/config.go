package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	DBDriver         string // sqlite | postgres
	DatabaseDSN      string
	JWTSecret        string
	CORSOrigins      string
	ProductImagePath string // folder for resized product photos
	BackupDir        string
	BackupTime       string // daily "HH:MM", empty disables scheduled backups
	Timezone         string
	PaymentDelay     time.Duration
	StoreID          string
	ActivationCode   string
}

const (
	defaultDSN            = "bistrogest.db"
	defaultCORS           = "http://localhost:5173"
	defaultActivationCode = "123456"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
	ErrShortSecret   = errors.New("JWT_SECRET must be at least 32 characters")
	ErrBadDriver     = errors.New("DB_DRIVER must be sqlite or postgres")
)

// Load reads .env (if any) and the environment. Fatal misconfiguration stops the process.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] could not read .env: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.ActivationCode == defaultActivationCode {
		log.Println("[WARN] ACTIVATION_CODE default value in use, set your own owner code.")
	}
	if cfg.CORSOrigins == defaultCORS {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS default value in use.")
	}
	if cfg.BackupTime == "" {
		log.Println("[WARN] BACKUP_TIME empty, scheduled backups are disabled.")
	}

	return cfg
}

// FromEnv builds the config without validating it.
func FromEnv() *Config {
	delay, err := time.ParseDuration(getEnv("PAYMENT_DELAY", "800ms"))
	if err != nil {
		log.Printf("[WARN] PAYMENT_DELAY invalid (%v), using 800ms", err)
		delay = 800 * time.Millisecond
	}

	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		DatabaseDSN:      getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", defaultCORS),
		ProductImagePath: getEnv("PRODUCT_IMAGE_PATH", "./product-images"),
		BackupDir:        getEnv("BACKUP_DIR", "./backups"),
		BackupTime:       getEnv("BACKUP_TIME", "23:30"),
		Timezone:         getEnv("TIMEZONE", "Africa/Libreville"),
		PaymentDelay:     delay,
		StoreID:          getEnv("STORE_ID", "lbv-1"),
		ActivationCode:   getEnv("ACTIVATION_CODE", defaultActivationCode),
	}
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if len(c.JWTSecret) < 32 {
		return ErrShortSecret
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return ErrBadDriver
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[WARN] timezone %q could not be loaded, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
