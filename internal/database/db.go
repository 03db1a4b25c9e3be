package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"bistrogest/internal/config"
	"bistrogest/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured store and migrates it. The process stops if that fails.
func Init(cfg *config.Config) {
	var err error

	DB, err = Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("could not open the database: %v", err)
	}

	log.Printf("Database ready (%s). Migration completed.", cfg.DBDriver)
}

// Open connects with the given driver and runs AutoMigrate.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		// single local writer: foreign keys on, wait instead of failing when the file is busy
		dialector = sqlite.Open(dsn + sqliteParams(dsn))
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// logConfig keeps slow queries and real errors. Missing rows are an expected
// answer for lookups like GetProduct and stay out of the log.
var logConfig = logger.Config{
	SlowThreshold:             200 * time.Millisecond,
	LogLevel:                  logger.Warn,
	IgnoreRecordNotFoundError: true,
	Colorful:                  false,
}

func newLogger() logger.Interface {
	return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logConfig)
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Product{},
		&models.Sale{},
		&models.StaffMember{},
		&models.PendingOrder{},
		&models.Metadata{},
		&models.StockMovement{},
		&models.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}

func sqliteParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
