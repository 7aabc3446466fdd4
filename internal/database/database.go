package database

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopbooks/internal/expenses"
	"shopbooks/internal/inventory"
	"shopbooks/internal/sales"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// Driver names the SQL dialect selected for a DSN.
type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// DriverFor picks postgres for URL style or key=value DSNs and sqlite for
// everything else.
func DriverFor(dsn string) Driver {
	s := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") {
		return Postgres
	}
	if !strings.HasPrefix(s, "file:") && kvPairRegex.MatchString(s) {
		return Postgres
	}
	return SQLite
}

// Open connects to the database described by dsn.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dsn = strings.Trim(strings.TrimSpace(dsn), "\"'")

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	driver := DriverFor(dsn)
	var dialector gorm.Dialector
	switch driver {
	case Postgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if driver == SQLite {
		// One writer at a time; keeps in-memory databases on a single connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	log.Info("database connected", zap.String("driver", string(driver)))
	return db, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	models := append(sales.Models(), inventory.Models()...)
	models = append(models, expenses.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
