// Package store mirrors investigations and queues outbox events in a
// relational database through gorm.
package store

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfigJson struct {
	Driver           string `json:"driver,omitempty"`
	ConnectionString string `json:"connection_string"`
	Migrate          bool   `json:"migrate"`
}

type DatabaseConfig struct {
	Driver           string
	ConnectionString string
	Migrate          bool
}

func (j DatabaseConfigJson) ConvertToDomain() DatabaseConfig {
	driver := strings.ToLower(j.Driver)
	if driver == "" {
		driver = DriverSqlite
	}
	return DatabaseConfig{Driver: driver, ConnectionString: j.ConnectionString, Migrate: j.Migrate}
}

func dialector(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSqlite, "":
		return sqlite.Open(cfg.ConnectionString), nil
	case DriverPostgres:
		return postgres.Open(cfg.ConnectionString), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Open connects to the configured database and runs migrations when asked to.
func Open(cfg DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("Establishing %s connection to database", utilities.Ternary(cfg.Driver != "", cfg.Driver, DriverSqlite))

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot establish database connection: %w", err)
	}

	// every pooled connection to :memory: would get its own empty database
	if cfg.Driver != DriverPostgres && strings.Contains(cfg.ConnectionString, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.Migrate {
		log.Info("Running migrations for tables")
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrating database failed: %w", err)
		}
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OutboxEvent{}, &InvestigationSnapshot{})
}
