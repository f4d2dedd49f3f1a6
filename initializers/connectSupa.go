package initializers

import (
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB // Migrate runs against this connection

// ConnectDB opens the ledger database behind the Supabase pooler.
func ConnectDB(cfg DatabaseConfig, logger *zap.Logger) error {
	logger.Info("connecting to database")

	if cfg.URL == "" {
		return fmt.Errorf("env variable DIRECT_URL is empty")
	}

	pgConfig := postgres.Config{
		PreferSimpleProtocol: true, // the pooler does not support prepared statements
		DriverName:           "postgres",
		DSN:                  cfg.URL,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		PrepareStmt:          false,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	if cfg.Debug {
		db = db.Debug()
	}
	DB = db

	logger.Info("database connection successful")
	return nil
}
