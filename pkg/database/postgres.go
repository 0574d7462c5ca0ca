package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-inventory-ledger/internal/model"
)

// gormWriter routes GORM's logger through zerolog.
type gormWriter struct {
	zl zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.zl.Debug().Msgf(format, args...)
}

// ConnectDB opens the Postgres pool. The caller owns the returned handle.
func ConnectDB(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	newLogger := logger.New(
		gormWriter{zl: log.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for poolers in transaction mode
	}), &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// Connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("database connection established")
	return db, nil
}

// Migrate creates or updates the schema. Order matters for foreign keys.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Product{},
		&model.Transaction{},
		&model.Feedback{},
	)
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
