package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the process-wide GORM handle and the pool beneath it.
type Database struct {
	DB     *gorm.DB
	driver string
}

// NewDatabase connects with GORM's own logging silenced.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return NewDatabaseWithLogger(cfg, gormlogger.Default.LogMode(gormlogger.Silent))
}

// NewDatabaseWithLogger connects using gormLogger, usually
// logger.NewGormLogger, and verifies the connection.
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, gormLogger gormlogger.Interface) (*Database, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            driver == "postgres",
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &Database{DB: db, driver: driver}
	sqlDB, err := d.SQLDB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one writer; an in-memory database also lives in a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

// Driver is "postgres" or "sqlite".
func (d *Database) Driver() string { return d.driver }

// SQLDB returns the underlying pool.
func (d *Database) SQLDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// AllModels lists every persistence model. Postgres schemas come from the
// SQL migrations; AutoMigrate is used for sqlite.
func AllModels() []any {
	return []any{
		&models.UserModel{},
		&models.WarehouseModel{},
		&models.PurchaseOrderModel{},
		&models.PurchaseOrderItemModel{},
		&models.PaymentModel{},
		&models.OrderMediaModel{},
		&models.PlantInventoryModel{},
		&models.PotInventoryModel{},
		&models.DamageLogModel{},
		&models.RestockLogModel{},
	}
}

func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(AllModels()...)
}

// Ping backs the database health check.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats reports the pool counters.
func (d *Database) Stats() (sql.DBStats, error) {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

func (d *Database) Close() error {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
