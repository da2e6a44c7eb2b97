package database

import (
    "errors"
    "fmt"

    "gorm.io/driver/postgres"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/zaqqye/feedhub_v1/internal/config"
    "github.com/zaqqye/feedhub_v1/internal/models"
)

var ErrUnknownDriver = errors.New("database: unknown driver")

// Connect opens the local store. sqlite is the default; postgres lets a
// school share one database between several teacher machines.
func Connect(cfg *config.Config) (*gorm.DB, error) {
    gormCfg := &gorm.Config{
        TranslateError: true,
        Logger:         logger.Default.LogMode(logger.Silent),
    }
    switch cfg.DBDriver {
    case "", "sqlite":
        return gorm.Open(sqlite.Open(cfg.DBPath), gormCfg)
    case "postgres":
        dsn := fmt.Sprintf(
            "host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
            cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
        )
        return gorm.Open(postgres.Open(dsn), gormCfg)
    default:
        return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.DBDriver)
    }
}

func Migrate(db *gorm.DB) error {
    return db.AutoMigrate(&models.RoomSession{}, &models.FeedbackRecord{})
}
