package repo

import (
	"fmt"
	"log"
	"strings"

	"mahjong-score/internal/config"
	"mahjong-score/internal/model"
	"mahjong-score/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dialector, err := Dialector(config.GlobalConfig.Database)
	if err != nil {
		logger.Log.Fatal("Invalid database config", zap.Error(err))
	}

	DB, err = gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.String("driver", config.GlobalConfig.Database.Driver),
			zap.Error(err),
		)
	}

	if err := DB.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}

// Dialector picks the gorm driver for the configured database.
func Dialector(conf config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(conf.Driver)) {
	case "", "postgres", "postgresql":
		return postgres.Open(conf.DSN), nil
	case "mysql":
		return mysql.Open(conf.DSN), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(conf.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}
