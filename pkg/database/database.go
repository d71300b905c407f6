package database

import (
	"fmt"
	"log"
	"pillar_journey_backend/internal/config"
	"pillar_journey_backend/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// Migrate 建表并写入静态目录，MySQL 与测试用 SQLite 共用
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Pillar{},
		&model.Badge{},
		&model.Journey{},
		&model.Checkin{},
		&model.KarmaTransaction{},
		&model.Streak{},
		&model.UserBadge{},
		&model.Insight{},
		&model.SelfAssessment{},
		&model.MoodLog{},
	)
	if err != nil {
		return err
	}

	return SeedCatalog(db)
}

// SeedCatalog 同步修习项与徽章目录，重复执行结果一致
func SeedCatalog(db *gorm.DB) error {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.Pillars).Error; err != nil {
		return fmt.Errorf("seed pillars: %w", err)
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.Badges).Error; err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	return nil
}
