package database

import (
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/model"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Batch{},
		&model.Exam{},
		&model.Question{},
		&model.ExamAssignment{},
		&model.AttemptOverride{},
		&model.ExamAttempt{},
		&model.AttemptAnswer{},
		&model.GradingSession{},
		&model.GradedAnswer{},
		&model.RegradeLog{},
		&model.AdminOperationLog{},
		&model.MediaFile{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认超级管理员，首次启动后应立即改密
	var count int64
	db.Model(&model.User{}).Where("role = ?", model.SuperDev).Count(&count)
	if count == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("ChangeMe_123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		db.Create(&model.User{
			Name:     "superdev",
			Email:    "superdev@example.com",
			Password: string(hashed),
			Role:     model.SuperDev,
			IsActive: true,
		})
	}

	return db, nil
}
