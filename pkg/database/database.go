package database

import (
	"corp_learn_backend/internal/config"
	"corp_learn_backend/internal/model"
	"fmt"
	"log"

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
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.CourseCategory{},
		&model.Course{},
		&model.CourseChapter{},
		&model.CourseEnrollment{},
		&model.ChapterProgress{},
		&model.CourseRating{},
		&model.Badge{},
		&model.UserBadge{},
		&model.UserStats{},
		&model.Notification{},
	)
}

// Seed 插入默认课程分类与徽章目录（为空时）
func Seed(db *gorm.DB) {
	var catCount int64
	db.Model(&model.CourseCategory{}).Count(&catCount)
	if catCount == 0 {
		defaultCategories := []model.CourseCategory{
			{Name: "Leadership", ColorHex: "#8B5CF6"},
			{Name: "Communication", ColorHex: "#3B82F6"},
			{Name: "Security", ColorHex: "#EF4444"},
			{Name: "Compliance", ColorHex: "#F59E0B"},
			{Name: "Technology", ColorHex: "#10B981"},
		}
		for _, c := range defaultCategories {
			db.Create(&c)
		}
	}

	var badgeCount int64
	db.Model(&model.Badge{}).Count(&badgeCount)
	if badgeCount == 0 {
		defaultBadges := []model.Badge{
			{Name: "First Steps", Description: "Complete your first course", Icon: "🎯", Rarity: "common",
				Criteria: `{"courses_completed": 1}`, IsActive: true},
			{Name: "Communicator", Description: "Complete 2 communication courses", Icon: "💬", Rarity: "rare",
				Criteria: `{"category": "Communication", "courses_completed": 2}`, IsActive: true},
			{Name: "Emerging Leader", Description: "Complete 3 leadership courses", Icon: "👑", Rarity: "epic",
				Criteria: `{"category": "Leadership", "courses_completed": 3}`, IsActive: true},
			{Name: "Security Expert", Description: "Complete 5 security courses", Icon: "🛡️", Rarity: "legendary",
				Criteria: `{"category": "Security", "courses_completed": 5}`, IsActive: true},
			{Name: "Golden Streak", Description: "Keep a 30 day learning streak", Icon: "🔥", Rarity: "legendary",
				Criteria: `{"streak_days": 30}`, IsActive: true},
			// 仅限手动颁发：评估器不认识 courses_in_period 字段
			{Name: "Learning Marathon", Description: "Complete 10 courses in a month", Icon: "🏃", Rarity: "epic",
				Criteria: `{"courses_in_period": 10, "period_days": 30}`, IsActive: true},
			// 仅限手动颁发：评估器不认识 perfect_score 字段
			{Name: "Perfectionist", Description: "Finish a course with a perfect score", Icon: "⭐", Rarity: "rare",
				Criteria: `{"perfect_score": true}`, IsActive: true},
		}
		for _, b := range defaultBadges {
			db.Create(&b)
		}
	}
}
