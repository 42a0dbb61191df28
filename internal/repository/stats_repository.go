package repository

import (
	"corp_learn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// EnsureExists 保证用户的统计行存在，幂等
func (r *StatsRepository) EnsureExists(tx *gorm.DB, userID uint) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.UserStats{UserID: userID}).Error
}

func (r *StatsRepository) FindByUser(tx *gorm.DB, userID uint) (*model.UserStats, error) {
	var stats model.UserStats
	err := tx.Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// FindForUpdate 锁定统计行。统计行是连续天数读改写的互斥单元。
func (r *StatsRepository) FindForUpdate(tx *gorm.DB, userID uint) (*model.UserStats, error) {
	var stats model.UserStats
	err := lockForUpdate(tx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// 计数字段一律用自增语句更新，并发自增可交换，不会互相覆盖。

func (r *StatsRepository) IncrementCompletedCourses(tx *gorm.DB, userID uint, delta int) error {
	return tx.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Update("total_courses_completed", gorm.Expr("total_courses_completed + ?", delta)).
		Error
}

func (r *StatsRepository) IncrementBadges(tx *gorm.DB, userID uint, delta int) error {
	return tx.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Update("total_badges_earned", gorm.Expr("total_badges_earned + ?", delta)).
		Error
}

func (r *StatsRepository) AddTimeSpent(tx *gorm.DB, userID uint, minutes int) error {
	return tx.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Update("total_time_spent_minutes", gorm.Expr("total_time_spent_minutes + ?", minutes)).
		Error
}

func (r *StatsRepository) UpdateStreak(tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	return tx.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// Overwrite 重建时整行覆盖计数字段
func (r *StatsRepository) Overwrite(tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	return tx.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}
