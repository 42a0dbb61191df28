package repository

import (
	"corp_learn_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantOutcome 授予徽章的显式结果。唯一索引是事实来源：
// 并发授予的失败方通过 AlreadyOwned 得知自己输掉了竞争，按成功处理。
type GrantOutcome int

const (
	Granted GrantOutcome = iota
	AlreadyOwned
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) FindActive() ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Where("is_active = ?", true).Order("name ASC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) FindByID(id uint) (*model.Badge, error) {
	var badge model.Badge
	err := r.DB.First(&badge, id).Error
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

// FindActiveNotGranted 用户尚未获得的启用中徽章
func (r *BadgeRepository) FindActiveNotGranted(tx *gorm.DB, userID uint) ([]model.Badge, error) {
	var badges []model.Badge
	err := tx.Where("is_active = ?", true).
		Where("id NOT IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.UserBadge{}).
			Select("badge_id").
			Where("user_id = ?", userID)).
		Order("name ASC").
		Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) ListUserBadges(userID uint) ([]model.UserBadge, error) {
	var grants []model.UserBadge
	err := r.DB.Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&grants).Error
	return grants, err
}

// Grant 尝试授予徽章。重复授予不是错误：唯一索引挡下的插入返回 AlreadyOwned。
func (r *BadgeRepository) Grant(tx *gorm.DB, userID, badgeID uint, courseID, awardedBy *uint, now time.Time) (GrantOutcome, *model.UserBadge, error) {
	grant := model.UserBadge{
		UserID:    userID,
		BadgeID:   badgeID,
		EarnedAt:  now,
		CourseID:  courseID,
		AwardedBy: awardedBy,
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&grant)
	if res.Error != nil {
		return AlreadyOwned, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return AlreadyOwned, nil, nil
	}
	return Granted, &grant, nil
}

func (r *BadgeRepository) CountGrantsByUser(tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.UserBadge{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// BadgeStat 管理端的单个徽章发放统计
type BadgeStat struct {
	Badge        model.Badge `json:"badge"`
	TotalAwarded int64       `json:"totalAwarded"`
}

func (r *BadgeRepository) Stats() ([]BadgeStat, int64, error) {
	badges, err := r.FindActive()
	if err != nil {
		return nil, 0, err
	}

	stats := make([]BadgeStat, 0, len(badges))
	var totalAwarded int64
	for _, badge := range badges {
		var count int64
		if err := r.DB.Model(&model.UserBadge{}).
			Where("badge_id = ?", badge.ID).
			Count(&count).Error; err != nil {
			return nil, 0, err
		}
		stats = append(stats, BadgeStat{Badge: badge, TotalAwarded: count})
		totalAwarded += count
	}
	return stats, totalAwarded, nil
}
