package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"corp_learn_backend/pkg/monitoring"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AchievementService 徽章评估与授予。
// (user, badge) 的唯一约束由存储层保证，重复授予被显式结果吸收；
// 徽章计数只按本次新增数自增，见 StatsService.RecordBadgesGranted。
type AchievementService struct {
	BadgeRepo      *repository.BadgeRepository
	EnrollmentRepo *repository.EnrollmentRepository
	StatsRepo      *repository.StatsRepository
	UserRepo       *repository.UserRepository
	Stats          *StatsService
	Notifier       *NotificationService
	DB             *gorm.DB
}

func NewAchievementService(
	badgeRepo *repository.BadgeRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	statsRepo *repository.StatsRepository,
	userRepo *repository.UserRepository,
	stats *StatsService,
	notifier *NotificationService,
	db *gorm.DB,
) *AchievementService {
	return &AchievementService{
		BadgeRepo:      badgeRepo,
		EnrollmentRepo: enrollmentRepo,
		StatsRepo:      statsRepo,
		UserRepo:       userRepo,
		Stats:          stats,
		Notifier:       notifier,
		DB:             db,
	}
}

// GrantedBadge 一次新授予
type GrantedBadge struct {
	UserBadge *model.UserBadge `json:"userBadge"`
	Badge     model.Badge      `json:"badge"`
}

// CheckAchievements 评估用户尚未获得的启用徽章并授予合格者。
// 同一徽章的多个条款是并集关系，任一条款满足即合格。
// 返回本次新授予的徽章；重复运行返回空列表。
func (s *AchievementService) CheckAchievements(userID uint) ([]GrantedBadge, error) {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	newlyGranted := make([]GrantedBadge, 0)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		newlyGranted = newlyGranted[:0]

		var streakDays int
		stats, err := s.StatsRepo.FindByUser(tx, userID)
		if err == nil {
			streakDays = stats.CurrentStreakDays
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 完成数从报名历史实时推导，不读缓存计数
		totalCompleted, err := s.EnrollmentRepo.CountCompletedByUser(tx, userID)
		if err != nil {
			return err
		}

		candidates, err := s.BadgeRepo.FindActiveNotGranted(tx, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, badge := range candidates {
			qualifies, err := s.qualifies(tx, userID, &badge, totalCompleted, streakDays)
			if err != nil {
				return err
			}
			if !qualifies {
				continue
			}

			outcome, grant, err := s.BadgeRepo.Grant(tx, userID, badge.ID, nil, nil, now)
			if err != nil {
				return err
			}
			if outcome == repository.AlreadyOwned {
				// 并发评估抢先授予，按成功跳过
				continue
			}
			newlyGranted = append(newlyGranted, GrantedBadge{UserBadge: grant, Badge: badge})
		}

		return s.Stats.RecordBadgesGranted(tx, userID, len(newlyGranted))
	})
	if err != nil {
		return nil, err
	}

	for _, g := range newlyGranted {
		monitoring.BadgesGranted.Inc()
		s.Notifier.NotifyBadgeEarned(userID, &g.Badge, nil)
	}

	return newlyGranted, nil
}

func (s *AchievementService) qualifies(tx *gorm.DB, userID uint, badge *model.Badge, totalCompleted int64, streakDays int) (bool, error) {
	for _, cl := range badge.CriteriaClauses() {
		switch cl.Kind {
		case model.MinCompletedCourses:
			if totalCompleted >= int64(cl.Count) {
				return true, nil
			}
		case model.MinCompletedInCategory:
			count, err := s.EnrollmentRepo.CountCompletedInCategory(tx, userID, cl.Category)
			if err != nil {
				return false, err
			}
			if count >= int64(cl.Count) {
				return true, nil
			}
		case model.MinStreakDays:
			if streakDays >= cl.Days {
				return true, nil
			}
		}
	}
	return false, nil
}

// AwardBadge 管理员手动授予。与自动授予不同，重复授予对调用方是一个冲突错误。
func (s *AchievementService) AwardBadge(userID, badgeID uint, courseID *uint, awardedBy uint) (*GrantedBadge, error) {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	badge, err := s.BadgeRepo.FindByID(badgeID)
	if err != nil || !badge.IsActive {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, util.ErrBadgeNotFound
	}

	var granted *GrantedBadge
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		outcome, grant, err := s.BadgeRepo.Grant(tx, userID, badgeID, courseID, &awardedBy, time.Now())
		if err != nil {
			return err
		}
		if outcome == repository.AlreadyOwned {
			return util.ErrBadgeAlreadyOwned
		}
		granted = &GrantedBadge{UserBadge: grant, Badge: *badge}
		return s.Stats.RecordBadgesGranted(tx, userID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.NotifyBadgeEarned(userID, badge, courseID)
	return granted, nil
}

func (s *AchievementService) ListBadges() ([]model.Badge, error) {
	return s.BadgeRepo.FindActive()
}

func (s *AchievementService) GetUserBadges(userID uint) ([]model.UserBadge, error) {
	return s.BadgeRepo.ListUserBadges(userID)
}

// BadgeProgress 已获得与未获得徽章的对照
type BadgeProgress struct {
	EarnedBadges    []model.UserBadge `json:"earnedBadges"`
	AvailableBadges []model.Badge     `json:"availableBadges"`
	TotalEarned     int               `json:"totalEarned"`
	TotalAvailable  int               `json:"totalAvailable"`
}

func (s *AchievementService) GetBadgeProgress(userID uint) (*BadgeProgress, error) {
	earned, err := s.BadgeRepo.ListUserBadges(userID)
	if err != nil {
		return nil, err
	}
	available, err := s.BadgeRepo.FindActiveNotGranted(s.DB, userID)
	if err != nil {
		return nil, err
	}
	return &BadgeProgress{
		EarnedBadges:    earned,
		AvailableBadges: available,
		TotalEarned:     len(earned),
		TotalAvailable:  len(available),
	}, nil
}

// BadgeStatsOverview 管理端徽章发放统计
type BadgeStatsOverview struct {
	TotalBadges          int                    `json:"totalBadges"`
	TotalAwarded         int64                  `json:"totalAwarded"`
	TotalUsers           int64                  `json:"totalUsers"`
	AverageBadgesPerUser float64                `json:"averageBadgesPerUser"`
	BadgeStatistics      []repository.BadgeStat `json:"badgeStatistics"`
}

func (s *AchievementService) GetBadgeStats() (*BadgeStatsOverview, error) {
	stats, totalAwarded, err := s.BadgeRepo.Stats()
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.UserRepo.Count()
	if err != nil {
		return nil, err
	}

	avg := 0.0
	if totalUsers > 0 {
		avg = round2(float64(totalAwarded) / float64(totalUsers))
	}

	return &BadgeStatsOverview{
		TotalBadges:          len(stats),
		TotalAwarded:         totalAwarded,
		TotalUsers:           totalUsers,
		AverageBadgesPerUser: avg,
		BadgeStatistics:      stats,
	}, nil
}
