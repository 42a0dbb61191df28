package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StatsService 维护按用户缓存的汇总计数。计数本身只是加速用的派生缓存，
// Reconcile 能随时从报名/章节/徽章历史整体重建。
type StatsService struct {
	StatsRepo      *repository.StatsRepository
	EnrollmentRepo *repository.EnrollmentRepository
	BadgeRepo      *repository.BadgeRepository
	UserRepo       *repository.UserRepository
	DB             *gorm.DB
}

func NewStatsService(
	statsRepo *repository.StatsRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	badgeRepo *repository.BadgeRepository,
	userRepo *repository.UserRepository,
	db *gorm.DB,
) *StatsService {
	return &StatsService{
		StatsRepo:      statsRepo,
		EnrollmentRepo: enrollmentRepo,
		BadgeRepo:      badgeRepo,
		UserRepo:       userRepo,
		DB:             db,
	}
}

// RecordCourseCompletion 课程完成时的汇总更新：完成数+1，刷新活跃日期与连续天数
func (s *StatsService) RecordCourseCompletion(tx *gorm.DB, userID uint, completedAt time.Time) error {
	if err := s.StatsRepo.EnsureExists(tx, userID); err != nil {
		return err
	}
	if err := s.StatsRepo.IncrementCompletedCourses(tx, userID, 1); err != nil {
		return err
	}
	return s.touchActivity(tx, userID, completedAt)
}

// RecordBadgesGranted 徽章授予后的汇总更新。只按新增授予数自增，
// 不做整体重算，避免与并发授予的读改写竞争。
func (s *StatsService) RecordBadgesGranted(tx *gorm.DB, userID uint, count int) error {
	if count <= 0 {
		return nil
	}
	if err := s.StatsRepo.EnsureExists(tx, userID); err != nil {
		return err
	}
	return s.StatsRepo.IncrementBadges(tx, userID, count)
}

func (s *StatsService) AddTimeSpent(tx *gorm.DB, userID uint, minutes int) error {
	if minutes <= 0 {
		return nil
	}
	if err := s.StatsRepo.EnsureExists(tx, userID); err != nil {
		return err
	}
	return s.StatsRepo.AddTimeSpent(tx, userID, minutes)
}

// touchActivity 连续天数的读改写，在统计行的行锁下进行：
// 同日不变，昨天有活动则+1，否则重置为1。
func (s *StatsService) touchActivity(tx *gorm.DB, userID uint, at time.Time) error {
	stats, err := s.StatsRepo.FindForUpdate(tx, userID)
	if err != nil {
		return err
	}

	today := dateOnly(at)
	current := stats.CurrentStreakDays

	switch {
	case stats.LastActivityDate != nil && dateOnly(*stats.LastActivityDate).Equal(today):
		// 当天已记录过活跃
	case stats.LastActivityDate != nil && dateOnly(*stats.LastActivityDate).Equal(today.AddDate(0, 0, -1)):
		current++
	default:
		current = 1
	}

	longest := stats.LongestStreakDays
	if current > longest {
		longest = current
	}

	return s.StatsRepo.UpdateStreak(tx, userID, map[string]interface{}{
		"current_streak_days": current,
		"longest_streak_days": longest,
		"last_activity_date":  today,
	})
}

// UserStatsOverview 汇总行加上按报名历史实时推导的计数
type UserStatsOverview struct {
	model.UserStats
	TotalEnrollments int64 `json:"totalEnrollments"`
	ActiveCourses    int64 `json:"activeCourses"`
	CompletedCourses int64 `json:"completedCourses"`
}

func (s *StatsService) GetUserStats(userID uint) (*UserStatsOverview, error) {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if err := s.StatsRepo.EnsureExists(s.DB, userID); err != nil {
		return nil, err
	}
	stats, err := s.StatsRepo.FindByUser(s.DB, userID)
	if err != nil {
		return nil, err
	}

	total, err := s.EnrollmentRepo.CountByUserAndStatus(userID, "")
	if err != nil {
		return nil, err
	}
	active, err := s.EnrollmentRepo.CountByUserAndStatus(userID, model.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	completed, err := s.EnrollmentRepo.CountByUserAndStatus(userID, model.EnrollmentCompleted)
	if err != nil {
		return nil, err
	}

	return &UserStatsOverview{
		UserStats:        *stats,
		TotalEnrollments: total,
		ActiveCourses:    active,
		CompletedCourses: completed,
	}, nil
}

// Reconcile 从底层历史整体重建统计行，用于修复缓存与事实不一致
func (s *StatsService) Reconcile(userID uint) (*model.UserStats, error) {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.StatsRepo.EnsureExists(tx, userID); err != nil {
			return err
		}
		if _, err := s.StatsRepo.FindForUpdate(tx, userID); err != nil {
			return err
		}

		completedCourses, err := s.EnrollmentRepo.CountCompletedByUser(tx, userID)
		if err != nil {
			return err
		}
		badges, err := s.BadgeRepo.CountGrantsByUser(tx, userID)
		if err != nil {
			return err
		}
		timeSpent, err := s.EnrollmentRepo.SumTimeSpent(tx, userID)
		if err != nil {
			return err
		}
		completionDates, err := s.EnrollmentRepo.CompletionDates(tx, userID)
		if err != nil {
			return err
		}

		current, longest, lastActivity := computeStreaks(completionDates)

		updates := map[string]interface{}{
			"total_courses_completed":  completedCourses,
			"total_badges_earned":      badges,
			"total_time_spent_minutes": timeSpent,
			"current_streak_days":      current,
			"longest_streak_days":      longest,
			"last_activity_date":       lastActivity,
		}
		return s.StatsRepo.Overwrite(tx, userID, updates)
	})
	if err != nil {
		return nil, err
	}

	return s.StatsRepo.FindByUser(s.DB, userID)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// computeStreaks 由完成日期序列推导连续天数。
// 当前连续天数是以最近一次活跃日为终点的连续日段长度，与增量更新的语义一致。
func computeStreaks(dates []time.Time) (current, longest int, lastActivity *time.Time) {
	if len(dates) == 0 {
		return 0, 0, nil
	}

	seen := make(map[time.Time]bool, len(dates))
	var days []time.Time
	for _, d := range dates {
		day := dateOnly(d)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := days[len(days)-1]
	return run, longest, &last
}
