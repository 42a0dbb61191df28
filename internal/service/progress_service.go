package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"corp_learn_backend/pkg/monitoring"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

// ProgressService 处理章节完成与课程进度推进。
// 报名行是互斥单元：完成、重算、状态迁移在同一事务内完成，
// 重算永远基于提交时刻的已完成章节数，不信任事务外的快照。
type ProgressService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	Stats          *StatsService
	Notifier       *NotificationService
	DB             *gorm.DB
}

func NewProgressService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	stats *StatsService,
	notifier *NotificationService,
	db *gorm.DB,
) *ProgressService {
	return &ProgressService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		Stats:          stats,
		Notifier:       notifier,
		DB:             db,
	}
}

// ChapterCompletionResult 章节完成后的回执
type ChapterCompletionResult struct {
	ChapterProgress   *model.ChapterProgress `json:"chapterProgress"`
	CourseProgress    float64                `json:"courseProgress"`
	IsCourseCompleted bool                   `json:"isCourseCompleted"`
}

// CompleteChapter 记录一次章节完成。重复完成是无害的空操作，
// 不覆盖原完成时间，也不会重复计入进度。
func (s *ProgressService) CompleteChapter(userID, courseID, chapterID uint, timeSpentMinutes int) (*ChapterCompletionResult, error) {
	var result *ChapterCompletionResult
	var newlyCompleted bool
	var courseTitle string

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		enrollment, err := s.EnrollmentRepo.FindForUpdate(tx, userID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrNotEnrolled
			}
			return err
		}
		if enrollment.Status == model.EnrollmentDropped {
			return util.ErrNotEnrolled
		}

		if _, err := s.CourseRepo.FindChapter(tx, courseID, chapterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrChapterNotFound
			}
			return err
		}

		now := time.Now()

		progress, err := s.EnrollmentRepo.CompleteChapterProgress(tx, enrollment.ID, userID, chapterID, timeSpentMinutes, now)
		if err != nil {
			return err
		}

		totalChapters, err := s.CourseRepo.CountChapters(tx, courseID)
		if err != nil {
			return err
		}
		completedChapters, err := s.EnrollmentRepo.CountCompletedChapters(tx, enrollment.ID, courseID)
		if err != nil {
			return err
		}

		// 零章节课程进度记 0，永远不会经由本路径转为已完成
		percentage := 0.0
		if totalChapters > 0 {
			percentage = round2(float64(completedChapters) / float64(totalChapters) * 100)
		}
		courseCompleted := totalChapters > 0 && completedChapters >= totalChapters

		updates := map[string]interface{}{
			"progress_percentage": percentage,
			"last_accessed_at":    now,
		}
		if courseCompleted {
			updates["status"] = model.EnrollmentCompleted
			if enrollment.Status != model.EnrollmentCompleted {
				updates["completed_at"] = now
				newlyCompleted = true
			}
		} else {
			updates["status"] = model.EnrollmentActive
		}

		if err := s.EnrollmentRepo.UpdateProgress(tx, enrollment.ID, updates); err != nil {
			return err
		}

		if err := s.Stats.AddTimeSpent(tx, userID, timeSpentMinutes); err != nil {
			return err
		}
		if newlyCompleted {
			if err := s.Stats.RecordCourseCompletion(tx, userID, now); err != nil {
				return err
			}
			var course model.Course
			if err := tx.Select("title").First(&course, courseID).Error; err == nil {
				courseTitle = course.Title
			}
		}

		result = &ChapterCompletionResult{
			ChapterProgress:   progress,
			CourseProgress:    percentage,
			IsCourseCompleted: courseCompleted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事件在提交之后发出，通知失败绝不回滚已落库的进度
	if newlyCompleted {
		monitoring.CoursesCompleted.Inc()
		s.Notifier.NotifyCourseCompleted(userID, courseID, courseTitle)
	}

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
