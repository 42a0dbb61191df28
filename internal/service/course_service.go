package service

import (
	"context"
	"corp_learn_backend/internal/config"
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const catalogCacheKey = "catalog:published"

// CourseService 课程目录、报名与学员课程视图
type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Redis          *redis.Client
	Cfg            *config.Config
	Logger         *zap.Logger
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	rdb *redis.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		Redis:          rdb,
		Cfg:            cfg,
		Logger:         logger,
	}
}

// GetCourses 课程目录。无筛选条件的已发布列表走 Redis 缓存，
// 缓存失败只记日志，查询退回数据库。
func (s *CourseService) GetCourses(ctx context.Context, filter repository.CourseFilter) ([]model.Course, error) {
	cacheable := filter.IsEmpty() && s.Redis != nil

	if cacheable {
		val, err := s.Redis.Get(ctx, catalogCacheKey).Result()
		if err == nil {
			var courses []model.Course
			if err := json.Unmarshal([]byte(val), &courses); err == nil {
				return courses, nil
			}
		} else if err != redis.Nil {
			s.Logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	courses, err := s.CourseRepo.List(filter)
	if err != nil {
		return nil, err
	}

	if cacheable {
		ttl := time.Duration(s.Cfg.Catalog.CacheTTLSeconds) * time.Second
		if data, err := json.Marshal(courses); err == nil {
			if err := s.Redis.Set(ctx, catalogCacheKey, data, ttl).Err(); err != nil {
				s.Logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}

	return courses, nil
}

// CourseDetail 课程详情。caller 已报名时附带其报名与各章节完成状态。
type CourseDetail struct {
	Course          *model.Course           `json:"course"`
	Enrollment      *model.CourseEnrollment `json:"enrollment,omitempty"`
	ChapterProgress []model.ChapterProgress `json:"chapterProgress,omitempty"`
}

func (s *CourseService) GetCourse(courseID uint, callerID uint) (*CourseDetail, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	detail := &CourseDetail{Course: course}

	if callerID > 0 {
		enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(callerID, courseID)
		if err == nil {
			detail.Enrollment = enrollment
			progress, err := s.EnrollmentRepo.ChapterProgressByEnrollment(enrollment.ID)
			if err != nil {
				return nil, err
			}
			detail.ChapterProgress = progress
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return detail, nil
}

func (s *CourseService) GetCategories() ([]model.CourseCategory, error) {
	return s.CourseRepo.Categories()
}

// Enroll 报名已发布课程。重复报名（含已退出的历史记录）是冲突。
func (s *CourseService) Enroll(userID, courseID uint) (*model.CourseEnrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.Status != model.CoursePublished {
		return nil, util.ErrCourseNotPublished
	}

	if _, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.CourseEnrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
		Status:     model.EnrollmentActive,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// UserCourse 学员课程视图里的一条报名，附已完成/总章节数
type UserCourse struct {
	Enrollment        model.CourseEnrollment `json:"enrollment"`
	CompletedChapters int64                  `json:"completedChapters"`
	TotalChapters     int64                  `json:"totalChapters"`
}

func (s *CourseService) GetUserCourses(userID uint, status model.EnrollmentStatus) ([]UserCourse, error) {
	enrollments, err := s.EnrollmentRepo.ListByUser(userID, status)
	if err != nil {
		return nil, err
	}

	result := make([]UserCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		completed, err := s.EnrollmentRepo.CountCompletedChapters(s.EnrollmentRepo.DB, enrollment.ID, enrollment.CourseID)
		if err != nil {
			return nil, err
		}
		total, err := s.CourseRepo.CountChapters(s.CourseRepo.DB, enrollment.CourseID)
		if err != nil {
			return nil, err
		}
		result = append(result, UserCourse{
			Enrollment:        enrollment,
			CompletedChapters: completed,
			TotalChapters:     total,
		})
	}
	return result, nil
}

// CreateCourse 讲师/管理员建课，建课后清目录缓存
func (s *CourseService) CreateCourse(ctx context.Context, course *model.Course) error {
	if course.Status == "" {
		course.Status = model.CourseDraft
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) AddChapter(ctx context.Context, courseID uint, chapter *model.CourseChapter) error {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}

	chapter.CourseID = course.ID
	if chapter.OrderIndex == 0 {
		chapter.OrderIndex = len(course.Chapters) + 1
	}
	if err := s.CourseRepo.CreateChapter(chapter); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, catalogCacheKey).Err(); err != nil {
		s.Logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CourseService) CourseExists(courseID uint) error {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	return nil
}
