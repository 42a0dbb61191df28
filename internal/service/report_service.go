package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
)

// ReportService 管理端平台级汇总
type ReportService struct {
	UserRepo       *repository.UserRepository
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	BadgeRepo      *repository.BadgeRepository
}

func NewReportService(
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	badgeRepo *repository.BadgeRepository,
) *ReportService {
	return &ReportService{
		UserRepo:       userRepo,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		BadgeRepo:      badgeRepo,
	}
}

// PlatformOverview 平台概览数字
type PlatformOverview struct {
	TotalUsers           int64   `json:"totalUsers"`
	PublishedCourses     int64   `json:"publishedCourses"`
	TotalEnrollments     int64   `json:"totalEnrollments"`
	CompletedEnrollments int64   `json:"completedEnrollments"`
	CompletionRate       float64 `json:"completionRate"`
	TotalBadgesAwarded   int64   `json:"totalBadgesAwarded"`
}

func (s *ReportService) PlatformOverview() (*PlatformOverview, error) {
	totalUsers, err := s.UserRepo.Count()
	if err != nil {
		return nil, err
	}
	publishedCourses, err := s.CourseRepo.Count(model.CoursePublished)
	if err != nil {
		return nil, err
	}
	totalEnrollments, err := s.EnrollmentRepo.Count()
	if err != nil {
		return nil, err
	}
	completedEnrollments, err := s.EnrollmentRepo.CountByStatus(model.EnrollmentCompleted)
	if err != nil {
		return nil, err
	}
	_, totalAwarded, err := s.BadgeRepo.Stats()
	if err != nil {
		return nil, err
	}

	rate := 0.0
	if totalEnrollments > 0 {
		rate = round2(float64(completedEnrollments) / float64(totalEnrollments) * 100)
	}

	return &PlatformOverview{
		TotalUsers:           totalUsers,
		PublishedCourses:     publishedCourses,
		TotalEnrollments:     totalEnrollments,
		CompletedEnrollments: completedEnrollments,
		CompletionRate:       rate,
		TotalBadgesAwarded:   totalAwarded,
	}, nil
}
