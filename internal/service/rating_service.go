package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// RatingService 课程评分。评分前置条件是存在已完成的报名；
// 课程均分每次对全量评分重算，不做增量平均，避免浮点漂移。
type RatingService struct {
	RatingRepo     *repository.RatingRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	DB             *gorm.DB
}

func NewRatingService(
	ratingRepo *repository.RatingRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	db *gorm.DB,
) *RatingService {
	return &RatingService{
		RatingRepo:     ratingRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		DB:             db,
	}
}

// RatingResult 评分写入后的回执
type RatingResult struct {
	Rating        *model.CourseRating `json:"rating"`
	CourseAverage float64             `json:"courseAverage"`
}

func (s *RatingService) RateCourse(userID, courseID uint, rating int, review string) (*RatingResult, error) {
	if rating < util.MinRating || rating > util.MaxRating {
		return nil, util.ErrInvalidRating
	}

	var result *RatingResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var enrollment model.CourseEnrollment
		err := tx.Where("user_id = ? AND course_id = ? AND status = ?",
			userID, courseID, model.EnrollmentCompleted).
			First(&enrollment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrCourseNotCompleted
			}
			return err
		}

		record := &model.CourseRating{
			UserID:   userID,
			CourseID: courseID,
			Rating:   rating,
			Review:   review,
		}
		if err := s.RatingRepo.Upsert(tx, record); err != nil {
			return err
		}

		// Upsert 命中已有行时 record.ID 是零值，取回落库后的行
		stored, err := s.RatingRepo.FindByUserAndCourse(tx, userID, courseID)
		if err != nil {
			return err
		}

		average, err := s.RatingRepo.Average(tx, courseID)
		if err != nil {
			return err
		}
		average = round2(average)

		if err := s.CourseRepo.UpdateRatingAverage(tx, courseID, average); err != nil {
			return err
		}

		result = &RatingResult{Rating: stored, CourseAverage: average}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RatingService) CourseRatings(courseID uint) ([]model.CourseRating, error) {
	return s.RatingRepo.ListByCourse(courseID)
}
