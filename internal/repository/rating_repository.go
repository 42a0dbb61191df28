package repository

import (
	"corp_learn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	DB *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

// Upsert 写入或覆盖 (user, course) 的评分
func (r *RatingRepository) Upsert(tx *gorm.DB, rating *model.CourseRating) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
	}).Create(rating).Error
}

func (r *RatingRepository) FindByUserAndCourse(tx *gorm.DB, userID, courseID uint) (*model.CourseRating, error) {
	var rating model.CourseRating
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Average 对课程全部评分重算算术平均值，永不增量维护
func (r *RatingRepository) Average(tx *gorm.DB, courseID uint) (float64, error) {
	var avg *float64
	err := tx.Model(&model.CourseRating{}).
		Where("course_id = ?", courseID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

func (r *RatingRepository) ListByCourse(courseID uint) ([]model.CourseRating, error) {
	var ratings []model.CourseRating
	err := r.DB.Where("course_id = ?", courseID).Order("updated_at DESC").Find(&ratings).Error
	return ratings, err
}
