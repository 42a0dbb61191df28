package repository

import (
	"corp_learn_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// CourseFilter 课程目录筛选条件
type CourseFilter struct {
	Category   string
	Difficulty string
	Search     string
	Status     model.CourseStatus
}

func (f CourseFilter) IsEmpty() bool {
	return f.Category == "" && f.Difficulty == "" && f.Search == "" &&
		(f.Status == "" || f.Status == model.CoursePublished)
}

func (r *CourseRepository) List(filter CourseFilter) ([]model.Course, error) {
	status := filter.Status
	if status == "" {
		status = model.CoursePublished
	}

	query := r.DB.Model(&model.Course{}).
		Preload("Instructor").
		Preload("Category").
		Where("courses.status = ?", status)

	if filter.Category != "" {
		query = query.Joins("JOIN course_categories cat ON cat.id = courses.category_id").
			Where("cat.name LIKE ?", "%"+filter.Category+"%")
	}
	if filter.Difficulty != "" {
		query = query.Where("courses.difficulty = ?", filter.Difficulty)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("courses.title LIKE ? OR courses.description LIKE ?", searchTerm, searchTerm)
	}

	var courses []model.Course
	err := query.Order("courses.created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Instructor").
		Preload("Category").
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_chapters.order_index ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) CreateChapter(chapter *model.CourseChapter) error {
	return r.DB.Create(chapter).Error
}

func (r *CourseRepository) Categories() ([]model.CourseCategory, error) {
	var categories []model.CourseCategory
	err := r.DB.Order("name ASC").Find(&categories).Error
	return categories, err
}

// FindChapter 校验章节属于指定课程
func (r *CourseRepository) FindChapter(tx *gorm.DB, courseID, chapterID uint) (*model.CourseChapter, error) {
	var chapter model.CourseChapter
	err := tx.Where("id = ? AND course_id = ?", chapterID, courseID).First(&chapter).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *CourseRepository) CountChapters(tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.CourseChapter{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *CourseRepository) UpdateRatingAverage(tx *gorm.DB, courseID uint, average float64) error {
	return tx.Model(&model.Course{}).
		Where("id = ?", courseID).
		Update("rating_average", average).
		Error
}

func (r *CourseRepository) Count(status model.CourseStatus) (int64, error) {
	var count int64
	query := r.DB.Model(&model.Course{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
