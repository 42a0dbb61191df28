package repository

import (
	"corp_learn_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.CourseEnrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.CourseEnrollment, error) {
	var enrollment model.CourseEnrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindForUpdate 锁定报名行。报名行是进度重算的互斥单元：
// 同一报名的并发章节完成在这里串行化，重算读到的是提交时刻的计数。
func (r *EnrollmentRepository) FindForUpdate(tx *gorm.DB, userID, courseID uint) (*model.CourseEnrollment, error) {
	var enrollment model.CourseEnrollment
	err := lockForUpdate(tx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CompleteChapterProgress 幂等地把 (enrollment, chapter) 标记为已完成。
// 已存在且已完成时不覆盖 completed_at；学习时长始终累加。
func (r *EnrollmentRepository) CompleteChapterProgress(tx *gorm.DB, enrollmentID, userID, chapterID uint, timeSpent int, now time.Time) (*model.ChapterProgress, error) {
	progress := model.ChapterProgress{
		EnrollmentID:     enrollmentID,
		UserID:           userID,
		ChapterID:        chapterID,
		IsCompleted:      true,
		CompletedAt:      &now,
		TimeSpentMinutes: timeSpent,
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "chapter_id"}},
		DoNothing: true,
	}).Create(&progress)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return &progress, nil
	}

	// 已有记录
	var existing model.ChapterProgress
	if err := tx.Where("enrollment_id = ? AND chapter_id = ?", enrollmentID, chapterID).
		First(&existing).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if !existing.IsCompleted {
		updates["is_completed"] = true
		updates["completed_at"] = now
	}
	if timeSpent > 0 {
		updates["time_spent_minutes"] = gorm.Expr("time_spent_minutes + ?", timeSpent)
	}
	if len(updates) > 0 {
		if err := tx.Model(&model.ChapterProgress{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if !existing.IsCompleted {
		existing.IsCompleted = true
		existing.CompletedAt = &now
	}
	existing.TimeSpentMinutes += timeSpent
	return &existing, nil
}

// CountCompletedChapters 统计某条报名中已完成、且仍属于该课程的章节数
func (r *EnrollmentRepository) CountCompletedChapters(tx *gorm.DB, enrollmentID, courseID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.ChapterProgress{}).
		Joins("JOIN course_chapters cc ON cc.id = chapter_progress.chapter_id").
		Where("chapter_progress.enrollment_id = ? AND chapter_progress.is_completed = ? AND cc.course_id = ? AND cc.deleted_at IS NULL",
			enrollmentID, true, courseID).
		Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) UpdateProgress(tx *gorm.DB, enrollmentID uint, updates map[string]interface{}) error {
	return tx.Model(&model.CourseEnrollment{}).
		Where("id = ?", enrollmentID).
		Updates(updates).Error
}

func (r *EnrollmentRepository) ChapterProgressByEnrollment(enrollmentID uint) ([]model.ChapterProgress, error) {
	var progress []model.ChapterProgress
	err := r.DB.Where("enrollment_id = ?", enrollmentID).Find(&progress).Error
	return progress, err
}

func (r *EnrollmentRepository) ListByUser(userID uint, status model.EnrollmentStatus) ([]model.CourseEnrollment, error) {
	query := r.DB.
		Preload("Course").
		Preload("Course.Category").
		Preload("Course.Instructor").
		Where("user_id = ?", userID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var enrollments []model.CourseEnrollment
	err := query.Order("enrolled_at DESC").Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountCompletedByUser(tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND status = ?", userID, model.EnrollmentCompleted).
		Count(&count).Error
	return count, err
}

// CountCompletedInCategory 统计用户在某分类下完成的课程数
func (r *EnrollmentRepository) CountCompletedInCategory(tx *gorm.DB, userID uint, category string) (int64, error) {
	var count int64
	err := tx.Model(&model.CourseEnrollment{}).
		Joins("JOIN courses c ON c.id = course_enrollments.course_id").
		Joins("JOIN course_categories cat ON cat.id = c.category_id").
		Where("course_enrollments.user_id = ? AND course_enrollments.status = ? AND cat.name = ?",
			userID, model.EnrollmentCompleted, category).
		Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) CountByUserAndStatus(userID uint, status model.EnrollmentStatus) (int64, error) {
	query := r.DB.Model(&model.CourseEnrollment{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) CountByStatus(status model.EnrollmentStatus) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CompletionDates 返回用户所有课程完成时间，用于统计重建
func (r *EnrollmentRepository) CompletionDates(tx *gorm.DB, userID uint) ([]time.Time, error) {
	var dates []time.Time
	err := tx.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND status = ? AND completed_at IS NOT NULL", userID, model.EnrollmentCompleted).
		Order("completed_at ASC").
		Pluck("completed_at", &dates).Error
	return dates, err
}

// SumTimeSpent 用户在所有章节上累计的学习分钟数
func (r *EnrollmentRepository) SumTimeSpent(tx *gorm.DB, userID uint) (int64, error) {
	var total *int64
	err := tx.Model(&model.ChapterProgress{}).
		Where("user_id = ?", userID).
		Select("SUM(time_spent_minutes)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
