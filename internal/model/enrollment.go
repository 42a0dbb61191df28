package model

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// CourseEnrollment 用户与课程的关系，每个 (user, course) 最多一条。
// progress_percentage 永远由已完成章节数重新计算，不做增量累加。
// swagger:model CourseEnrollment
type CourseEnrollment struct {
	BaseModel
	UserID             uint             `gorm:"not null;uniqueIndex:idx_user_course" json:"userId"`
	CourseID           uint             `gorm:"not null;uniqueIndex:idx_user_course" json:"courseId"`
	EnrolledAt         time.Time        `gorm:"not null" json:"enrolledAt"`
	ProgressPercentage float64          `gorm:"default:0" json:"progressPercentage"`
	Status             EnrollmentStatus `gorm:"size:20;default:'active';index" json:"status"`
	CompletedAt        *time.Time       `json:"completedAt"`
	LastAccessedAt     *time.Time       `json:"lastAccessedAt"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}

// ChapterProgress 章节完成记录，属于某条报名记录，每个 (enrollment, chapter) 唯一。
// is_completed 一旦为 true 不会被正常流程回退。
// swagger:model ChapterProgress
type ChapterProgress struct {
	BaseModel
	EnrollmentID     uint       `gorm:"not null;uniqueIndex:idx_enrollment_chapter" json:"enrollmentId"`
	UserID           uint       `gorm:"index;not null" json:"userId"`
	ChapterID        uint       `gorm:"not null;uniqueIndex:idx_enrollment_chapter" json:"chapterId"`
	IsCompleted      bool       `gorm:"default:false" json:"isCompleted"`
	CompletedAt      *time.Time `json:"completedAt"`
	TimeSpentMinutes int        `gorm:"default:0" json:"timeSpentMinutes"`
}

func (ChapterProgress) TableName() string {
	return "chapter_progress"
}
