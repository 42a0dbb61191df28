package model

// CourseRating 课程评分，每个 (user, course) 唯一，只有完成课程后才能评分。
// swagger:model CourseRating
type CourseRating struct {
	BaseModel
	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_course_rating" json:"userId"`
	CourseID uint   `gorm:"not null;uniqueIndex:idx_user_course_rating" json:"courseId"`
	Rating   int    `gorm:"not null" json:"rating"`
	Review   string `gorm:"type:text" json:"review"`
}

func (CourseRating) TableName() string {
	return "course_ratings"
}
