package model

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

// CourseCategory 课程分类
// swagger:model CourseCategory
type CourseCategory struct {
	BaseModel
	Name     string `gorm:"size:100;unique;not null" json:"name"`
	ColorHex string `gorm:"size:7" json:"colorHex"`
}

func (CourseCategory) TableName() string {
	return "course_categories"
}

// swagger:model Course
type Course struct {
	BaseModel
	Title                  string       `gorm:"size:200;not null" json:"title"`
	Description            string       `gorm:"type:text" json:"description"`
	InstructorID           *uint        `gorm:"index" json:"instructorId"`
	CategoryID             *uint        `gorm:"index" json:"categoryId"`
	Difficulty             string       `gorm:"size:20" json:"difficulty"`
	EstimatedDurationHours int          `gorm:"default:0" json:"estimatedDurationHours"`
	ThumbnailURL           string       `gorm:"size:255" json:"thumbnailUrl"`
	Status                 CourseStatus `gorm:"size:20;default:'draft';index" json:"status"`
	RatingAverage          float64      `gorm:"default:0" json:"ratingAverage"`

	Instructor *User           `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Category   *CourseCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Chapters   []CourseChapter `gorm:"foreignKey:CourseID" json:"chapters,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseChapter 课程章节，按 order_index 排序
// swagger:model CourseChapter
type CourseChapter struct {
	BaseModel
	CourseID                 uint   `gorm:"index;not null" json:"courseId"`
	Title                    string `gorm:"size:200;not null" json:"title"`
	Description              string `gorm:"type:text" json:"description"`
	ContentType              string `gorm:"size:20;default:'video'" json:"contentType"`
	EstimatedDurationMinutes int    `gorm:"default:0" json:"estimatedDurationMinutes"`
	OrderIndex               int    `gorm:"default:0" json:"orderIndex"`
}

func (CourseChapter) TableName() string {
	return "course_chapters"
}
