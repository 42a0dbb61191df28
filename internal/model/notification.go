package model

import (
	"time"
)

type NotificationType string

const (
	NotificationCourseCompleted NotificationType = "course_completed"
	NotificationBadgeEarned     NotificationType = "badge_earned"
	NotificationSystem          NotificationType = "system"
)

// swagger:model Notification
type Notification struct {
	BaseModel
	UserID    uint             `gorm:"index;not null" json:"userId"`
	Type      NotificationType `gorm:"size:30;index" json:"type"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Priority  string           `gorm:"size:10;default:'normal'" json:"priority"`
	IsRead    bool             `gorm:"default:false;index" json:"isRead"`
	ActionURL string           `gorm:"size:255" json:"actionUrl"`
	Metadata  string           `gorm:"type:text" json:"metadata"`
	ReadAt    *time.Time       `json:"readAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
