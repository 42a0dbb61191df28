package model

import (
	"time"
)

// UserStats 按用户缓存的汇总计数，必须能通过重扫报名/章节/徽章历史重建
// （见 StatsService.Reconcile）。计数字段只通过可交换的自增语句更新。
// swagger:model UserStats
type UserStats struct {
	BaseModel
	UserID                uint       `gorm:"not null;uniqueIndex" json:"userId"`
	TotalCoursesCompleted int        `gorm:"default:0" json:"totalCoursesCompleted"`
	TotalBadgesEarned     int        `gorm:"default:0" json:"totalBadgesEarned"`
	CurrentStreakDays     int        `gorm:"default:0" json:"currentStreakDays"`
	LongestStreakDays     int        `gorm:"default:0" json:"longestStreakDays"`
	TotalTimeSpentMinutes int        `gorm:"default:0" json:"totalTimeSpentMinutes"`
	LastActivityDate      *time.Time `json:"lastActivityDate"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
