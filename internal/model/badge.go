package model

import (
	"encoding/json"
	"time"
)

// Badge 徽章目录，引擎只读。
// criteria 按原始目录以 JSON 属性包存储，例如：
//
//	{"courses_completed": 3, "category": "Leadership"}
//	{"streak_days": 30}
//
// 评估时解析为 CriteriaClause 列表，未知字段忽略（这类徽章只能手动颁发）。
// swagger:model Badge
type Badge struct {
	BaseModel
	Name        string `gorm:"size:100;unique;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Icon        string `gorm:"size:50" json:"icon"`
	Rarity      string `gorm:"size:20" json:"rarity"`
	Criteria    string `gorm:"type:text" json:"criteria"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

func (Badge) TableName() string {
	return "badges"
}

type CriteriaKind string

const (
	MinCompletedCourses    CriteriaKind = "min_completed_courses"
	MinCompletedInCategory CriteriaKind = "min_completed_in_category"
	MinStreakDays          CriteriaKind = "min_streak_days"
)

// CriteriaClause 徽章资格判定的单个条款。同一徽章的多个条款之间是并集关系：
// 任意一条满足即可获得徽章（category+courses_completed 并存时，
// 总量条款与分类条款是相互独立的两条）。
type CriteriaClause struct {
	Kind     CriteriaKind
	Count    int
	Category string
	Days     int
}

type badgeCriteria struct {
	CoursesCompleted int    `json:"courses_completed"`
	Category         string `json:"category"`
	StreakDays       int    `json:"streak_days"`
}

// CriteriaClauses 解析 criteria JSON 为条款列表。解析失败或没有可识别的
// 字段时返回空列表，对应的徽章永远不会被自动授予。
func (b *Badge) CriteriaClauses() []CriteriaClause {
	if b.Criteria == "" {
		return nil
	}

	var c badgeCriteria
	if err := json.Unmarshal([]byte(b.Criteria), &c); err != nil {
		return nil
	}

	var clauses []CriteriaClause
	if c.CoursesCompleted > 0 {
		clauses = append(clauses, CriteriaClause{
			Kind:  MinCompletedCourses,
			Count: c.CoursesCompleted,
		})
		if c.Category != "" {
			clauses = append(clauses, CriteriaClause{
				Kind:     MinCompletedInCategory,
				Count:    c.CoursesCompleted,
				Category: c.Category,
			})
		}
	}
	if c.StreakDays > 0 {
		clauses = append(clauses, CriteriaClause{
			Kind: MinStreakDays,
			Days: c.StreakDays,
		})
	}

	return clauses
}

// UserBadge 用户获得的徽章，每个 (user, badge) 最多一条，由数据库唯一索引保证。
// awarded_by 为空表示自动授予。
// swagger:model UserBadge
type UserBadge struct {
	BaseModel
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"userId"`
	BadgeID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badgeId"`
	EarnedAt  time.Time `gorm:"not null" json:"earnedAt"`
	CourseID  *uint     `json:"courseId"`
	AwardedBy *uint     `json:"awardedBy"`

	Badge *Badge `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
