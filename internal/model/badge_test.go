package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriteriaClauses(t *testing.T) {
	tests := []struct {
		name     string
		criteria string
		want     []CriteriaClause
	}{
		{
			name:     "courses completed only",
			criteria: `{"courses_completed": 1}`,
			want: []CriteriaClause{
				{Kind: MinCompletedCourses, Count: 1},
			},
		},
		{
			name:     "category with count yields both clauses",
			criteria: `{"category": "Leadership", "courses_completed": 3}`,
			want: []CriteriaClause{
				{Kind: MinCompletedCourses, Count: 3},
				{Kind: MinCompletedInCategory, Count: 3, Category: "Leadership"},
			},
		},
		{
			name:     "streak days",
			criteria: `{"streak_days": 30}`,
			want: []CriteriaClause{
				{Kind: MinStreakDays, Days: 30},
			},
		},
		{
			name:     "category without count is inert",
			criteria: `{"category": "Security"}`,
			want:     nil,
		},
		{
			name:     "unknown keys ignored",
			criteria: `{"perfect_score": true}`,
			want:     nil,
		},
		{
			name:     "period criteria is manual-only",
			criteria: `{"courses_in_period": 10, "period_days": 30}`,
			want:     nil,
		},
		{
			name:     "unknown keys alongside known ones",
			criteria: `{"courses_in_period": 5, "streak_days": 7}`,
			want: []CriteriaClause{
				{Kind: MinStreakDays, Days: 7},
			},
		},
		{
			name:     "empty criteria",
			criteria: "",
			want:     nil,
		},
		{
			name:     "malformed json",
			criteria: `{"courses_completed": `,
			want:     nil,
		},
		{
			name:     "non-positive counts ignored",
			criteria: `{"courses_completed": 0, "streak_days": -1}`,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			badge := &Badge{Criteria: tt.criteria}
			assert.Equal(t, tt.want, badge.CriteriaClauses())
		})
	}
}
