package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", value, time.Local)
	require.NoError(t, err)
	return d
}

func TestRecordCourseCompletion_Streaks(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "streak-user")

	base := day(t, "2026-03-02")

	// 第一天
	require.NoError(t, env.Stats.RecordCourseCompletion(env.DB, user.ID, base))
	stats, err := env.StatsRepo.FindByUser(env.DB, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreakDays)
	assert.Equal(t, 1, stats.LongestStreakDays)

	// 同一天第二次完成：连续天数不变
	require.NoError(t, env.Stats.RecordCourseCompletion(env.DB, user.ID, base.Add(3*time.Hour)))
	stats, err = env.StatsRepo.FindByUser(env.DB, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreakDays)
	assert.Equal(t, 2, stats.TotalCoursesCompleted)

	// 次日：+1
	require.NoError(t, env.Stats.RecordCourseCompletion(env.DB, user.ID, base.AddDate(0, 0, 1)))
	stats, err = env.StatsRepo.FindByUser(env.DB, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentStreakDays)
	assert.Equal(t, 2, stats.LongestStreakDays)

	// 隔了两天：重置为1，最长保留
	require.NoError(t, env.Stats.RecordCourseCompletion(env.DB, user.ID, base.AddDate(0, 0, 4)))
	stats, err = env.StatsRepo.FindByUser(env.DB, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreakDays)
	assert.Equal(t, 2, stats.LongestStreakDays)
}

func TestComputeStreaks(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		current, longest, last := computeStreaks(nil)
		assert.Equal(t, 0, current)
		assert.Equal(t, 0, longest)
		assert.Nil(t, last)
	})

	t.Run("single day with duplicates", func(t *testing.T) {
		d := day(t, "2026-05-10")
		current, longest, last := computeStreaks([]time.Time{d, d.Add(2 * time.Hour)})
		assert.Equal(t, 1, current)
		assert.Equal(t, 1, longest)
		require.NotNil(t, last)
		assert.True(t, last.Equal(d))
	})

	t.Run("trailing run shorter than longest", func(t *testing.T) {
		dates := []time.Time{
			day(t, "2026-05-01"),
			day(t, "2026-05-02"),
			day(t, "2026-05-03"),
			day(t, "2026-05-10"),
			day(t, "2026-05-11"),
		}
		current, longest, last := computeStreaks(dates)
		assert.Equal(t, 2, current)
		assert.Equal(t, 3, longest)
		require.NotNil(t, last)
		assert.True(t, last.Equal(day(t, "2026-05-11")))
	})
}

func TestGetUserStats(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "stats-user")

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.Stats.GetUserStats(99999)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})

	t.Run("fresh user gets zero row", func(t *testing.T) {
		stats, err := env.Stats.GetUserStats(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalCoursesCompleted)
		assert.Equal(t, int64(0), stats.TotalEnrollments)
	})

	t.Run("enrollment counts derived live", func(t *testing.T) {
		done := env.createCourse(t, "Stats Done", "Technology", 1)
		active := env.createCourse(t, "Stats Active", "Technology", 2)
		env.completeCourse(t, user.ID, done)
		env.enroll(t, user.ID, active.ID)

		stats, err := env.Stats.GetUserStats(user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalEnrollments)
		assert.Equal(t, int64(1), stats.ActiveCourses)
		assert.Equal(t, int64(1), stats.CompletedCourses)
		assert.Equal(t, 1, stats.TotalCoursesCompleted)
	})
}

func TestReconcile_RepairsDriftedCounters(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reconcile-user")

	c1 := env.createCourse(t, "Rec One", "Leadership", 2)
	c2 := env.createCourse(t, "Rec Two", "Security", 1)
	env.completeCourse(t, user.ID, c1)
	env.completeCourse(t, user.ID, c2)

	_, err := env.Achievement.CheckAchievements(user.ID)
	require.NoError(t, err)

	before, err := env.StatsRepo.FindByUser(env.DB, user.ID)
	require.NoError(t, err)

	// 人为制造漂移
	require.NoError(t, env.DB.Model(&model.UserStats{}).
		Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{
			"total_courses_completed":  42,
			"total_badges_earned":      42,
			"total_time_spent_minutes": 42,
			"current_streak_days":      42,
			"longest_streak_days":      42,
		}).Error)

	repaired, err := env.Stats.Reconcile(user.ID)
	require.NoError(t, err)

	assert.Equal(t, before.TotalCoursesCompleted, repaired.TotalCoursesCompleted)
	assert.Equal(t, before.TotalBadgesEarned, repaired.TotalBadgesEarned)
	assert.Equal(t, before.TotalTimeSpentMinutes, repaired.TotalTimeSpentMinutes)
	require.NotNil(t, repaired.LastActivityDate)
}

func TestReconcile_MatchesIncrementalStreaks(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reconcile-streak")
	course := env.createCourse(t, "Rec Streak", "Technology", 3)
	env.completeCourse(t, user.ID, course)

	// 把完成时间改写成三天前-两天前的连续两天，再补一条今天的完成
	enrollment, err := env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)

	d1 := dateOnly(time.Now()).AddDate(0, 0, -1)
	require.NoError(t, env.DB.Model(&model.CourseEnrollment{}).
		Where("id = ?", enrollment.ID).
		Update("completed_at", d1).Error)

	other := env.createCourse(t, "Rec Streak Two", "Technology", 1)
	env.completeCourse(t, user.ID, other)

	repaired, err := env.Stats.Reconcile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired.CurrentStreakDays)
	assert.Equal(t, 2, repaired.LongestStreakDays)
	assert.Equal(t, 2, repaired.TotalCoursesCompleted)
}

func TestReconcile_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Stats.Reconcile(99999)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
