package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/util"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteChapter_ProgressRecompute(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")
	course := env.createCourse(t, "Effective Feedback", "Communication", 8)
	env.enroll(t, user.ID, course.ID)

	for i := 0; i < 7; i++ {
		result, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[i].ID, 10)
		require.NoError(t, err)
		assert.False(t, result.IsCourseCompleted)
	}

	// 7/8 完成
	enrollment, err := env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 87.5, enrollment.ProgressPercentage)
	assert.Equal(t, model.EnrollmentActive, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)

	result, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[7].ID, 10)
	require.NoError(t, err)
	assert.True(t, result.IsCourseCompleted)
	assert.Equal(t, 100.0, result.CourseProgress)

	enrollment, err = env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, enrollment.ProgressPercentage)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
}

func TestCompleteChapter_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "bob")
	course := env.createCourse(t, "Threat Modeling", "Security", 4)
	env.enroll(t, user.ID, course.ID)

	first, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 15)
	require.NoError(t, err)
	firstCompletedAt := first.ChapterProgress.CompletedAt
	require.NotNil(t, firstCompletedAt)

	// 重复完成同一章节：进度不变，完成时间不被覆盖，时长继续累加
	second, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 25.0, second.CourseProgress)
	require.NotNil(t, second.ChapterProgress.CompletedAt)
	assert.Equal(t, firstCompletedAt.Unix(), second.ChapterProgress.CompletedAt.Unix())
	assert.Equal(t, 20, second.ChapterProgress.TimeSpentMinutes)

	stats, err := env.Stats.GetUserStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalTimeSpentMinutes)
	assert.Equal(t, 0, stats.TotalCoursesCompleted)
}

func TestCompleteChapter_CompletionTransitionOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "carol")
	course := env.createCourse(t, "GDPR Basics", "Compliance", 2)
	env.enroll(t, user.ID, course.ID)

	for _, chapter := range course.Chapters {
		_, err := env.Progress.CompleteChapter(user.ID, course.ID, chapter.ID, 0)
		require.NoError(t, err)
	}

	enrollment, err := env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	require.NotNil(t, enrollment.CompletedAt)
	completedAt := *enrollment.CompletedAt

	// 已完成课程再次完成章节，不产生第二次完成
	_, err = env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 0)
	require.NoError(t, err)

	enrollment, err = env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completedAt.Unix(), enrollment.CompletedAt.Unix())

	stats, err := env.Stats.GetUserStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCoursesCompleted)

	var notifications []model.Notification
	require.NoError(t, env.DB.Where("user_id = ? AND type = ?", user.ID, model.NotificationCourseCompleted).Find(&notifications).Error)
	assert.Len(t, notifications, 1)
}

func TestCompleteChapter_ZeroChapterCourse(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "dave")
	course := env.createCourse(t, "Placeholder Course", "Technology", 0)
	other := env.createCourse(t, "Filled Course", "Technology", 1)
	env.enroll(t, user.ID, course.ID)

	// 课程没有章节时任何章节ID都不属于它
	_, err := env.Progress.CompleteChapter(user.ID, course.ID, other.Chapters[0].ID, 0)
	assert.ErrorIs(t, err, util.ErrChapterNotFound)

	enrollment, err := env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, enrollment.ProgressPercentage)
	assert.Equal(t, model.EnrollmentActive, enrollment.Status)
}

func TestCompleteChapter_Errors(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "erin")
	course := env.createCourse(t, "Budgeting 101", "Leadership", 3)

	t.Run("not enrolled", func(t *testing.T) {
		_, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 0)
		assert.ErrorIs(t, err, util.ErrNotEnrolled)
	})

	t.Run("dropped enrollment", func(t *testing.T) {
		enrollment := env.enroll(t, user.ID, course.ID)
		require.NoError(t, env.DB.Model(&model.CourseEnrollment{}).
			Where("id = ?", enrollment.ID).
			Update("status", model.EnrollmentDropped).Error)

		_, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 0)
		assert.ErrorIs(t, err, util.ErrNotEnrolled)
	})

	t.Run("chapter of another course", func(t *testing.T) {
		other := env.createCourse(t, "Another Course", "Technology", 1)
		user2 := env.createUser(t, "frank")
		env.enroll(t, user2.ID, course.ID)

		_, err := env.Progress.CompleteChapter(user2.ID, course.ID, other.Chapters[0].ID, 0)
		assert.ErrorIs(t, err, util.ErrChapterNotFound)
	})
}

func TestCompleteChapter_ConcurrentDistinctChapters(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grace")
	course := env.createCourse(t, "Parallel Learning", "Technology", 4)
	env.enroll(t, user.ID, course.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[i].ID, 0)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// 两次完成都计入，进度反映两者
	enrollment, err := env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, enrollment.ProgressPercentage)
}

func TestCompleteChapter_ConcurrentSameChapter(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "heidi")
	course := env.createCourse(t, "Racing Basics", "Technology", 4)
	env.enroll(t, user.ID, course.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 10)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// 同一章节并发完成只产生一条进度记录，只计一次完成
	enrollment, err := env.EnrollmentRepo.FindByUserAndCourse(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, enrollment.ProgressPercentage)

	completed, err := env.EnrollmentRepo.CountCompletedChapters(env.DB, enrollment.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed)

	// 学习时长两次都累加
	progressRows, err := env.EnrollmentRepo.ChapterProgressByEnrollment(enrollment.ID)
	require.NoError(t, err)
	require.Len(t, progressRows, 1)
	assert.Equal(t, 20, progressRows[0].TimeSpentMinutes)
}
