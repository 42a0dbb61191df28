package service

import (
	"context"
	"corp_learn_backend/internal/config"
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCourseService(env *testEnv) *CourseService {
	cfg := &config.Config{}
	cfg.Catalog.CacheTTLSeconds = 60
	// Redis 为空时目录缓存直接旁路
	return NewCourseService(env.CourseRepo, env.EnrollmentRepo, nil, cfg, zap.NewNop())
}

func TestEnroll(t *testing.T) {
	env := newTestEnv(t)
	svc := newCourseService(env)
	user := env.createUser(t, "enroll-user")
	course := env.createCourse(t, "Enrollable", "Technology", 2)

	t.Run("success", func(t *testing.T) {
		enrollment, err := svc.Enroll(user.ID, course.ID)
		require.NoError(t, err)
		assert.Equal(t, model.EnrollmentActive, enrollment.Status)
		assert.Equal(t, 0.0, enrollment.ProgressPercentage)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.Enroll(user.ID, course.ID)
		assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
	})

	t.Run("missing course", func(t *testing.T) {
		_, err := svc.Enroll(user.ID, 99999)
		assert.ErrorIs(t, err, util.ErrCourseNotFound)
	})

	t.Run("unpublished course", func(t *testing.T) {
		draft := &model.Course{Title: "Draft Course", Status: model.CourseDraft}
		require.NoError(t, env.CourseRepo.Create(draft))

		_, err := svc.Enroll(user.ID, draft.ID)
		assert.ErrorIs(t, err, util.ErrCourseNotPublished)
	})
}

func TestGetCourses_Filters(t *testing.T) {
	env := newTestEnv(t)
	svc := newCourseService(env)
	ctx := context.Background()

	env.createCourse(t, "Secure Coding", "Security", 1)
	env.createCourse(t, "Leading Teams", "Leadership", 1)
	draft := &model.Course{Title: "Hidden Draft", Status: model.CourseDraft}
	require.NoError(t, env.CourseRepo.Create(draft))

	t.Run("default listing excludes drafts", func(t *testing.T) {
		courses, err := svc.GetCourses(ctx, repository.CourseFilter{})
		require.NoError(t, err)
		assert.Len(t, courses, 2)
	})

	t.Run("category filter", func(t *testing.T) {
		courses, err := svc.GetCourses(ctx, repository.CourseFilter{Category: "Security"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "Secure Coding", courses[0].Title)
	})

	t.Run("search filter", func(t *testing.T) {
		courses, err := svc.GetCourses(ctx, repository.CourseFilter{Search: "Leading"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "Leading Teams", courses[0].Title)
	})
}

func TestGetCourse_CallerEnrichment(t *testing.T) {
	env := newTestEnv(t)
	svc := newCourseService(env)
	user := env.createUser(t, "detail-user")
	course := env.createCourse(t, "Detailed", "Technology", 3)
	env.enroll(t, user.ID, course.ID)

	_, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 5)
	require.NoError(t, err)

	t.Run("anonymous caller", func(t *testing.T) {
		detail, err := svc.GetCourse(course.ID, 0)
		require.NoError(t, err)
		assert.Nil(t, detail.Enrollment)
		assert.Len(t, detail.Course.Chapters, 3)
	})

	t.Run("enrolled caller", func(t *testing.T) {
		detail, err := svc.GetCourse(course.ID, user.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.Enrollment)
		assert.Equal(t, 33.33, detail.Enrollment.ProgressPercentage)
		require.Len(t, detail.ChapterProgress, 1)
		assert.True(t, detail.ChapterProgress[0].IsCompleted)
	})
}

func TestGetUserCourses_ChapterCounts(t *testing.T) {
	env := newTestEnv(t)
	svc := newCourseService(env)
	user := env.createUser(t, "mycourses-user")
	course := env.createCourse(t, "Counted", "Technology", 4)
	env.enroll(t, user.ID, course.ID)

	_, err := env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[0].ID, 0)
	require.NoError(t, err)
	_, err = env.Progress.CompleteChapter(user.ID, course.ID, course.Chapters[1].ID, 0)
	require.NoError(t, err)

	courses, err := svc.GetUserCourses(user.ID, "")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, int64(2), courses[0].CompletedChapters)
	assert.Equal(t, int64(4), courses[0].TotalChapters)
	assert.Equal(t, 50.0, courses[0].Enrollment.ProgressPercentage)
}
