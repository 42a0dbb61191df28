package service

import (
	"corp_learn_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateCourse_RequiresCompletion(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "rater1")
	course := env.createCourse(t, "Public Speaking", "Communication", 2)

	t.Run("never enrolled", func(t *testing.T) {
		_, err := env.Rating.RateCourse(user.ID, course.ID, 5, "")
		assert.ErrorIs(t, err, util.ErrCourseNotCompleted)
	})

	t.Run("enrolled but active", func(t *testing.T) {
		env.enroll(t, user.ID, course.ID)
		_, err := env.Rating.RateCourse(user.ID, course.ID, 5, "")
		assert.ErrorIs(t, err, util.ErrCourseNotCompleted)
	})

	t.Run("after completion", func(t *testing.T) {
		for _, chapter := range course.Chapters {
			_, err := env.Progress.CompleteChapter(user.ID, course.ID, chapter.ID, 0)
			require.NoError(t, err)
		}

		result, err := env.Rating.RateCourse(user.ID, course.ID, 5, "great course")
		require.NoError(t, err)
		assert.Equal(t, 5, result.Rating.Rating)
		assert.Equal(t, 5.0, result.CourseAverage)
	})
}

func TestRateCourse_RatingRange(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "rater2")
	course := env.createCourse(t, "Incident Response", "Security", 1)
	env.completeCourse(t, user.ID, course)

	for _, invalid := range []int{0, -1, 6, 100} {
		_, err := env.Rating.RateCourse(user.ID, course.ID, invalid, "")
		assert.ErrorIs(t, err, util.ErrInvalidRating)
	}

	for _, valid := range []int{1, 5} {
		_, err := env.Rating.RateCourse(user.ID, course.ID, valid, "")
		assert.NoError(t, err)
	}
}

func TestRateCourse_UpsertAndAverage(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, "Delegation Skills", "Leadership", 1)

	alice := env.createUser(t, "avg-alice")
	bob := env.createUser(t, "avg-bob")
	carol := env.createUser(t, "avg-carol")
	env.completeCourse(t, alice.ID, course)
	env.completeCourse(t, bob.ID, course)
	env.completeCourse(t, carol.ID, course)

	_, err := env.Rating.RateCourse(alice.ID, course.ID, 5, "")
	require.NoError(t, err)
	_, err = env.Rating.RateCourse(bob.ID, course.ID, 4, "")
	require.NoError(t, err)

	result, err := env.Rating.RateCourse(carol.ID, course.ID, 4, "")
	require.NoError(t, err)
	// (5+4+4)/3 = 4.333…，保留两位
	assert.Equal(t, 4.33, result.CourseAverage)

	// 重复评分覆盖旧值而不是新增一行，均分随之重算
	result, err = env.Rating.RateCourse(alice.ID, course.ID, 2, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, 3.33, result.CourseAverage)

	ratings, err := env.Rating.CourseRatings(course.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 3)

	stored, err := env.CourseRepo.FindByID(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.33, stored.RatingAverage)
}
