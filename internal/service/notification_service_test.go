package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationList_FiltersAndUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")
	other := env.createUser(t, "bob")

	course := env.createCourse(t, "Effective Feedback", "Communication", 1)
	env.Notifications.NotifyCourseCompleted(user.ID, course.ID, course.Title)
	env.Notifications.NotifyBadgeEarned(user.ID, env.badgeByName(t, "First Steps"), &course.ID)
	env.Notifications.NotifyCourseCompleted(other.ID, course.ID, course.Title)

	notifications, total, unread, err := env.Notifications.List(user.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(2), unread)
	assert.Len(t, notifications, 2)

	// 按类型过滤
	notifications, total, _, err = env.Notifications.List(user.ID, repository.NotificationFilter{
		Type: model.NotificationBadgeEarned,
	}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, model.NotificationBadgeEarned, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "First Steps")
}

func TestNotificationMarkRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	course := env.createCourse(t, "Effective Feedback", "Communication", 1)
	env.Notifications.NotifyCourseCompleted(user.ID, course.ID, course.Title)

	notifications, _, _, err := env.Notifications.List(user.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	target := notifications[0]

	ok, err := env.Notifications.MarkRead(target.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// 重复标记无效果
	ok, err = env.Notifications.MarkRead(target.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, unread, err := env.Notifications.List(user.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// 不能操作他人的通知
	stranger := env.createUser(t, "bob")
	ok, err = env.Notifications.MarkRead(target.ID, stranger.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotificationMarkAllReadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	course := env.createCourse(t, "Effective Feedback", "Communication", 1)
	env.Notifications.NotifyCourseCompleted(user.ID, course.ID, course.Title)
	env.Notifications.NotifyBadgeEarned(user.ID, env.badgeByName(t, "First Steps"), nil)

	marked, err := env.Notifications.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	marked, err = env.Notifications.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)

	notifications, _, _, err := env.Notifications.List(user.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	ok, err := env.Notifications.Delete(notifications[0].ID, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Notifications.Delete(notifications[0].ID, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, total, _, err := env.Notifications.List(user.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestNotificationSend(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	notification, err := env.Notifications.Send(user.ID, NotificationInput{
		Type:    model.NotificationSystem,
		Title:   "系统维护",
		Message: "本周五晚间停机维护",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, notification.UserID)
	assert.Equal(t, model.NotificationSystem, notification.Type)
	assert.Equal(t, "normal", notification.Priority)
	assert.False(t, notification.IsRead)

	_, err = env.Notifications.Send(99999, NotificationInput{
		Type:  model.NotificationSystem,
		Title: "系统维护",
	})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestNotificationBroadcast(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	require.NoError(t, env.DB.Model(&model.User{}).
		Where("id = ?", carol.ID).
		Update("disabled", true).Error)

	created, invalid, err := env.Notifications.Broadcast(
		[]uint{alice.ID, bob.ID, carol.ID, 99999},
		NotificationInput{
			Type:     model.NotificationSystem,
			Title:    "新课程上线",
			Priority: "high",
		})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, []uint{carol.ID, 99999}, invalid)

	// 整批共享同一个 batch_id
	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(created[0].Metadata), &first))
	require.NoError(t, json.Unmarshal([]byte(created[1].Metadata), &second))
	assert.NotEmpty(t, first["batch_id"])
	assert.Equal(t, first["batch_id"], second["batch_id"])

	_, _, unread, err := env.Notifications.List(bob.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	_, total, _, err := env.Notifications.List(carol.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestNotificationStatsForUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	course := env.createCourse(t, "Effective Feedback", "Communication", 1)
	env.Notifications.NotifyCourseCompleted(user.ID, course.ID, course.Title)
	env.Notifications.NotifyBadgeEarned(user.ID, env.badgeByName(t, "First Steps"), nil)
	_, err := env.Notifications.Send(user.ID, NotificationInput{
		Type:     model.NotificationSystem,
		Title:    "系统维护",
		Priority: "high",
	})
	require.NoError(t, err)

	notifications, _, _, err := env.Notifications.List(user.ID, repository.NotificationFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	_, err = env.Notifications.MarkRead(notifications[0].ID, user.ID)
	require.NoError(t, err)

	stats, err := env.Notifications.StatsForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Unread)
	assert.Equal(t, int64(1), stats.Read)
	assert.Equal(t, int64(1), stats.ByType[string(model.NotificationSystem)])
	assert.Equal(t, int64(1), stats.ByType[string(model.NotificationCourseCompleted)])
	assert.Equal(t, int64(1), stats.ByType[string(model.NotificationBadgeEarned)])
	assert.Equal(t, int64(2), stats.ByPriority["high"])
	assert.Equal(t, int64(1), stats.ByPriority["normal"])
}
