package repository

import (
	"corp_learn_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(notification *model.Notification) error {
	return r.DB.Create(notification).Error
}

// NotificationFilter 通知列表筛选条件
type NotificationFilter struct {
	IsRead *bool
	Type   model.NotificationType
}

func (r *NotificationRepository) ListByUser(userID uint, filter NotificationFilter, page, limit int) ([]model.Notification, int64, error) {
	query := r.DB.Model(&model.Notification{}).Where("user_id = ?", userID)

	if filter.IsRead != nil {
		query = query.Where("is_read = ?", *filter.IsRead)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) CountByType(userID uint) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := r.DB.Model(&model.Notification{}).
		Select("type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (r *NotificationRepository) CountByPriority(userID uint) (map[string]int64, error) {
	var rows []struct {
		Priority string
		Count    int64
	}
	err := r.DB.Model(&model.Notification{}).
		Select("priority, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("priority").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}

func (r *NotificationRepository) MarkRead(notificationID, userID uint) (int64, error) {
	res := r.DB.Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) MarkAllRead(userID uint) (int64, error) {
	res := r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(notificationID, userID uint) (int64, error) {
	res := r.DB.Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
