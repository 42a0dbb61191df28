package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"corp_learn_backend/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService 把引擎事件落成用户可见的通知。
// 事件是尽力而为的：写入失败只记日志，绝不回滚触发它的状态变更。
// 管理端的创建/群发走显式错误返回，不走尽力而为。
type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
	UserRepo         *repository.UserRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, userRepo *repository.UserRepository) *NotificationService {
	return &NotificationService{NotificationRepo: notificationRepo, UserRepo: userRepo}
}

func (s *NotificationService) NotifyCourseCompleted(userID, courseID uint, courseTitle string) {
	metadata, _ := json.Marshal(map[string]interface{}{
		"course_id": courseID,
	})

	notification := &model.Notification{
		UserID:   userID,
		Type:     model.NotificationCourseCompleted,
		Title:    "恭喜完成课程",
		Message:  fmt.Sprintf("你已完成课程《%s》", courseTitle),
		Priority: "normal",
		Metadata: string(metadata),
	}

	if err := s.NotificationRepo.Create(notification); err != nil {
		logger.Log.Error("failed to create course_completed notification",
			zap.Uint("userID", userID),
			zap.Uint("courseID", courseID),
			zap.Error(err))
	}
}

func (s *NotificationService) NotifyBadgeEarned(userID uint, badge *model.Badge, courseID *uint) {
	meta := map[string]interface{}{
		"badge_id": badge.ID,
	}
	if courseID != nil {
		meta["course_id"] = *courseID
	}
	metadata, _ := json.Marshal(meta)

	notification := &model.Notification{
		UserID:   userID,
		Type:     model.NotificationBadgeEarned,
		Title:    "获得新徽章",
		Message:  fmt.Sprintf("你获得了徽章「%s」：%s", badge.Name, badge.Description),
		Priority: "high",
		Metadata: string(metadata),
	}

	if err := s.NotificationRepo.Create(notification); err != nil {
		logger.Log.Error("failed to create badge_earned notification",
			zap.Uint("userID", userID),
			zap.Uint("badgeID", badge.ID),
			zap.Error(err))
	}
}

func (s *NotificationService) List(userID uint, filter repository.NotificationFilter, page, limit int) ([]model.Notification, int64, int64, error) {
	notifications, total, err := s.NotificationRepo.ListByUser(userID, filter, page, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.NotificationRepo.UnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return notifications, total, unread, nil
}

func (s *NotificationService) MarkRead(notificationID, userID uint) (bool, error) {
	affected, err := s.NotificationRepo.MarkRead(notificationID, userID)
	return affected > 0, err
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	return s.NotificationRepo.MarkAllRead(userID)
}

func (s *NotificationService) Delete(notificationID, userID uint) (bool, error) {
	affected, err := s.NotificationRepo.Delete(notificationID, userID)
	return affected > 0, err
}

// NotificationInput 管理端创建/群发通知的内容
type NotificationInput struct {
	Type      model.NotificationType
	Title     string
	Message   string
	Priority  string
	ActionURL string
	Metadata  string
}

func (input NotificationInput) toModel(userID uint) *model.Notification {
	priority := input.Priority
	if priority == "" {
		priority = "normal"
	}
	return &model.Notification{
		UserID:    userID,
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Priority:  priority,
		ActionURL: input.ActionURL,
		Metadata:  input.Metadata,
	}
}

// Send 管理员向单个用户发送通知
func (s *NotificationService) Send(targetUserID uint, input NotificationInput) (*model.Notification, error) {
	if _, err := s.UserRepo.FindByID(targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	notification := input.toModel(targetUserID)
	if err := s.NotificationRepo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// Broadcast 向多个用户群发同一条通知。
// 不存在或已停用的用户跳过并回报，整批共享一个 batch_id 便于追踪。
func (s *NotificationService) Broadcast(userIDs []uint, input NotificationInput) ([]model.Notification, []uint, error) {
	meta := map[string]interface{}{
		"batch_id": model.GenerateUUID(),
	}
	if input.Metadata != "" {
		var extra map[string]interface{}
		if err := json.Unmarshal([]byte(input.Metadata), &extra); err == nil {
			for k, v := range extra {
				if k != "batch_id" {
					meta[k] = v
				}
			}
		}
	}
	metadata, _ := json.Marshal(meta)
	input.Metadata = string(metadata)

	var created []model.Notification
	var invalid []uint
	for _, userID := range userIDs {
		user, err := s.UserRepo.FindByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				invalid = append(invalid, userID)
				continue
			}
			return nil, nil, err
		}
		if user.Disabled {
			invalid = append(invalid, userID)
			continue
		}

		notification := input.toModel(userID)
		if err := s.NotificationRepo.Create(notification); err != nil {
			return nil, nil, err
		}
		created = append(created, *notification)
	}
	return created, invalid, nil
}

// NotificationStats 当前用户的通知统计
type NotificationStats struct {
	Total      int64            `json:"total"`
	Unread     int64            `json:"unread"`
	Read       int64            `json:"read"`
	ByType     map[string]int64 `json:"byType"`
	ByPriority map[string]int64 `json:"byPriority"`
}

func (s *NotificationService) StatsForUser(userID uint) (*NotificationStats, error) {
	byType, err := s.NotificationRepo.CountByType(userID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.NotificationRepo.CountByPriority(userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.NotificationRepo.UnreadCount(userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range byType {
		total += count
	}
	return &NotificationStats{
		Total:      total,
		Unread:     unread,
		Read:       total - unread,
		ByType:     byType,
		ByPriority: byPriority,
	}, nil
}
