package controller

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/service"
	"corp_learn_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

// GetNotifications godoc
// @Summary 通知列表
// @Description 分页返回当前用户通知，附未读数
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码，默认1"
// @Param   limit query int false "每页条数，默认20"
// @Param   unread query bool false "仅未读"
// @Param   type query string false "course_completed/badge_earned/system"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.NotificationFilter{
		Type: model.NotificationType(ctx.Query("type")),
	}
	if ctx.Query("unread") == "true" {
		unread := false
		filter.IsRead = &unread
	}

	notifications, total, unreadCount, err := c.NotificationService.List(claims.UserID, filter, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"notifications": notifications,
		"total":         total,
		"unreadCount":   unreadCount,
		"page":          page,
		"limit":         limit,
	})
}

// GetNotificationStats godoc
// @Summary 通知统计
// @Description 当前用户通知按已读状态、类型、优先级的计数
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.NotificationStats} "成功"
// @Router /api/notifications/stats [get]
func (c *NotificationController) GetNotificationStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.NotificationService.StatsForUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

type SendNotificationRequest struct {
	UserID    uint   `json:"userId" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=course_completed badge_earned system"`
	Title     string `json:"title" binding:"required,max=200"`
	Message   string `json:"message" binding:"max=1000"`
	Priority  string `json:"priority" binding:"omitempty,oneof=low normal high"`
	ActionURL string `json:"actionUrl" binding:"omitempty,max=255"`
	Metadata  string `json:"metadata"`
}

// SendNotification godoc
// @Summary 向用户发送通知
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   request body SendNotificationRequest true "通知内容"
// @Success 201 {object} util.Response{data=model.Notification} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/notifications [post]
func (c *NotificationController) SendNotification(ctx *gin.Context) {
	var req SendNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	notification, err := c.NotificationService.Send(req.UserID, service.NotificationInput{
		Type:      model.NotificationType(req.Type),
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		ActionURL: req.ActionURL,
		Metadata:  req.Metadata,
	})
	if err != nil {
		if err == util.ErrUserNotFound {
			util.NotFoundMessage(ctx, "用户不存在")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, notification)
}

type BroadcastNotificationRequest struct {
	UserIDs   []uint `json:"userIds" binding:"required,min=1"`
	Type      string `json:"type" binding:"required,oneof=course_completed badge_earned system"`
	Title     string `json:"title" binding:"required,max=200"`
	Message   string `json:"message" binding:"max=1000"`
	Priority  string `json:"priority" binding:"omitempty,oneof=low normal high"`
	ActionURL string `json:"actionUrl" binding:"omitempty,max=255"`
	Metadata  string `json:"metadata"`
}

// BroadcastNotification godoc
// @Summary 群发通知
// @Description 向多个用户发送同一条通知，跳过不存在或已停用的用户
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   request body BroadcastNotificationRequest true "通知内容与目标用户"
// @Success 201 {object} util.Response{data=object} "成功"
// @Router /api/admin/notifications/broadcast [post]
func (c *NotificationController) BroadcastNotification(ctx *gin.Context) {
	var req BroadcastNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, invalid, err := c.NotificationService.Broadcast(req.UserIDs, service.NotificationInput{
		Type:      model.NotificationType(req.Type),
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		ActionURL: req.ActionURL,
		Metadata:  req.Metadata,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"createdCount":   len(created),
		"invalidUserIds": invalid,
		"notifications":  created,
	})
}

// MarkRead godoc
// @Summary 标记通知已读
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "通知ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "通知不存在"
// @Router /api/notifications/{id}/read [put]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	notificationID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid notification id")
		return
	}

	updated, err := c.NotificationService.MarkRead(notificationID, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !updated {
		util.NotFoundMessage(ctx, "通知不存在")
		return
	}

	util.Success(ctx, nil)
}

// MarkAllRead godoc
// @Summary 全部标记已读
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/notifications/read-all [put]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	count, err := c.NotificationService.MarkAllRead(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"markedCount": count})
}

// DeleteNotification godoc
// @Summary 删除通知
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "通知ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "通知不存在"
// @Router /api/notifications/{id} [delete]
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	notificationID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid notification id")
		return
	}

	deleted, err := c.NotificationService.Delete(notificationID, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !deleted {
		util.NotFoundMessage(ctx, "通知不存在")
		return
	}

	util.Success(ctx, nil)
}
