package controller

import (
	"corp_learn_backend/internal/service"
	"corp_learn_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type BadgeController struct {
	AchievementService *service.AchievementService
}

func NewBadgeController(achievementService *service.AchievementService) *BadgeController {
	return &BadgeController{AchievementService: achievementService}
}

// GetBadges godoc
// @Summary 徽章目录
// @Description 列出所有启用的徽章
// @Tags 徽章
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Badge} "成功"
// @Router /api/badges [get]
func (c *BadgeController) GetBadges(ctx *gin.Context) {
	badges, err := c.AchievementService.ListBadges()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// GetMyBadges godoc
// @Summary 我的徽章
// @Tags 徽章
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.UserBadge} "成功"
// @Router /api/my/badges [get]
func (c *BadgeController) GetMyBadges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	badges, err := c.AchievementService.GetUserBadges(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// GetBadgeProgress godoc
// @Summary 徽章进度
// @Description 已获得与未获得徽章的对照视图
// @Tags 徽章
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.BadgeProgress} "成功"
// @Router /api/my/badges/progress [get]
func (c *BadgeController) GetBadgeProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.AchievementService.GetBadgeProgress(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// CheckAchievements godoc
// @Summary 触发徽章评估
// @Description 评估当前用户尚未获得的徽章并授予合格者，返回本次新获得的徽章
// @Tags 徽章
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.GrantedBadge} "成功"
// @Router /api/my/badges/check [post]
func (c *BadgeController) CheckAchievements(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	granted, err := c.AchievementService.CheckAchievements(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "用户不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"newBadges": granted,
		"count":     len(granted),
	})
}
