package controller

import (
	"corp_learn_backend/internal/service"
	"corp_learn_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	StatsService *service.StatsService
}

func NewUserController(statsService *service.StatsService) *UserController {
	return &UserController{StatsService: statsService}
}

// GetMyStats godoc
// @Summary 我的学习统计
// @Description 累计完成课程数、徽章数、学习时长、连续学习天数及报名计数
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserStatsOverview} "成功"
// @Router /api/my/stats [get]
func (c *UserController) GetMyStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.StatsService.GetUserStats(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "用户不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}
