package controller

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/service"
	"corp_learn_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	UserService        *service.UserService
	StatsService       *service.StatsService
	AchievementService *service.AchievementService
	ReportService      *service.ReportService
}

func NewAdminController(
	userService *service.UserService,
	statsService *service.StatsService,
	achievementService *service.AchievementService,
	reportService *service.ReportService,
) *AdminController {
	return &AdminController{
		UserService:        userService,
		StatsService:       statsService,
		AchievementService: achievementService,
		ReportService:      reportService,
	}
}

// GetOverview godoc
// @Summary 平台概览
// @Description 用户、课程、报名与徽章发放的汇总数字
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PlatformOverview} "成功"
// @Router /api/admin/overview [get]
func (c *AdminController) GetOverview(ctx *gin.Context) {
	overview, err := c.ReportService.PlatformOverview()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// GetUsers godoc
// @Summary 用户列表
// @Description 管理端分页用户列表，支持角色/部门/关键词/禁用状态筛选
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Param   role query string false "student/instructor/admin"
// @Param   department query string false "部门"
// @Param   search query string false "姓名/邮箱关键词"
// @Param   disabled query bool false "禁用状态"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/users [get]
func (c *AdminController) GetUsers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.UserListFilter{
		Role:       ctx.Query("role"),
		Department: ctx.Query("department"),
		Search:     ctx.Query("search"),
	}
	if v := ctx.Query("disabled"); v != "" {
		disabled := v == "true"
		filter.Disabled = &disabled
	}

	users, total, err := c.UserService.GetUsers(page, limit, filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  users,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// swagger:model SetRoleRequest
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student instructor admin"`
}

// SetUserRole godoc
// @Summary 修改用户角色
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body SetRoleRequest true "目标角色"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/role [put]
func (c *AdminController) SetUserRole(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	var req SetRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.SetRole(userID, model.UserRole(req.Role)); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "用户不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// swagger:model DisableUserRequest
type DisableUserRequest struct {
	Disabled bool `json:"disabled"`
}

// DisableUser godoc
// @Summary 禁用/启用用户
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body DisableUserRequest true "禁用标志"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/disable [put]
func (c *AdminController) DisableUser(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	var req DisableUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.DisableUser(userID, req.Disabled); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "用户不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// GetUserStats godoc
// @Summary 查看指定用户统计
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=service.UserStatsOverview} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/stats [get]
func (c *AdminController) GetUserStats(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	stats, err := c.StatsService.GetUserStats(userID)
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

// ReconcileUserStats godoc
// @Summary 重建用户统计
// @Description 从报名、章节进度和徽章授予历史重算该用户的全部统计计数
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.UserStats} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/stats/reconcile [post]
func (c *AdminController) ReconcileUserStats(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	stats, err := c.StatsService.Reconcile(userID)
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

// CheckUserAchievements godoc
// @Summary 触发指定用户的徽章评估
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=[]service.GrantedBadge} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/badges/check [post]
func (c *AdminController) CheckUserAchievements(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	granted, err := c.AchievementService.CheckAchievements(userID)
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

// swagger:model AwardBadgeRequest
type AwardBadgeRequest struct {
	BadgeID  uint  `json:"badgeId" binding:"required"`
	CourseID *uint `json:"courseId"`
}

// AwardBadge godoc
// @Summary 手动授予徽章
// @Description 管理员为用户手动授予徽章，重复授予返回冲突
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body AwardBadgeRequest true "徽章与可选关联课程"
// @Success 201 {object} util.Response{data=service.GrantedBadge} "授予成功"
// @Failure 404 {object} util.Response "用户或徽章不存在"
// @Failure 409 {object} util.Response "已拥有该徽章"
// @Router /api/admin/users/{id}/badges [post]
func (c *AdminController) AwardBadge(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	userID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	var req AwardBadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	granted, err := c.AchievementService.AwardBadge(userID, req.BadgeID, req.CourseID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFoundMessage(ctx, "用户不存在")
		case errors.Is(err, util.ErrBadgeNotFound):
			util.NotFoundMessage(ctx, "徽章不存在或未启用")
		case errors.Is(err, util.ErrBadgeAlreadyOwned):
			util.Conflict(ctx, "用户已拥有该徽章")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, granted)
}

// GetBadgeStats godoc
// @Summary 徽章发放统计
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.BadgeStatsOverview} "成功"
// @Router /api/admin/badges/stats [get]
func (c *AdminController) GetBadgeStats(ctx *gin.Context) {
	stats, err := c.AchievementService.GetBadgeStats()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
