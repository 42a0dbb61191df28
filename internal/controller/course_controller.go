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

type CourseController struct {
	CourseService   *service.CourseService
	ProgressService *service.ProgressService
	RatingService   *service.RatingService
}

func NewCourseController(
	courseService *service.CourseService,
	progressService *service.ProgressService,
	ratingService *service.RatingService,
) *CourseController {
	return &CourseController{
		CourseService:   courseService,
		ProgressService: progressService,
		RatingService:   ratingService,
	}
}

// GetCourses godoc
// @Summary 课程目录
// @Description 按分类、难度、关键词筛选已发布课程
// @Tags 课程
// @Produce  json
// @Param   category query string false "分类名称"
// @Param   difficulty query string false "难度"
// @Param   search query string false "标题/描述关键词"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CourseController) GetCourses(ctx *gin.Context) {
	filter := repository.CourseFilter{
		Category:   ctx.Query("category"),
		Difficulty: ctx.Query("difficulty"),
		Search:     ctx.Query("search"),
	}

	courses, err := c.CourseService.GetCourses(ctx.Request.Context(), filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// GetCategories godoc
// @Summary 课程分类列表
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.CourseCategory} "成功"
// @Router /api/courses/categories [get]
func (c *CourseController) GetCategories(ctx *gin.Context) {
	categories, err := c.CourseService.GetCategories()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 含章节列表；已报名用户附带报名与章节完成状态
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseDetail} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var callerID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		callerID = claims.UserID
	}

	detail, err := c.CourseService.GetCourse(courseID, callerID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFoundMessage(ctx, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, detail)
}

// Enroll godoc
// @Summary 报名课程
// @Description 只能报名已发布课程，重复报名返回冲突
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.CourseEnrollment} "报名成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已报名"
// @Failure 422 {object} util.Response "课程未发布"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	enrollment, err := c.CourseService.Enroll(claims.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFoundMessage(ctx, "课程不存在")
		case errors.Is(err, util.ErrCourseNotPublished):
			util.Error(ctx, 422, "课程未发布")
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Conflict(ctx, "已报名该课程")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, enrollment)
}

// GetMyCourses godoc
// @Summary 我的课程
// @Description 当前用户的报名列表，可按状态筛选，附章节完成计数
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "active/completed/dropped"
// @Success 200 {object} util.Response{data=[]service.UserCourse} "成功"
// @Router /api/my/courses [get]
func (c *CourseController) GetMyCourses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	status := model.EnrollmentStatus(ctx.Query("status"))
	courses, err := c.CourseService.GetUserCourses(claims.UserID, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// swagger:model CompleteChapterRequest
type CompleteChapterRequest struct {
	TimeSpentMinutes int `json:"timeSpentMinutes" binding:"omitempty,min=0"`
}

// CompleteChapter godoc
// @Summary 完成章节
// @Description 幂等标记章节完成并重算课程进度，全部完成时课程转为已完成
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   chapterId path int true "章节ID"
// @Param   body body CompleteChapterRequest false "学习时长"
// @Success 200 {object} util.Response{data=service.ChapterCompletionResult} "成功"
// @Failure 404 {object} util.Response "未报名或章节不存在"
// @Router /api/courses/{id}/chapters/{chapterId}/complete [post]
func (c *CourseController) CompleteChapter(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	chapterID, err := parseUintParam(ctx, "chapterId")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}

	var req CompleteChapterRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	result, err := c.ProgressService.CompleteChapter(claims.UserID, courseID, chapterID, req.TimeSpentMinutes)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled):
			util.NotFoundMessage(ctx, "未报名该课程")
		case errors.Is(err, util.ErrChapterNotFound):
			util.NotFoundMessage(ctx, "章节不存在")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// swagger:model RateCourseRequest
type RateCourseRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}

// RateCourse godoc
// @Summary 评价课程
// @Description 仅已完成课程可评价，重复评价覆盖旧评分
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body RateCourseRequest true "评分与评语"
// @Success 200 {object} util.Response{data=service.RatingResult} "成功"
// @Failure 400 {object} util.Response "评分超出范围"
// @Failure 422 {object} util.Response "课程未完成"
// @Router /api/courses/{id}/rate [post]
func (c *CourseController) RateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req RateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.RatingService.RateCourse(claims.UserID, courseID, req.Rating, req.Review)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidRating):
			util.BadRequest(ctx, "评分必须在 1 到 5 之间")
		case errors.Is(err, util.ErrCourseNotCompleted):
			util.Error(ctx, 422, "只能评价已完成的课程")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// GetCourseRatings godoc
// @Summary 课程评价列表
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CourseRating} "成功"
// @Router /api/courses/{id}/ratings [get]
func (c *CourseController) GetCourseRatings(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	if err := c.CourseService.CourseExists(courseID); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFoundMessage(ctx, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	ratings, err := c.RatingService.CourseRatings(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, ratings)
}

// swagger:model CreateCourseRequest
type CreateCourseRequest struct {
	Title                  string `json:"title" binding:"required"`
	Description            string `json:"description"`
	CategoryID             *uint  `json:"categoryId"`
	Difficulty             string `json:"difficulty"`
	EstimatedDurationHours int    `json:"estimatedDurationHours"`
	ThumbnailURL           string `json:"thumbnailUrl"`
	Status                 string `json:"status" binding:"omitempty,oneof=draft published"`
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 讲师或管理员创建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	instructorID := claims.UserID
	course := &model.Course{
		Title:                  req.Title,
		Description:            req.Description,
		InstructorID:           &instructorID,
		CategoryID:             req.CategoryID,
		Difficulty:             req.Difficulty,
		EstimatedDurationHours: req.EstimatedDurationHours,
		ThumbnailURL:           req.ThumbnailURL,
		Status:                 model.CourseStatus(req.Status),
	}

	if err := c.CourseService.CreateCourse(ctx.Request.Context(), course); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, course)
}

// swagger:model AddChapterRequest
type AddChapterRequest struct {
	Title                    string `json:"title" binding:"required"`
	Description              string `json:"description"`
	ContentType              string `json:"contentType"`
	EstimatedDurationMinutes int    `json:"estimatedDurationMinutes"`
	OrderIndex               int    `json:"orderIndex"`
}

// AddChapter godoc
// @Summary 添加章节
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body AddChapterRequest true "章节信息"
// @Success 201 {object} util.Response{data=model.CourseChapter} "创建成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/chapters [post]
func (c *CourseController) AddChapter(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req AddChapterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	chapter := &model.CourseChapter{
		Title:                    req.Title,
		Description:              req.Description,
		ContentType:              req.ContentType,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		OrderIndex:               req.OrderIndex,
	}

	if err := c.CourseService.AddChapter(ctx.Request.Context(), courseID, chapter); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFoundMessage(ctx, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, chapter)
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
