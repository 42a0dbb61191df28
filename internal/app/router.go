package app

import (
	"corp_learn_backend/internal/config"
	"corp_learn_backend/internal/middleware"
	"corp_learn_backend/internal/model"
	"corp_learn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 课程目录对游客开放，详情用可选认证以便附带报名进度
		public.GET("/courses", c.course.GetCourses)
		public.GET("/courses/categories", c.course.GetCategories)
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg), c.course.GetCourse)
		public.GET("/courses/:id/ratings", c.course.GetCourseRatings)
		public.GET("/badges", c.badge.GetBadges)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.auth.UpdateProfile)
		authGroup.PUT("/profile/password", c.auth.ChangePassword)

		authGroup.POST("/courses/:id/enroll", c.course.Enroll)
		authGroup.POST("/courses/:id/chapters/:chapterId/complete", c.course.CompleteChapter)
		authGroup.POST("/courses/:id/rate", c.course.RateCourse)

		authGroup.GET("/my/courses", c.course.GetMyCourses)
		authGroup.GET("/my/badges", c.badge.GetMyBadges)
		authGroup.GET("/my/badges/progress", c.badge.GetBadgeProgress)
		authGroup.POST("/my/badges/check", c.badge.CheckAchievements)
		authGroup.GET("/my/stats", c.user.GetMyStats)

		authGroup.GET("/notifications", c.notification.GetNotifications)
		authGroup.GET("/notifications/stats", c.notification.GetNotificationStats)
		authGroup.PUT("/notifications/read-all", c.notification.MarkAllRead)
		authGroup.PUT("/notifications/:id/read", c.notification.MarkRead)
		authGroup.DELETE("/notifications/:id", c.notification.DeleteNotification)

		// 讲师接口
		instructor := authGroup.Group("/")
		instructor.Use(middleware.RoleMiddleware(model.Instructor))
		{
			instructor.POST("/courses", c.course.CreateCourse)
			instructor.POST("/courses/:id/chapters", c.course.AddChapter)
		}
	}

	// 管理员接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/overview", c.admin.GetOverview)
		admin.GET("/badges/stats", c.admin.GetBadgeStats)
		admin.GET("/users", c.admin.GetUsers)
		admin.PUT("/users/:id/role", c.admin.SetUserRole)
		admin.PUT("/users/:id/disable", c.admin.DisableUser)
		admin.GET("/users/:id/stats", c.admin.GetUserStats)
		admin.POST("/users/:id/stats/reconcile", c.admin.ReconcileUserStats)
		admin.POST("/users/:id/badges", c.admin.AwardBadge)
		admin.POST("/users/:id/badges/check", c.admin.CheckUserAchievements)
		admin.POST("/notifications", c.notification.SendNotification)
		admin.POST("/notifications/broadcast", c.notification.BroadcastNotification)
	}
}
