package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/pkg/database"
	"corp_learn_backend/pkg/logger"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv 一套共享内存数据库上的完整服务栈
type testEnv struct {
	DB *gorm.DB

	UserRepo         *repository.UserRepository
	CourseRepo       *repository.CourseRepository
	EnrollmentRepo   *repository.EnrollmentRepository
	RatingRepo       *repository.RatingRepository
	BadgeRepo        *repository.BadgeRepository
	StatsRepo        *repository.StatsRepository
	NotificationRepo *repository.NotificationRepository

	Notifications *NotificationService
	Stats         *StatsService
	Progress      *ProgressService
	Rating        *RatingService
	Achievement   *AchievementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库随最后一个连接消失，单连接也顺带串行化并发用例
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.Seed(db)

	env := &testEnv{
		DB:               db,
		UserRepo:         repository.NewUserRepository(db),
		CourseRepo:       repository.NewCourseRepository(db),
		EnrollmentRepo:   repository.NewEnrollmentRepository(db),
		RatingRepo:       repository.NewRatingRepository(db),
		BadgeRepo:        repository.NewBadgeRepository(db),
		StatsRepo:        repository.NewStatsRepository(db),
		NotificationRepo: repository.NewNotificationRepository(db),
	}

	env.Notifications = NewNotificationService(env.NotificationRepo, env.UserRepo)
	env.Stats = NewStatsService(env.StatsRepo, env.EnrollmentRepo, env.BadgeRepo, env.UserRepo, db)
	env.Progress = NewProgressService(env.EnrollmentRepo, env.CourseRepo, env.Stats, env.Notifications, db)
	env.Rating = NewRatingService(env.RatingRepo, env.EnrollmentRepo, env.CourseRepo, db)
	env.Achievement = NewAchievementService(env.BadgeRepo, env.EnrollmentRepo, env.StatsRepo, env.UserRepo, env.Stats, env.Notifications, db)

	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@corp.example.com", name),
		Password: "hashed",
		Role:     model.Student,
	}
	require.NoError(t, e.UserRepo.Create(user))
	return user
}

func (e *testEnv) categoryID(t *testing.T, name string) uint {
	t.Helper()
	var category model.CourseCategory
	require.NoError(t, e.DB.Where("name = ?", name).First(&category).Error)
	return category.ID
}

func (e *testEnv) createCourse(t *testing.T, title, categoryName string, chapterCount int) *model.Course {
	t.Helper()
	categoryID := e.categoryID(t, categoryName)
	course := &model.Course{
		Title:      title,
		CategoryID: &categoryID,
		Difficulty: "beginner",
		Status:     model.CoursePublished,
	}
	require.NoError(t, e.CourseRepo.Create(course))

	for i := 1; i <= chapterCount; i++ {
		chapter := &model.CourseChapter{
			CourseID:   course.ID,
			Title:      fmt.Sprintf("%s - Chapter %d", title, i),
			OrderIndex: i,
		}
		require.NoError(t, e.CourseRepo.CreateChapter(chapter))
	}

	loaded, err := e.CourseRepo.FindByID(course.ID)
	require.NoError(t, err)
	return loaded
}

func (e *testEnv) enroll(t *testing.T, userID, courseID uint) *model.CourseEnrollment {
	t.Helper()
	enrollment := &model.CourseEnrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
		Status:     model.EnrollmentActive,
	}
	require.NoError(t, e.EnrollmentRepo.Create(enrollment))
	return enrollment
}

// completeCourse 逐章完成整门课程
func (e *testEnv) completeCourse(t *testing.T, userID uint, course *model.Course) {
	t.Helper()
	e.enroll(t, userID, course.ID)
	for _, chapter := range course.Chapters {
		_, err := e.Progress.CompleteChapter(userID, course.ID, chapter.ID, 0)
		require.NoError(t, err)
	}
}

func (e *testEnv) badgeByName(t *testing.T, name string) *model.Badge {
	t.Helper()
	var badge model.Badge
	require.NoError(t, e.DB.Where("name = ?", name).First(&badge).Error)
	return &badge
}
