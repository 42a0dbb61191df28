package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseNotPublished = errors.New("course not available for enrollment")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrChapterNotFound    = errors.New("chapter not found in course")
	ErrCourseNotCompleted = errors.New("course must be completed before rating")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrBadgeNotFound      = errors.New("badge not found")
	ErrBadgeAlreadyOwned  = errors.New("user already owns this badge")
)
