package util

// 评分范围
const (
	MinRating = 1
	MaxRating = 5
)
