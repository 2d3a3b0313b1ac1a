package models

import (
	"math"
	"strconv"
)

// CourseStats is the counter block stored on each course document. Rating
// counts are keyed "1".."5".
type CourseStats struct {
	Enrollments  int            `json:"enrollments"`
	Completions  int            `json:"completions"`
	RatingCounts map[string]int `json:"ratingCounts"`
}

// Counts returns the rating histogram; index 0 holds one-star ratings.
func (s CourseStats) Counts() [5]int {
	var counts [5]int
	for star := 1; star <= 5; star++ {
		counts[star-1] = s.RatingCounts[strconv.Itoa(star)]
	}
	return counts
}

// CourseStatistics is the read model served for a course.
type CourseStatistics struct {
	Enrollments   int     `json:"enrollments"`
	Completions   int     `json:"completions"`
	AverageRating float64 `json:"averageRating"`
	RatingCounts  [5]int  `json:"ratingCounts"`
	TotalRatings  int     `json:"totalRatings"`
}

// NewCourseStatistics derives the read model from stored counters.
func NewCourseStatistics(s CourseStats) CourseStatistics {
	counts := s.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	return CourseStatistics{
		Enrollments:   s.Enrollments,
		Completions:   s.Completions,
		AverageRating: AverageRating(counts),
		RatingCounts:  counts,
		TotalRatings:  total,
	}
}

// DisplayRating is the average rounded to one decimal.
func (s CourseStatistics) DisplayRating() float64 {
	return math.Round(s.AverageRating*10) / 10
}

// AverageRating is the weighted mean of a 1..5 star histogram, 0 when empty.
func AverageRating(counts [5]int) float64 {
	sum, total := 0, 0
	for i, n := range counts {
		sum += (i + 1) * n
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(sum) / float64(total)
}

type GlobalStatistics struct {
	TotalCourses     int `json:"totalCourses"`
	TotalEnrollments int `json:"totalEnrollments"`
	TotalCompletions int `json:"totalCompletions"`
	TotalRatings     int `json:"totalRatings"`
	ActiveUsers      int `json:"activeUsers"`
}
