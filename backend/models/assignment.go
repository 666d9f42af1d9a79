package models

import (
	"time"

	"gorm.io/gorm"
)

type Assignment struct {
	gorm.Model
	CourseID    uint
	ChapterID   *uint // optional; course-wide when nil
	Title       string
	Description string
	IsPublished bool
	IsVerified  bool
	DueDate     time.Time
}

// Submission statuses. Assignments are tracked per chapter but never move the
// progress percentage.
const (
	SubmissionPending   = "pending"
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

type Submission struct {
	gorm.Model
	UserID       uint   `gorm:"index"`
	AssignmentID uint   `gorm:"index"`
	Status       string `gorm:"default:submitted"` // pending, submitted, graded
	Content      string
	FileURL      string
	Grade        float64
	Feedback     string
}
