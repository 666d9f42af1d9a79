package models

import "gorm.io/gorm"

type Course struct {
	gorm.Model
	Title       string
	ShortDesc   string
	Description string
	OwnerID     uint // instructor
	IsFree      bool
	Price       float64
	IsPublished bool
	LogoURL     string
	Chapters    []Chapter
	Assignments []Assignment
}

type Chapter struct {
	gorm.Model
	CourseID    uint
	Title       string
	Description string
	Position    int // unique within course, sequential unlock order
	IsPublished bool
	IsPreview   bool   // accessible without purchase
	VideoURL    string // primary video; completing it completes the chapter
	Videos      []ChapterVideo
	Quizzes     []Quiz
	Assignments []Assignment
}

type ChapterVideo struct {
	gorm.Model
	ChapterID uint
	Title     string
	URL       string
	Duration  int // seconds
	Position  int
}

// UserProgress marks a chapter completed for a learner. It is set only when
// the learner finishes the chapter's primary video or explicitly marks the
// chapter complete; partial watch never counts.
type UserProgress struct {
	gorm.Model
	UserID      uint `gorm:"uniqueIndex:idx_user_chapter"`
	ChapterID   uint `gorm:"uniqueIndex:idx_user_chapter"`
	IsCompleted bool
}
