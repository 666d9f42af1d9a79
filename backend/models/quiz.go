package models

import "gorm.io/gorm"

type Quiz struct {
	gorm.Model
	ChapterID   uint
	Title       string
	Description string
	Position    int
	IsPublished bool
	Questions   []QuizQuestion
}

type QuizQuestion struct {
	gorm.Model
	QuizID        uint
	Question      string
	Options       string // JSON array of options
	CorrectAnswer int
	SequenceOrder int
}

// QuizAttempt records one sitting of a quiz. A quiz counts as completed for
// progression as soon as one attempt exists; the score only matters for the
// final exam, never here.
type QuizAttempt struct {
	gorm.Model
	UserID         uint `gorm:"index"`
	QuizID         uint `gorm:"index"`
	Score          float64
	CorrectAnswers int
	TotalQuestions int
}
