package models

import "gorm.io/gorm"

// FinalExam is a course-wide exam independent of chapters. PassingScore and
// CertificateScore are two distinct thresholds: the first decides whether an
// attempt passes at all, the second is the bar a certificate additionally
// requires (0 means the pass flag alone gates).
type FinalExam struct {
	gorm.Model
	CourseID         uint `gorm:"uniqueIndex"`
	Title            string
	IsPublished      bool
	PassingScore     float64
	CertificateScore float64
	Questions        []FinalExamQuestion
}

type FinalExamQuestion struct {
	gorm.Model
	FinalExamID   uint
	Question      string
	Options       string // JSON array of options
	CorrectAnswer int
	SequenceOrder int
}

// FinalExamAttempt records one sitting; only the most recent attempt is
// authoritative for certificate gating.
type FinalExamAttempt struct {
	gorm.Model
	UserID      uint `gorm:"index"`
	FinalExamID uint `gorm:"index"`
	Score       float64
	Passed      bool
}
