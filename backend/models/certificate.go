package models

import (
	"time"

	"gorm.io/gorm"
)

// CertificateTemplate is the per-course certificate configuration. A course
// without one has no certificate program at all, which is distinct from
// "requirements not yet met".
type CertificateTemplate struct {
	gorm.Model
	CourseID              uint `gorm:"uniqueIndex"`
	Title                 string
	MinPercentage         float64
	RequireAllChapters    bool
	RequireAllQuizzes     bool
	RequireAllAssignments bool
}

// Certificate is the issued record. Its existence is authoritative: once
// issued it is never revoked by recomputation. The composite unique index is
// what makes issuance safe under concurrent eligibility checks.
type Certificate struct {
	gorm.Model
	UserID       uint   `gorm:"uniqueIndex:idx_user_course_cert"`
	CourseID     uint   `gorm:"uniqueIndex:idx_user_course_cert"`
	SerialNumber string `gorm:"unique"`
	IssuedAt     time.Time
}
