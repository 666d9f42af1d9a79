package models

import "gorm.io/gorm"

// Purchase statuses; only a completed purchase entitles the learner.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

type Purchase struct {
	gorm.Model
	UserID   uint   `gorm:"index"`
	CourseID uint   `gorm:"index"`
	Status   string `gorm:"default:pending"` // pending, completed, failed
	Amount   float64
}
