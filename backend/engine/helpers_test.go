package engine

import (
	"academy/backend/models"

	"gorm.io/gorm"
)

func testCourse(id, ownerID uint, free bool) *models.Course {
	return &models.Course{
		Model:       gorm.Model{ID: id},
		Title:       "Test course",
		OwnerID:     ownerID,
		IsFree:      free,
		IsPublished: true,
	}
}

func testChapter(id uint, position int) models.Chapter {
	return models.Chapter{
		Model:       gorm.Model{ID: id},
		Position:    position,
		IsPublished: true,
		VideoURL:    "https://cdn.example.com/video.mp4",
	}
}

func testQuiz(id uint) models.Quiz {
	return models.Quiz{
		Model:       gorm.Model{ID: id},
		IsPublished: true,
	}
}

func testAssignment(id uint) models.Assignment {
	return models.Assignment{
		Model:       gorm.Model{ID: id},
		IsPublished: true,
	}
}

func emptyRecords() LearnerRecords {
	return LearnerRecords{
		CompletedChapters: map[uint]bool{},
		QuizAttempts:      map[uint]int{},
		Submissions:       map[uint]string{},
	}
}

func completedPurchase(userID, courseID uint) *models.Purchase {
	return &models.Purchase{
		UserID:   userID,
		CourseID: courseID,
		Status:   models.PurchaseCompleted,
	}
}
