// Package store loads per-request course snapshots for the progression
// engine. Fetch once, derive many views: every handler on a page load shares
// one snapshot instead of re-querying per component.
package store

import (
	"errors"

	"gorm.io/gorm"

	"academy/backend/engine"
	"academy/backend/models"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// CourseSnapshot is a point-in-time read of a course and one learner's
// records for it. UserID 0 means anonymous: learner records stay empty and
// entitlement resolves to false.
type CourseSnapshot struct {
	UserID          uint
	Course          models.Course
	Purchase        *models.Purchase
	Records         engine.LearnerRecords
	FinalExam       *models.FinalExam
	LastExamAttempt *models.FinalExamAttempt
	Template        *models.CertificateTemplate
	Certificate     *models.Certificate
}

// LoadCourseSnapshot fetches the course with its published chapters, quizzes
// and assignments plus all of the learner's records for it. A missing course
// returns gorm.ErrRecordNotFound; missing learner records are simply absent
// from the snapshot, never errors.
func (s *Store) LoadCourseSnapshot(userID, courseID uint) (*CourseSnapshot, error) {
	snap := &CourseSnapshot{
		UserID: userID,
		Records: engine.LearnerRecords{
			CompletedChapters: make(map[uint]bool),
			QuizAttempts:      make(map[uint]int),
			Submissions:       make(map[uint]string),
		},
	}

	err := s.DB.
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_published = ?", true).Order("position ASC")
		}).
		Preload("Chapters.Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Chapters.Quizzes", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_published = ?", true).Order("position ASC")
		}).
		Preload("Chapters.Assignments", "is_published = ?", true).
		Preload("Assignments", "is_published = ?", true).
		First(&snap.Course, courseID).Error
	if err != nil {
		return nil, err
	}

	var exam models.FinalExam
	if err := s.DB.Where("course_id = ?", courseID).First(&exam).Error; err == nil {
		snap.FinalExam = &exam
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var tmpl models.CertificateTemplate
	if err := s.DB.Where("course_id = ?", courseID).First(&tmpl).Error; err == nil {
		snap.Template = &tmpl
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if userID == 0 {
		return snap, nil
	}
	if err := s.loadLearnerRecords(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadLearnerRecords(snap *CourseSnapshot) error {
	userID, courseID := snap.UserID, snap.Course.ID

	var purchase models.Purchase
	err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at DESC").First(&purchase).Error
	if err == nil {
		snap.Purchase = &purchase
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	chapterIDs := make([]uint, 0, len(snap.Course.Chapters))
	quizIDs := make([]uint, 0)
	for _, ch := range snap.Course.Chapters {
		chapterIDs = append(chapterIDs, ch.ID)
		for _, q := range ch.Quizzes {
			quizIDs = append(quizIDs, q.ID)
		}
	}

	if len(chapterIDs) > 0 {
		var progress []models.UserProgress
		if err := s.DB.Where("user_id = ? AND chapter_id IN ?", userID, chapterIDs).
			Find(&progress).Error; err != nil {
			return err
		}
		for _, p := range progress {
			snap.Records.CompletedChapters[p.ChapterID] = p.IsCompleted
		}
	}

	if len(quizIDs) > 0 {
		var attempts []models.QuizAttempt
		if err := s.DB.Where("user_id = ? AND quiz_id IN ?", userID, quizIDs).
			Find(&attempts).Error; err != nil {
			return err
		}
		for _, a := range attempts {
			snap.Records.QuizAttempts[a.QuizID]++
		}
	}

	// Latest submission per assignment wins.
	var submissions []models.Submission
	err = s.DB.
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("submissions.user_id = ? AND assignments.course_id = ?", userID, courseID).
		Order("submissions.created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return err
	}
	for _, sub := range submissions {
		snap.Records.Submissions[sub.AssignmentID] = sub.Status
	}

	if snap.FinalExam != nil {
		var attempt models.FinalExamAttempt
		err := s.DB.Where("user_id = ? AND final_exam_id = ?", userID, snap.FinalExam.ID).
			Order("created_at DESC").First(&attempt).Error
		if err == nil {
			snap.LastExamAttempt = &attempt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	var cert models.Certificate
	err = s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if err == nil {
		snap.Certificate = &cert
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}

// Evaluate runs the progression engine over the snapshot.
func (snap *CourseSnapshot) Evaluate() engine.Evaluation {
	return engine.Evaluate(engine.Input{
		UserID:          snap.UserID,
		Course:          &snap.Course,
		Chapters:        snap.Course.Chapters,
		Assignments:     snap.Course.Assignments,
		Purchase:        snap.Purchase,
		Records:         snap.Records,
		FinalExam:       snap.FinalExam,
		LastExamAttempt: snap.LastExamAttempt,
		Template:        snap.Template,
		HasCertificate:  snap.Certificate != nil,
	})
}
