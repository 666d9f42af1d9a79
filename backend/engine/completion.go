package engine

import "academy/backend/models"

// LearnerRecords is the learner's slice of a course snapshot, keyed for
// constant-time lookup during aggregation.
type LearnerRecords struct {
	CompletedChapters map[uint]bool   // chapter ID -> UserProgress.IsCompleted
	QuizAttempts      map[uint]int    // quiz ID -> attempt count
	Submissions       map[uint]string // assignment ID -> latest submission status
}

type QuizStatus struct {
	ID   uint `json:"id"`
	Done bool `json:"done"`
}

type AssignmentStatus struct {
	ID     uint   `json:"id"`
	Status string `json:"status"` // pending, submitted, graded
}

// ChapterCompletion is the per-chapter rollup of video/quiz/assignment state.
// The video slot is always counted in TotalCount even when the chapter has no
// video; assignments are tracked but excluded from the counts by product
// decision, so they never move the percentage.
type ChapterCompletion struct {
	ChapterID      uint               `json:"chapter_id"`
	VideoDone      bool               `json:"video_done"`
	Quizzes        []QuizStatus       `json:"quizzes"`
	Assignments    []AssignmentStatus `json:"assignments"`
	CompletedCount int                `json:"completed_count"`
	TotalCount     int                `json:"total_count"`
	Percent        int                `json:"percent"`
}

// AggregateChapter computes a chapter's completion from the learner records.
// A quiz is done as soon as one attempt exists, whatever the score. Video
// completion is binary; partial watch never counts.
func AggregateChapter(ch *models.Chapter, rec LearnerRecords) ChapterCompletion {
	out := ChapterCompletion{
		ChapterID: ch.ID,
		VideoDone: rec.CompletedChapters[ch.ID],
	}

	for _, q := range ch.Quizzes {
		if !q.IsPublished {
			continue
		}
		out.Quizzes = append(out.Quizzes, QuizStatus{
			ID:   q.ID,
			Done: rec.QuizAttempts[q.ID] > 0,
		})
	}

	for _, a := range ch.Assignments {
		if !a.IsPublished {
			continue
		}
		out.Assignments = append(out.Assignments, AssignmentStatus{
			ID:     a.ID,
			Status: submissionState(rec.Submissions, a.ID),
		})
	}

	out.TotalCount = 1 + len(out.Quizzes) // video slot always counts
	if out.VideoDone {
		out.CompletedCount++
	}
	for _, q := range out.Quizzes {
		if q.Done {
			out.CompletedCount++
		}
	}
	out.Percent = percent(out.CompletedCount, out.TotalCount)
	return out
}

func submissionState(submissions map[uint]string, assignmentID uint) string {
	status, ok := submissions[assignmentID]
	if !ok {
		return models.SubmissionPending
	}
	if status == models.SubmissionGraded {
		return models.SubmissionGraded
	}
	return models.SubmissionSubmitted
}
