package engine

import "academy/backend/models"

// CourseProgress is the simple course bar: a chapter counts as completed iff
// its video is done, quiz sub-progress is ignored.
type CourseProgress struct {
	CompletedChapters int `json:"completed_chapters"`
	TotalChapters     int `json:"total_chapters"`
	Percent           int `json:"percent"`
}

// EnhancedProgress folds quiz completion in by summing every chapter's
// completed/total item counts.
type EnhancedProgress struct {
	CompletedItems int `json:"completed_items"`
	TotalItems     int `json:"total_items"`
	Percent        int `json:"percent"`
}

// CourseCompletion carries both progress granularities plus the rollups the
// certificate engine gates on. Both are derived from the same per-chapter
// completions, so the two bars cannot drift apart.
type CourseCompletion struct {
	Simple                  CourseProgress   `json:"simple"`
	Enhanced                EnhancedProgress `json:"enhanced"`
	AllQuizzesDone          bool             `json:"all_quizzes_done"`
	AllAssignmentsSubmitted bool             `json:"all_assignments_submitted"`
}

// SummarizeCourse folds per-chapter completion into course level. The
// assignments argument is the course's full published assignment list,
// chapter-scoped and course-wide alike.
func SummarizeCourse(chapters []models.Chapter, assignments []models.Assignment, byChapter map[uint]ChapterCompletion, rec LearnerRecords) CourseCompletion {
	sum := CourseCompletion{AllQuizzesDone: true, AllAssignmentsSubmitted: true}

	for _, ch := range publishedByPosition(chapters) {
		completion := byChapter[ch.ID]
		sum.Simple.TotalChapters++
		if completion.VideoDone {
			sum.Simple.CompletedChapters++
		}
		sum.Enhanced.CompletedItems += completion.CompletedCount
		sum.Enhanced.TotalItems += completion.TotalCount
		for _, q := range completion.Quizzes {
			if !q.Done {
				sum.AllQuizzesDone = false
			}
		}
	}

	for _, a := range assignments {
		if !a.IsPublished {
			continue
		}
		if submissionState(rec.Submissions, a.ID) == models.SubmissionPending {
			sum.AllAssignmentsSubmitted = false
		}
	}

	sum.Simple.Percent = percent(sum.Simple.CompletedChapters, sum.Simple.TotalChapters)
	sum.Enhanced.Percent = percent(sum.Enhanced.CompletedItems, sum.Enhanced.TotalItems)
	return sum
}
