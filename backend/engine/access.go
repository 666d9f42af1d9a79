package engine

import "academy/backend/models"

// Lock reasons surfaced to the UI. These exact strings are rendered by the
// sidebar and the chapter page.
const (
	ReasonNotPurchased       = "Course not purchased"
	ReasonPreviousIncomplete = "Previous chapter not completed"
)

type ChapterAccess struct {
	ChapterID  uint   `json:"chapter_id"`
	Accessible bool   `json:"accessible"`
	Reason     string `json:"reason,omitempty"`
}

// ComputeAccessibility evaluates the sequential-unlock state machine over the
// course's published chapters in position order:
//
//  1. Instructors see everything.
//  2. Unentitled users see only preview chapters.
//  3. Entitled learners get the first published chapter, then each next
//     chapter once the immediately preceding published chapter's video is
//     complete. Never based on chapters further back.
//
// A chapter with no completable content still gates its successors through
// its VideoDone flag, which only an explicit completion action can set.
func ComputeAccessibility(chapters []models.Chapter, ent Entitlement, byChapter map[uint]ChapterCompletion) []ChapterAccess {
	ordered := publishedByPosition(chapters)
	out := make([]ChapterAccess, 0, len(ordered))

	prevDone := true // the first published chapter has no predecessor
	for _, ch := range ordered {
		access := ChapterAccess{ChapterID: ch.ID}
		switch {
		case ent.IsInstructor:
			access.Accessible = true
		case !ent.Entitled:
			if ch.IsPreview {
				access.Accessible = true
			} else {
				access.Reason = ReasonNotPurchased
			}
		case prevDone:
			access.Accessible = true
		default:
			access.Reason = ReasonPreviousIncomplete
		}
		out = append(out, access)
		prevDone = byChapter[ch.ID].VideoDone
	}
	return out
}
