// Package engine computes course progression: entitlement, per-chapter
// completion, sequential chapter accessibility, course-level progress and
// certificate eligibility. Every function here is pure and side-effect-free;
// handlers load one snapshot per request and derive all views from it, so the
// sidebar, overview, chapter and certificate pages can never disagree.
package engine

import (
	"math"
	"sort"

	"academy/backend/models"
)

func percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// publishedByPosition filters out unpublished chapters and orders the rest by
// position. Sorting here keeps the output independent of whatever order the
// persistence layer returned.
func publishedByPosition(chapters []models.Chapter) []models.Chapter {
	ordered := make([]models.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if ch.IsPublished {
			ordered = append(ordered, ch)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}
