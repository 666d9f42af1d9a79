package engine

import "academy/backend/models"

// Entitlement says whether a user may access a course's gated content at all.
type Entitlement struct {
	Entitled     bool `json:"entitled"`
	IsInstructor bool `json:"is_instructor"`
}

// ResolveEntitlement grants access to the course instructor, to learners with
// a completed purchase, and to everyone on free courses. An anonymous user
// (userID 0) or a missing course resolves to not-entitled, never an error;
// callers redirect to the purchase flow.
func ResolveEntitlement(userID uint, course *models.Course, purchase *models.Purchase) Entitlement {
	if userID == 0 || course == nil {
		return Entitlement{}
	}
	if course.OwnerID == userID {
		return Entitlement{Entitled: true, IsInstructor: true}
	}
	if course.IsFree {
		return Entitlement{Entitled: true}
	}
	if purchase != nil && purchase.Status == models.PurchaseCompleted {
		return Entitlement{Entitled: true}
	}
	return Entitlement{}
}
