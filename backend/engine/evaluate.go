package engine

import "academy/backend/models"

// Input is one consistent snapshot of everything the engine reads for a
// (user, course) pair. The store fills it once per request.
type Input struct {
	UserID          uint
	Course          *models.Course
	Chapters        []models.Chapter
	Assignments     []models.Assignment
	Purchase        *models.Purchase
	Records         LearnerRecords
	FinalExam       *models.FinalExam
	LastExamAttempt *models.FinalExamAttempt
	Template        *models.CertificateTemplate
	HasCertificate  bool
}

// Evaluation is the full progression state for one snapshot. Handlers render
// subsets of it; none of them recompute anything.
type Evaluation struct {
	Entitlement         Entitlement                `json:"entitlement"`
	Completions         map[uint]ChapterCompletion `json:"completions"`
	Access              []ChapterAccess            `json:"access"`
	Summary             CourseCompletion           `json:"summary"`
	HasCertificate      bool                       `json:"has_certificate"`
	CertificateEligible bool                       `json:"certificate_eligible"`
	CanViewCertificate  bool                       `json:"can_view_certificate"`
}

// Evaluate runs the whole pipeline: entitlement, per-chapter aggregation,
// accessibility, course summary, certificate gates. Identical inputs always
// produce identical output.
func Evaluate(in Input) Evaluation {
	ent := ResolveEntitlement(in.UserID, in.Course, in.Purchase)

	completions := make(map[uint]ChapterCompletion, len(in.Chapters))
	for i := range in.Chapters {
		ch := &in.Chapters[i]
		if !ch.IsPublished {
			continue
		}
		completions[ch.ID] = AggregateChapter(ch, in.Records)
	}

	summary := SummarizeCourse(in.Chapters, in.Assignments, completions, in.Records)
	eligible := CertificateEligible(summary, in.Template, in.FinalExam, in.LastExamAttempt)

	return Evaluation{
		Entitlement:         ent,
		Completions:         completions,
		Access:              ComputeAccessibility(in.Chapters, ent, completions),
		Summary:             summary,
		HasCertificate:      in.HasCertificate,
		CertificateEligible: eligible,
		CanViewCertificate:  CanAccessCertificateView(ent.Entitled, in.HasCertificate, eligible),
	}
}

// AccessFor returns the accessibility entry for one chapter, for the chapter
// page which renders a single chapter rather than the whole list.
func (e Evaluation) AccessFor(chapterID uint) (ChapterAccess, bool) {
	for _, a := range e.Access {
		if a.ChapterID == chapterID {
			return a, true
		}
	}
	return ChapterAccess{}, false
}
