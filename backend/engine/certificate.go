package engine

import "academy/backend/models"

// CertificateEligible decides whether the learner currently meets the
// course's certificate requirements. A nil template means the course has no
// certificate program and nothing can make the learner eligible.
//
// The enhanced (chapters+quizzes) percentage is the one that gates
// certificates; the simple chapter bar is presentation only. MinPercentage
// and the final exam's thresholds are independent gates and are never
// conflated.
func CertificateEligible(sum CourseCompletion, tmpl *models.CertificateTemplate, exam *models.FinalExam, last *models.FinalExamAttempt) bool {
	if tmpl == nil {
		return false
	}
	if tmpl.RequireAllChapters && sum.Enhanced.Percent != 100 {
		return false
	}
	if tmpl.RequireAllQuizzes && !sum.AllQuizzesDone {
		return false
	}
	if tmpl.RequireAllAssignments && !sum.AllAssignmentsSubmitted {
		return false
	}
	if float64(sum.Enhanced.Percent) < tmpl.MinPercentage {
		return false
	}
	if exam != nil && exam.IsPublished {
		if last == nil || !last.Passed {
			return false
		}
		if exam.CertificateScore > 0 && last.Score < exam.CertificateScore {
			return false
		}
	}
	return true
}

// CanAccessCertificateView gates the certificate page. An already-issued
// certificate is authoritative: eligibility is never re-run to decide whether
// the student still deserves it.
func CanAccessCertificateView(entitled, hasCertificate, eligible bool) bool {
	return entitled && (hasCertificate || eligible)
}
