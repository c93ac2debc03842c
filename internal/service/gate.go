package service

import "shaasam/internal/models"

// Gate messages returned to humans who may not work.
const (
	msgPendingReview = "Profile pending review."
	msgInactive      = "Account is not active."
)

// checkEligible applies the work eligibility predicate to h, distinguishing
// a pending review from an inactive or unverified account.
func checkEligible(h *models.Human, requireReview bool) error {
	if requireReview && h.ReviewStatus != models.ReviewStatusApproved {
		return models.NewForbiddenError(msgPendingReview)
	}
	if !h.Verified || h.Status != models.AccountStatusActive {
		return models.NewForbiddenError(msgInactive)
	}
	return nil
}
