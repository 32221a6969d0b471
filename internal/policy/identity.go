package policy

import "github.com/rentlover/platform/internal/domain"

// IdentityStatus holds the identity facts the service gates look at.
type IdentityStatus struct {
	Verified      bool `json:"verified"`
	AgeKnown      bool `json:"age_known"`
	Age           int  `json:"age,omitempty"`
	AccountActive bool `json:"account_active"`
}

// EvaluateIdentityPolicy extracts the gate-relevant facts from a merged user.
// An age of zero means the identity never supplied one.
func EvaluateIdentityPolicy(user *domain.User) IdentityStatus {
	return IdentityStatus{
		Verified:      user.IsVerified(),
		AgeKnown:      user.Age > 0,
		Age:           user.Age,
		AccountActive: user.AccountStatus == domain.AccountStatusActive,
	}
}

// Check returns the reasons the identity fails offering's gates, or nil.
func (s IdentityStatus) Check(offering domain.ServiceOffering) []string {
	var reasons []string
	if offering.MinVerificationRequired && !s.Verified {
		reasons = append(reasons, ReasonVerificationRequired)
	}
	if offering.MinAge > 0 {
		switch {
		case !s.AgeKnown:
			reasons = append(reasons, ReasonAgeUnknown)
		case s.Age < offering.MinAge:
			reasons = append(reasons, ReasonAgeBelowMinimum)
		}
	}
	return reasons
}
