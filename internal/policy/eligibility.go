package policy

import "github.com/rentlover/platform/internal/domain"

// Restriction reasons.
const (
	ReasonAuthenticationRequired = "authentication_required"
	ReasonVerificationRequired   = "verification_required"
	ReasonAgeBelowMinimum        = "age_below_minimum"
	ReasonAgeUnknown             = "age_unknown"
)

// RestrictedOffering is an offering the user may not buy or sell, with the
// reasons why.
type RestrictedOffering struct {
	domain.ServiceOffering
	Reasons []string `json:"reasons"`
}

// EligibilityResult partitions the catalog for one user. Every offering lands
// in exactly one of Allowed or Restricted.
type EligibilityResult struct {
	Allowed    []domain.ServiceOffering `json:"allowed"`
	Restricted []RestrictedOffering     `json:"restricted"`
	// Visible is what the caller may browse. Anonymous callers only see
	// offerings without any gate.
	Visible []domain.ServiceOffering `json:"visible"`
}

// EvaluateEligibility computes which offerings user may buy or sell. A nil
// user is an unauthenticated caller: nothing is purchasable.
func EvaluateEligibility(user *domain.User, offerings []domain.ServiceOffering) EligibilityResult {
	result := EligibilityResult{
		Allowed:    []domain.ServiceOffering{},
		Restricted: []RestrictedOffering{},
		Visible:    []domain.ServiceOffering{},
	}

	if user == nil {
		for _, o := range offerings {
			result.Restricted = append(result.Restricted, RestrictedOffering{
				ServiceOffering: o,
				Reasons:         []string{ReasonAuthenticationRequired},
			})
			if !o.Restricted() {
				result.Visible = append(result.Visible, o)
			}
		}
		return result
	}

	status := EvaluateIdentityPolicy(user)
	for _, o := range offerings {
		result.Visible = append(result.Visible, o)
		if reasons := status.Check(o); len(reasons) > 0 {
			result.Restricted = append(result.Restricted, RestrictedOffering{ServiceOffering: o, Reasons: reasons})
			continue
		}
		result.Allowed = append(result.Allowed, o)
	}
	return result
}

// BookingEligibility is the two-sided check for one offering in a booking.
type BookingEligibility struct {
	Allowed         bool     `json:"allowed"`
	CustomerReasons []string `json:"customer_reasons,omitempty"`
	TalentReasons   []string `json:"talent_reasons,omitempty"`
}

// EvaluateBookingEligibility requires the offering to be allowed for both
// the buying customer and the selling talent.
func EvaluateBookingEligibility(customer, talent *domain.User, offering domain.ServiceOffering) BookingEligibility {
	var out BookingEligibility
	if customer == nil {
		out.CustomerReasons = []string{ReasonAuthenticationRequired}
	} else {
		out.CustomerReasons = EvaluateIdentityPolicy(customer).Check(offering)
	}
	if talent != nil {
		out.TalentReasons = EvaluateIdentityPolicy(talent).Check(offering)
	}
	out.Allowed = len(out.CustomerReasons) == 0 && len(out.TalentReasons) == 0
	return out
}
