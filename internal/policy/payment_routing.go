package policy

import "strings"

// PaymentRoutingPolicy decides which payment methods may start a booking and
// which settle asynchronously.
type PaymentRoutingPolicy struct {
	AllowedMethods []string `json:"allowed_methods,omitempty"` // empty = all allowed
	BlockedMethods []string `json:"blocked_methods,omitempty"`
	// DeferredMethods report success before funds are confirmed; their
	// outcomes park in pending_verification until confirmed.
	DeferredMethods []string `json:"deferred_methods,omitempty"`
}

// DefaultPaymentRoutingPolicy treats bank transfers, virtual accounts and
// convenience-store payments as deferred.
func DefaultPaymentRoutingPolicy() PaymentRoutingPolicy {
	return PaymentRoutingPolicy{
		DeferredMethods: []string{
			"bank_transfer", "echannel", "permata", "permata_va",
			"bca_va", "bni_va", "bri_va", "cimb_va", "other_va", "cstore",
		},
	}
}

// PaymentRouteEvaluation holds the result of a routing check.
type PaymentRouteEvaluation struct {
	Allowed  bool   `json:"allowed"`
	Deferred bool   `json:"deferred"`
	Reason   string `json:"reason,omitempty"`
}

// EvaluatePaymentMethod checks a method against the policy. Matching is
// case-insensitive.
func EvaluatePaymentMethod(policy PaymentRoutingPolicy, method string) PaymentRouteEvaluation {
	m := normalizeMethod(method)
	if m == "" {
		return PaymentRouteEvaluation{Allowed: false, Reason: "payment method is required"}
	}
	if contains(policy.BlockedMethods, m) {
		return PaymentRouteEvaluation{Allowed: false, Reason: "payment method blocked: " + m}
	}
	if len(policy.AllowedMethods) > 0 && !contains(policy.AllowedMethods, m) {
		return PaymentRouteEvaluation{Allowed: false, Reason: "payment method not in allowed list: " + m}
	}
	return PaymentRouteEvaluation{Allowed: true, Deferred: contains(policy.DeferredMethods, m)}
}

// IsDeferred reports whether method settles asynchronously.
func (p PaymentRoutingPolicy) IsDeferred(method string) bool {
	return contains(p.DeferredMethods, normalizeMethod(method))
}

func normalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
