package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const maxReasonLength = 500

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateRejectionReason requires a non-blank reason of bounded length.
func ValidateRejectionReason(reason string) error {
	r := strings.TrimSpace(reason)
	if r == "" {
		return fmt.Errorf("rejection reason is required")
	}
	if len(r) > maxReasonLength {
		return fmt.Errorf("rejection reason exceeds %d characters", maxReasonLength)
	}
	return nil
}

// ValidateLineItem checks a booking line item before pricing.
func ValidateLineItem(item BookingLineItem) error {
	if _, ok := ParseServiceType(string(item.ServiceType)); !ok {
		return fmt.Errorf("unknown service type: %s", item.ServiceType)
	}
	if item.DurationUnits <= 0 {
		return fmt.Errorf("duration must be positive, got %d", item.DurationUnits)
	}
	if item.UnitBasePrice < 0 {
		return fmt.Errorf("unit price must not be negative, got %d", item.UnitBasePrice)
	}
	return nil
}
