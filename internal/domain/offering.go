package domain

import "strings"

// ServiceType enumerates the bookable services. Values are persisted.
type ServiceType string

const (
	ServiceChat        ServiceType = "chat"
	ServiceCall        ServiceType = "call"
	ServiceVideoCall   ServiceType = "video_call"
	ServiceOfflineDate ServiceType = "offline_date"
	ServicePartyBuddy  ServiceType = "party_buddy"
	ServiceRentLover   ServiceType = "rent_lover"
)

// AllServiceTypes lists every service type in catalog order.
func AllServiceTypes() []ServiceType {
	return []ServiceType{ServiceChat, ServiceCall, ServiceVideoCall, ServiceOfflineDate, ServicePartyBuddy, ServiceRentLover}
}

// ParseServiceType returns false for values outside the persisted enum.
func ParseServiceType(s string) (ServiceType, bool) {
	v := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range AllServiceTypes() {
		if st == v {
			return v, true
		}
	}
	return "", false
}

// Unit is the billing unit of an offering.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitHour  Unit = "hour"
	UnitEvent Unit = "event"
)

// ServiceOffering is a catalog entry.
type ServiceOffering struct {
	ServiceType             ServiceType `json:"service_type" yaml:"service_type"`
	Label                   string      `json:"label,omitempty" yaml:"label"`
	BasePrice               int64       `json:"base_price" yaml:"base_price"`
	Unit                    Unit        `json:"unit" yaml:"unit"`
	MinVerificationRequired bool        `json:"min_verification_required" yaml:"min_verification_required"`
	MinAge                  int         `json:"min_age" yaml:"min_age"`
}

// Restricted reports whether the offering has any gate at all.
func (o ServiceOffering) Restricted() bool {
	return o.MinVerificationRequired || o.MinAge > 0
}
