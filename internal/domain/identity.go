package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserType is the persisted role of an identity. The stored values are
// kept stable for compatibility with existing rows.
type UserType string

const (
	UserTypeCustomer UserType = "user"
	UserTypeTalent   UserType = "companion"
	UserTypeAdmin    UserType = "admin"
)

// ParseUserType accepts both the persisted values and their display aliases.
// Anything unrecognized is a customer.
func ParseUserType(s string) UserType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "companion", "talent":
		return UserTypeTalent
	case "admin":
		return UserTypeAdmin
	default:
		return UserTypeCustomer
	}
}

// VerificationStatus is the approval state of an identity.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// ParseVerificationStatus returns false for values outside the persisted enum.
func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch v := VerificationStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return v, true
	}
	return "", false
}

// TalentLevel is the commission tier of a talent.
type TalentLevel string

const (
	TalentFresh TalentLevel = "fresh"
	TalentElite TalentLevel = "elite"
	TalentVIP   TalentLevel = "vip"
)

// ParseTalentLevel returns false for values outside the persisted enum.
func ParseTalentLevel(s string) (TalentLevel, bool) {
	switch v := TalentLevel(strings.ToLower(strings.TrimSpace(s))); v {
	case TalentFresh, TalentElite, TalentVIP:
		return v, true
	}
	return "", false
}

// Account status values written by verification decisions.
const (
	AccountStatusActive    = "active"
	AccountStatusPending   = "pending"
	AccountStatusSuspended = "suspended"
)

// AccountRecord is a row from the account source, created at signup.
type AccountRecord struct {
	ID               uuid.UUID              `json:"id"`
	Email            string                 `json:"email"`
	CreatedAt        time.Time              `json:"created_at"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// MetadataString reads a string value from the metadata bag, trying the
// camelCase key first and then its snake_case form.
func (a AccountRecord) MetadataString(key string) string {
	if a.Metadata == nil {
		return ""
	}
	for _, k := range []string{key, toSnake(key)} {
		if v, ok := a.Metadata[k].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ProfileRecord is a row from the profile source. Profiles are authoritative
// over accounts for every field they carry.
type ProfileRecord struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Phone              string             `json:"phone"`
	UserType           UserType           `json:"user_type"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	AccountStatus      string             `json:"account_status"`
	TalentLevel        *TalentLevel       `json:"talent_level,omitempty"`
	Bio                string             `json:"bio,omitempty"`
	City               string             `json:"city,omitempty"`
	Age                int                `json:"age,omitempty"`
	HourlyRate         int64              `json:"hourly_rate,omitempty"`
	Services           []ServiceType      `json:"services,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty"`
	VerifiedBy         *uuid.UUID         `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// User is the merged view of one identity. Exactly one User exists per id,
// and AuthOnly is true iff no profile exists for it.
type User struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	DisplayName        string             `json:"display_name"`
	Phone              string             `json:"phone"`
	UserType           UserType           `json:"user_type"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	TalentLevel        *TalentLevel       `json:"talent_level,omitempty"`
	AccountStatus      string             `json:"account_status,omitempty"`
	Age                int                `json:"age,omitempty"`
	HasProfile         bool               `json:"has_profile"`
	AuthOnly           bool               `json:"auth_only"`
	CreatedAt          time.Time          `json:"created_at"`
}

// IsVerified reports whether the identity passed admin or email verification.
func (u User) IsVerified() bool { return u.VerificationStatus == VerificationVerified }

// IsTalent reports whether the identity sells services.
func (u User) IsTalent() bool { return u.UserType == UserTypeTalent }

// TalentApplication is the auxiliary registration payload supplied by an
// admin when approving an identity that has no profile yet.
type TalentApplication struct {
	Name        string        `json:"name,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Bio         string        `json:"bio,omitempty"`
	City        string        `json:"city,omitempty"`
	Age         int           `json:"age,omitempty" validate:"omitempty,min=18,max=120"`
	HourlyRate  int64         `json:"hourly_rate,omitempty" validate:"omitempty,min=0"`
	TalentLevel string        `json:"talent_level,omitempty" validate:"omitempty,oneof=fresh elite vip"`
	Services    []ServiceType `json:"services,omitempty"`
}

// VerificationUpdate is a conditional status write: it applies only while
// the stored status is still pending.
type VerificationUpdate struct {
	UserID        uuid.UUID
	To            VerificationStatus
	AccountStatus string
	Reason        string
	ReviewedBy    *uuid.UUID
	ReviewedAt    time.Time
	Event         OutboxDraft
}

// ApprovalNotice is handed to the messaging collaborator after a decision commits.
type ApprovalNotice struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name"`
	Approved    bool      `json:"approved"`
	Reason      string    `json:"reason,omitempty"`
}
