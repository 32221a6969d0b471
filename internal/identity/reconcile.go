// Package identity merges the account and profile sources into one User per
// identity. Everything here is pure and safe for concurrent use.
package identity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
)

// Reconcile merges accounts and profiles into canonical users.
//
// Profiles are inserted first and win on every overlapping field. Accounts
// only backfill a missing email or createdAt on an existing entry, and
// otherwise become auth-only users with derived defaults. The result does not
// depend on the order of either argument; it is sorted by createdAt
// descending with the id as tie-break.
func Reconcile(accounts []domain.AccountRecord, profiles []domain.ProfileRecord) []domain.User {
	byID := make(map[uuid.UUID]*domain.User, len(accounts)+len(profiles))

	for _, p := range dedupeProfiles(profiles) {
		u := fromProfile(p)
		byID[p.ID] = &u
	}

	for _, a := range dedupeAccounts(accounts) {
		if u, ok := byID[a.ID]; ok {
			if u.Email == "" {
				u.Email = strings.TrimSpace(a.Email)
			}
			if u.CreatedAt.IsZero() {
				u.CreatedAt = a.CreatedAt
			}
			if u.DisplayName == "" {
				u.DisplayName = emailLocalPart(u.Email)
			}
			continue
		}
		u := fromAccount(a)
		byID[a.ID] = &u
	}

	users := make([]domain.User, 0, len(byID))
	for _, u := range byID {
		if u.DisplayName == "" {
			u.DisplayName = emailLocalPart(u.Email)
		}
		users = append(users, *u)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	return users
}

// ReconcileOne merges the records of a single identity. It returns nil when
// neither record exists.
func ReconcileOne(account *domain.AccountRecord, profile *domain.ProfileRecord) *domain.User {
	var accounts []domain.AccountRecord
	var profiles []domain.ProfileRecord
	if account != nil {
		accounts = append(accounts, *account)
	}
	if profile != nil {
		profiles = append(profiles, *profile)
	}
	users := Reconcile(accounts, profiles)
	if len(users) == 0 {
		return nil
	}
	return &users[0]
}

func fromProfile(p domain.ProfileRecord) domain.User {
	status, ok := domain.ParseVerificationStatus(string(p.VerificationStatus))
	if !ok {
		status = domain.VerificationPending
	}
	var level *domain.TalentLevel
	if p.TalentLevel != nil {
		if l, ok := domain.ParseTalentLevel(string(*p.TalentLevel)); ok {
			level = &l
		}
	}
	return domain.User{
		ID:                 p.ID,
		Email:              strings.TrimSpace(p.Email),
		DisplayName:        strings.TrimSpace(p.Name),
		Phone:              strings.TrimSpace(p.Phone),
		UserType:           domain.ParseUserType(string(p.UserType)),
		VerificationStatus: status,
		TalentLevel:        level,
		AccountStatus:      p.AccountStatus,
		Age:                p.Age,
		HasProfile:         true,
		AuthOnly:           false,
		CreatedAt:          p.CreatedAt,
	}
}

func fromAccount(a domain.AccountRecord) domain.User {
	status := domain.VerificationPending
	if a.EmailConfirmedAt != nil {
		status = domain.VerificationVerified
	}
	email := strings.TrimSpace(a.Email)
	name := a.MetadataString("fullName")
	if name == "" {
		name = emailLocalPart(email)
	}
	return domain.User{
		ID:                 a.ID,
		Email:              email,
		DisplayName:        name,
		Phone:              a.MetadataString("phone"),
		UserType:           domain.ParseUserType(a.MetadataString("userType")),
		VerificationStatus: status,
		HasProfile:         false,
		AuthOnly:           true,
		CreatedAt:          a.CreatedAt,
	}
}

func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// dedupeProfiles keeps one profile per id: the most recently updated, then a
// content comparison so the choice never depends on input order.
func dedupeProfiles(profiles []domain.ProfileRecord) []domain.ProfileRecord {
	best := make(map[uuid.UUID]domain.ProfileRecord, len(profiles))
	for _, p := range profiles {
		cur, ok := best[p.ID]
		if !ok || profilePreferred(p, cur) {
			best[p.ID] = p
		}
	}
	out := make([]domain.ProfileRecord, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	return out
}

func profilePreferred(a, b domain.ProfileRecord) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return recordKey(a) > recordKey(b)
}

// recordKey is a canonical encoding of the whole record. Map keys are sorted
// by encoding/json, so equal records always produce equal keys.
func recordKey(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

// dedupeAccounts keeps one account per id: the earliest created, preferring a
// confirmed one, then the smaller email, then the full record content.
func dedupeAccounts(accounts []domain.AccountRecord) []domain.AccountRecord {
	best := make(map[uuid.UUID]domain.AccountRecord, len(accounts))
	for _, a := range accounts {
		cur, ok := best[a.ID]
		if !ok || accountPreferred(a, cur) {
			best[a.ID] = a
		}
	}
	out := make([]domain.AccountRecord, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	return out
}

func accountPreferred(a, b domain.AccountRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.IsZero() || b.CreatedAt.IsZero() {
			return !a.CreatedAt.IsZero()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if (a.EmailConfirmedAt != nil) != (b.EmailConfirmedAt != nil) {
		return a.EmailConfirmedAt != nil
	}
	if a.Email != b.Email {
		return a.Email < b.Email
	}
	return recordKey(a) < recordKey(b)
}
