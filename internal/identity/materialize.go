package identity

import (
	"strings"
	"time"

	"github.com/rentlover/platform/internal/domain"
)

// MaterializeProfile builds the profile row for an auth-only user so a
// verification decision never leaves an identity without one. Application
// fields override what the account carried; the status stays pending until
// the decision itself is written.
func MaterializeProfile(u domain.User, app *domain.TalentApplication, now time.Time) domain.ProfileRecord {
	p := domain.ProfileRecord{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.DisplayName,
		Phone:              u.Phone,
		UserType:           u.UserType,
		VerificationStatus: domain.VerificationPending,
		AccountStatus:      domain.AccountStatusPending,
		Age:                u.Age,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          now,
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	if app != nil {
		if s := strings.TrimSpace(app.Name); s != "" {
			p.Name = s
		}
		if s := strings.TrimSpace(app.Phone); s != "" {
			p.Phone = s
		}
		p.Bio = strings.TrimSpace(app.Bio)
		p.City = strings.TrimSpace(app.City)
		if app.Age > 0 {
			p.Age = app.Age
		}
		p.HourlyRate = app.HourlyRate
		for _, s := range app.Services {
			if st, ok := domain.ParseServiceType(string(s)); ok {
				p.Services = append(p.Services, st)
			}
		}
		if level, ok := domain.ParseTalentLevel(app.TalentLevel); ok && u.IsTalent() {
			p.TalentLevel = &level
		}
	}

	// New talents start on the entry tier.
	if u.IsTalent() && p.TalentLevel == nil {
		level := domain.TalentFresh
		p.TalentLevel = &level
	}
	return p
}
