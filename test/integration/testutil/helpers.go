//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/provider"
)

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with a JSON body. An empty token sends no Authorization header.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// RawPOST sends raw bytes with custom headers.
func (env *TestEnv) RawPOST(path string, body []byte, headers map[string]string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.Server.URL+path, bytes.NewReader(body))
	if err != nil {
		env.t.Fatalf("RawPOST %s: new request: %v", path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("RawPOST %s: %v", path, err)
	}
	return resp
}

// MemberToken issues a member-realm token for the given identity.
func (env *TestEnv) MemberToken(id uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmMember, id, id.String()[:8]+"@member.test", "")
	if err != nil {
		env.t.Fatalf("MemberToken: %v", err)
	}
	return token
}

// AdminToken issues an admin-realm token with the given role.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "ops@rentlover.id", role)
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// SeedAccount inserts an auth-only account the way the auth provider writes it at signup.
func (env *TestEnv) SeedAccount(email string, userType domain.UserType, confirmed bool) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	var confirmedAt *time.Time
	if confirmed {
		now := time.Now().UTC()
		confirmedAt = &now
	}
	meta, _ := json.Marshal(map[string]string{
		"userType": string(userType),
		"fullName": "Seed " + email,
		"phone":    "+628111000111",
	})

	_, err := env.Pool.Exec(ctx,
		`INSERT INTO accounts (id, email, email_confirmed_at, metadata) VALUES ($1, $2, $3, $4)`,
		id, email, confirmedAt, meta)
	if err != nil {
		env.t.Fatalf("SeedAccount: %v", err)
	}
	return id
}

// ProfileSeed describes a profile row. Zero fields take the column defaults.
type ProfileSeed struct {
	Email       string
	UserType    domain.UserType
	Status      domain.VerificationStatus
	TalentLevel domain.TalentLevel
	Age         int
}

// SeedProfile inserts an account with a materialized profile.
func (env *TestEnv) SeedProfile(p ProfileSeed) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := env.SeedAccount(p.Email, p.UserType, true)

	accountStatus := domain.AccountStatusPending
	if p.Status == domain.VerificationVerified {
		accountStatus = domain.AccountStatusActive
	}
	var level *string
	if p.TalentLevel != "" {
		l := string(p.TalentLevel)
		level = &l
	}
	var age *int
	if p.Age > 0 {
		age = &p.Age
	}

	_, err := env.Pool.Exec(ctx,
		`INSERT INTO profiles (id, email, name, user_type, verification_status, account_status, talent_level, age)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::talent_level, $8)`,
		id, p.Email, "Seed "+p.Email, string(p.UserType), string(p.Status), accountStatus, level, age)
	if err != nil {
		env.t.Fatalf("SeedProfile: %v", err)
	}
	return id
}

// SeedVerifiedPair seeds a verified customer and a verified talent of the given level.
func (env *TestEnv) SeedVerifiedPair(level domain.TalentLevel) (customerID, talentID uuid.UUID) {
	env.t.Helper()
	customerID = env.SeedProfile(ProfileSeed{
		Email: "customer-" + uuid.NewString()[:8] + "@member.test", UserType: domain.UserTypeCustomer,
		Status: domain.VerificationVerified, Age: 30,
	})
	talentID = env.SeedProfile(ProfileSeed{
		Email: "talent-" + uuid.NewString()[:8] + "@member.test", UserType: domain.UserTypeTalent,
		Status: domain.VerificationVerified, TalentLevel: level, Age: 25,
	})
	return customerID, talentID
}

// SeedTransaction inserts a booking and its transaction in the given status.
func (env *TestEnv) SeedTransaction(customerID, talentID uuid.UUID, amount, earning int64, status domain.PaymentStatus) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bookingID := uuid.New()
	txID := uuid.New()
	fee := amount - earning

	_, err := env.Pool.Exec(ctx,
		`INSERT INTO bookings (id, customer_id, talent_id, subtotal, app_fee, platform_commission,
		                       talent_earning, total, talent_level, commission_rate_bps, payment_method)
		 VALUES ($1, $2, $3, $4, 0, $5, $6, $4, 'fresh', 2000, 'gopay')`,
		bookingID, customerID, talentID, amount, fee, earning)
	if err != nil {
		env.t.Fatalf("SeedTransaction: booking: %v", err)
	}

	_, err = env.Pool.Exec(ctx,
		`INSERT INTO transactions (id, booking_id, customer_id, talent_id, amount, talent_earning,
		                           platform_fee, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'gopay', $8)`,
		txID, bookingID, customerID, talentID, amount, earning, fee, string(status))
	if err != nil {
		env.t.Fatalf("SeedTransaction: transaction: %v", err)
	}
	return txID
}

// MidtransNotification builds a signed notification body for the test server key.
func MidtransNotification(orderID, statusCode, status, gross string) []byte {
	return midtransNotification(orderID, statusCode, status, gross, TestMidtransServerKey)
}

// MidtransNotificationWithKey signs with an arbitrary key.
func MidtransNotificationWithKey(orderID, statusCode, status, gross, key string) []byte {
	return midtransNotification(orderID, statusCode, status, gross, key)
}

func midtransNotification(orderID, statusCode, status, gross, key string) []byte {
	b, _ := json.Marshal(provider.MidtransNotification{
		TransactionID:     "mt-" + orderID[:8],
		TransactionStatus: status,
		StatusCode:        statusCode,
		OrderID:           orderID,
		GrossAmount:       gross,
		PaymentType:       "gopay",
		SignatureKey:      provider.Signature(orderID, statusCode, gross, key),
	})
	return b
}
