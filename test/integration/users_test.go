//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/directory"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── User Directory Tests ─────────────────────────────────────────────────

func TestUsers_MergesAccountsAndProfiles(t *testing.T) {
	env := testutil.NewTestEnv(t)

	authOnly := env.SeedAccount("fresh-signup@member.test", domain.UserTypeTalent, false)
	profiled := env.SeedProfile(testutil.ProfileSeed{
		Email: "known@member.test", UserType: domain.UserTypeCustomer,
		Status: domain.VerificationVerified, Age: 31,
	})

	resp := env.AuthGET("/users", env.AdminToken(auth.RoleViewer))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap directory.Snapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.False(t, snap.Degraded)
	require.Len(t, snap.Users, 2)

	byID := map[string]domain.User{}
	for _, u := range snap.Users {
		byID[u.ID.String()] = u
	}
	assert.True(t, byID[authOnly.String()].AuthOnly)
	assert.Equal(t, domain.VerificationPending, byID[authOnly.String()].VerificationStatus)
	assert.Equal(t, domain.UserTypeTalent, byID[authOnly.String()].UserType)
	assert.True(t, byID[profiled.String()].HasProfile)
	assert.Equal(t, domain.VerificationVerified, byID[profiled.String()].VerificationStatus)
}

func TestUsers_FilterByStatus(t *testing.T) {
	env := testutil.NewTestEnv(t)

	env.SeedAccount("pending@member.test", domain.UserTypeCustomer, true)
	env.SeedVerifiedPair(domain.TalentElite)

	resp := env.AuthGET("/users?status=pending", env.AdminToken(auth.RoleViewer))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap directory.Snapshot
	testutil.DecodeJSON(t, resp, &snap)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "pending@member.test", snap.Users[0].Email)
}

func TestUsers_GetUnknownIsNotFound(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AuthGET("/users/0b3c6f7e-0000-4000-8000-000000000000", env.AdminToken(auth.RoleViewer))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsers_RequiresAdminRealm(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, _ := env.SeedVerifiedPair(domain.TalentFresh)

	resp := env.AuthGET("/users", env.MemberToken(customerID))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ─── Catalog Tests ────────────────────────────────────────────────────────

func TestServices_AnonymousSeesAuthenticationReason(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/services")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Allowed    []domain.ServiceOffering `json:"allowed"`
		Restricted []struct {
			ServiceType domain.ServiceType `json:"service_type"`
			Reasons     []string           `json:"reasons"`
		} `json:"restricted"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Allowed)
	assert.NotEmpty(t, result.Restricted)
}

func TestEligibleServices_MemberScopedToSelf(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentVIP)
	token := env.MemberToken(customerID)

	resp := env.AuthGET("/users/"+customerID.String()+"/eligible-services", token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.AuthGET("/users/"+talentID.String()+"/eligible-services", token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.AuthGET("/users/"+talentID.String()+"/eligible-services", env.AdminToken(auth.RoleViewer))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
