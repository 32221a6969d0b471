package policy

import (
	"testing"

	"github.com/rentlover/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateIdentityPolicy(t *testing.T) {
	u := testUser(domain.VerificationVerified, 22)
	status := EvaluateIdentityPolicy(u)
	assert.True(t, status.Verified)
	assert.True(t, status.AgeKnown)
	assert.True(t, status.AccountActive)

	u.AccountStatus = domain.AccountStatusSuspended
	u.Age = 0
	status = EvaluateIdentityPolicy(u)
	assert.False(t, status.AgeKnown)
	assert.False(t, status.AccountActive)
}

func TestIdentityStatus_CheckUngated(t *testing.T) {
	status := IdentityStatus{}
	assert.Nil(t, status.Check(domain.ServiceOffering{ServiceType: domain.ServiceChat}))
}
