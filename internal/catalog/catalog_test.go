package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rentlover/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	offerings := c.Offerings()
	require.Len(t, offerings, 6)
	assert.Equal(t, domain.ServiceChat, offerings[0].ServiceType)
	assert.Equal(t, domain.ServiceRentLover, offerings[5].ServiceType)

	rent, ok := c.Offering(domain.ServiceRentLover)
	require.True(t, ok)
	assert.True(t, rent.MinVerificationRequired)
	assert.Equal(t, 21, rent.MinAge)
	assert.Equal(t, int64(450000), rent.BasePrice)

	chat, _ := c.Offering(domain.ServiceChat)
	assert.False(t, chat.Restricted())

	rate, err := c.Commission.RateAt(domain.TalentVIP, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1500), rate)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Offerings(), 6)

	c, err = Load("")
	require.NoError(t, err)
	assert.Len(t, c.Offerings(), 6)
}

func TestLoad_OverridesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
services:
  - service_type: chat
    label: Chat Plus
    base_price: 30000
    unit: day
commission:
  - talent_level: elite
    rate_bps: 1700
    effective_from: 2026-06-01T00:00:00Z
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	chat, ok := c.Offering(domain.ServiceChat)
	require.True(t, ok)
	assert.Equal(t, "Chat Plus", chat.Label)
	assert.Equal(t, int64(30000), chat.BasePrice)

	call, _ := c.Offering(domain.ServiceCall)
	assert.Equal(t, int64(40000), call.BasePrice, "entries absent from the file keep defaults")

	before, err := c.Commission.RateAt(domain.TalentElite, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1800), before)
	after, err := c.Commission.RateAt(domain.TalentElite, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1700), after)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown service", "services:\n  - service_type: massage\n    base_price: 1\n    unit: hour\n"},
		{"unknown unit", "services:\n  - service_type: chat\n    base_price: 1\n    unit: week\n"},
		{"zero price", "services:\n  - service_type: chat\n    base_price: 0\n    unit: day\n"},
		{"unknown tier", "commission:\n  - talent_level: gold\n    rate_bps: 100\n"},
		{"rate out of range", "commission:\n  - talent_level: vip\n    rate_bps: 20000\n"},
		{"malformed", "services: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
