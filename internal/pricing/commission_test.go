package pricing

import (
	"testing"
	"time"

	"github.com/rentlover/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionTable_Defaults(t *testing.T) {
	table := DefaultCommissionTable()
	now := time.Now()

	tests := []struct {
		level domain.TalentLevel
		want  int64
	}{
		{domain.TalentFresh, 2000},
		{domain.TalentElite, 1800},
		{domain.TalentVIP, 1500},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			rate, err := table.RateAt(tt.level, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rate)
		})
	}
	assert.Len(t, table.Rates(), 3)
}

func TestCommissionTable_ChangesApplyProspectively(t *testing.T) {
	table := DefaultCommissionTable()
	change := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, table.Append(CommissionRate{Level: domain.TalentVIP, RateBps: 1200, EffectiveFrom: change}))

	before, err := table.RateAt(domain.TalentVIP, change.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), before)

	after, err := table.RateAt(domain.TalentVIP, change)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), after)

	e := NewEngine(table)
	items := []domain.BookingLineItem{{ServiceType: domain.ServiceOfflineDate, DurationUnits: 3, UnitBasePrice: 95000}}
	old, err := e.PriceAt(items, domain.TalentVIP, change.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(42750), old.PlatformCommission, "bookings priced before the change keep the old rate")
}

func TestCommissionTable_AppendOnly(t *testing.T) {
	table := DefaultCommissionTable()
	later := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, table.Append(CommissionRate{Level: domain.TalentElite, RateBps: 1700, EffectiveFrom: later}))

	err := table.Append(CommissionRate{Level: domain.TalentElite, RateBps: 1600, EffectiveFrom: later.Add(-24 * time.Hour)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes latest entry")
}

func TestCommissionTable_RejectsInvalidRates(t *testing.T) {
	_, err := NewCommissionTable(CommissionRate{Level: "gold", RateBps: 1000})
	assert.Error(t, err)

	_, err = NewCommissionTable(CommissionRate{Level: domain.TalentFresh, RateBps: 10001})
	assert.Error(t, err)

	_, err = NewCommissionTable(CommissionRate{Level: domain.TalentFresh, RateBps: -1})
	assert.Error(t, err)
}

func TestCommissionTable_NoRateInForceYet(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	table, err := NewCommissionTable(CommissionRate{Level: domain.TalentFresh, RateBps: 2000, EffectiveFrom: future})
	require.NoError(t, err)

	_, err = table.RateAt(domain.TalentFresh, time.Now())
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeUnknownTier))
}

func TestNewCommissionTable_SortsInput(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	table, err := NewCommissionTable(
		CommissionRate{Level: domain.TalentFresh, RateBps: 1900, EffectiveFrom: feb},
		CommissionRate{Level: domain.TalentFresh, RateBps: 2000, EffectiveFrom: jan},
	)
	require.NoError(t, err)

	rate, err := table.RateAt(domain.TalentFresh, feb.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1900), rate)
}
