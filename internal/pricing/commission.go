package pricing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rentlover/platform/internal/domain"
)

// CommissionRate is one row of the commission reference table.
type CommissionRate struct {
	Level         domain.TalentLevel `json:"talent_level" yaml:"talent_level"`
	RateBps       int64              `json:"rate_bps" yaml:"rate_bps"`
	EffectiveFrom time.Time          `json:"effective_from" yaml:"effective_from"`
}

// DefaultCommissionRates returns the launch tiers: fresh 20%, elite 18%, vip 15%.
func DefaultCommissionRates() []CommissionRate {
	return []CommissionRate{
		{Level: domain.TalentFresh, RateBps: 2000},
		{Level: domain.TalentElite, RateBps: 1800},
		{Level: domain.TalentVIP, RateBps: 1500},
	}
}

// CommissionTable is append-only: a new rate only applies from its
// EffectiveFrom onward, so already priced bookings keep the rate they were
// priced with.
type CommissionTable struct {
	mu      sync.RWMutex
	entries map[domain.TalentLevel][]CommissionRate // sorted by EffectiveFrom
}

// NewCommissionTable builds a table from the given rates.
func NewCommissionTable(rates ...CommissionRate) (*CommissionTable, error) {
	t := &CommissionTable{entries: make(map[domain.TalentLevel][]CommissionRate)}
	sorted := append([]CommissionRate(nil), rates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom) })
	for _, r := range sorted {
		if err := t.Append(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// DefaultCommissionTable returns a table holding DefaultCommissionRates.
func DefaultCommissionTable() *CommissionTable {
	t, err := NewCommissionTable(DefaultCommissionRates()...)
	if err != nil {
		panic(err)
	}
	return t
}

// Append adds a rate. Its EffectiveFrom may not precede the latest entry for
// the same level.
func (t *CommissionTable) Append(r CommissionRate) error {
	if _, ok := domain.ParseTalentLevel(string(r.Level)); !ok {
		return fmt.Errorf("commission rate: unknown talent level %q", r.Level)
	}
	if r.RateBps < 0 || r.RateBps > bpsDenominator {
		return fmt.Errorf("commission rate: %d bps out of range", r.RateBps)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.entries[r.Level]
	if n := len(existing); n > 0 && r.EffectiveFrom.Before(existing[n-1].EffectiveFrom) {
		return fmt.Errorf("commission rate for %s effective %s precedes latest entry %s",
			r.Level, r.EffectiveFrom.Format(time.RFC3339), existing[n-1].EffectiveFrom.Format(time.RFC3339))
	}
	t.entries[r.Level] = append(existing, r)
	return nil
}

// RateAt returns the rate in basis points effective for level at the given
// instant. Unknown levels, or levels with no rate yet in force, fail with
// UnknownTier rather than falling back to a default.
func (t *CommissionTable) RateAt(level domain.TalentLevel, at time.Time) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := t.entries[level]
	for i := len(entries) - 1; i >= 0; i-- {
		if !entries[i].EffectiveFrom.After(at) {
			return entries[i].RateBps, nil
		}
	}
	return 0, domain.ErrUnknownTier(string(level))
}

// Rates returns a copy of all entries, grouped by level in tier order.
func (t *CommissionTable) Rates() []CommissionRate {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []CommissionRate
	for _, level := range []domain.TalentLevel{domain.TalentFresh, domain.TalentElite, domain.TalentVIP} {
		out = append(out, t.entries[level]...)
	}
	return out
}
