//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates all tables. CASCADE takes care of the foreign keys.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"talent_earnings",
		"transaction_status_history",
		"transactions",
		"booking_items",
		"bookings",
		"event_outbox",
		"profiles",
		"accounts",
	}

	for _, table := range tables {
		_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
	}
	_ = env.Directory.Invalidate(ctx)
}
