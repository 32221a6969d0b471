package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu         sync.Mutex
	accounts   []domain.AccountRecord
	profiles   []domain.ProfileRecord
	version    int
	accountErr error
	profileErr error
	// afterAccounts runs between the two list calls.
	afterAccounts func()
	listCalls     int
}

func (f *fakeSource) ListAccounts(context.Context) ([]domain.AccountRecord, error) {
	f.mu.Lock()
	f.listCalls++
	out, err := append([]domain.AccountRecord(nil), f.accounts...), f.accountErr
	hook := f.afterAccounts
	f.afterAccounts = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeSource) ListProfiles(context.Context) ([]domain.ProfileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return append([]domain.ProfileRecord(nil), f.profiles...), nil
}

func (f *fakeSource) FindAccount(_ context.Context, id uuid.UUID) (*domain.AccountRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	for _, a := range f.accounts {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeSource) FindProfile(_ context.Context, id uuid.UUID) (*domain.ProfileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	for _, p := range f.profiles {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeSource) Watermark(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(rune('a' + f.version%26)), nil
}

func (f *fakeSource) addProfile(p domain.ProfileRecord) {
	f.mu.Lock()
	f.profiles = append(f.profiles, p)
	f.version++
	f.mu.Unlock()
}

func (f *fakeSource) addAccount(a domain.AccountRecord) {
	f.mu.Lock()
	f.accounts = append(f.accounts, a)
	f.version++
	f.mu.Unlock()
}

func byID(users []domain.User) map[uuid.UUID]domain.User {
	out := make(map[uuid.UUID]domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded() (*fakeSource, uuid.UUID) {
	id := uuid.New()
	now := time.Now().UTC()
	return &fakeSource{
		accounts: []domain.AccountRecord{{ID: id, Email: "talent@example.com", CreatedAt: now}},
	}, id
}

func TestSnapshot_ReconcilesBothSources(t *testing.T) {
	src, id := seeded()
	other := uuid.New()
	src.profiles = []domain.ProfileRecord{{ID: other, Email: "c@example.com", Name: "Cust", UserType: domain.UserTypeCustomer, VerificationStatus: domain.VerificationVerified}}

	d := New(src, projection.NewInMemoryStore(), time.Minute, testLogger())
	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Users, 2)
	assert.False(t, snap.Degraded)
	assert.Empty(t, snap.SourceErrors)
	found := false
	for _, u := range snap.Users {
		if u.ID == id {
			found = true
			assert.True(t, u.AuthOnly)
		}
	}
	assert.True(t, found)
}

func TestSnapshot_CachedByWatermark(t *testing.T) {
	src, _ := seeded()
	d := New(src, projection.NewInMemoryStore(), time.Minute, testLogger())
	ctx := context.Background()

	_, err := d.Snapshot(ctx)
	require.NoError(t, err)
	_, err = d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.listCalls, "second read is served from cache")

	src.addProfile(domain.ProfileRecord{ID: uuid.New(), Email: "new@example.com", VerificationStatus: domain.VerificationPending})
	snap, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls, "a new watermark forces a rebuild")
	assert.Len(t, snap.Users, 2)
}

func TestSnapshot_DegradedWhenOneSourceFails(t *testing.T) {
	src, _ := seeded()
	src.profileErr = errors.New("profiles down")

	d := New(src, projection.NewInMemoryStore(), time.Minute, testLogger())
	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Degraded)
	require.Len(t, snap.SourceErrors, 1)
	assert.Contains(t, snap.SourceErrors[0], "profiles")
	assert.Len(t, snap.Users, 1)

	src.profileErr = nil
	snap, err = d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Degraded, "degraded snapshots are not cached")
}

func TestSnapshot_BothSourcesFail(t *testing.T) {
	src, _ := seeded()
	src.accountErr = errors.New("accounts down")
	src.profileErr = errors.New("profiles down")

	d := New(src, nil, time.Minute, testLogger())
	_, err := d.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodePartialSourceFailure))
}

// An identity written between the account fetch and the profile fetch is
// missing from the snapshot built around it: a transiently stale view. The
// write moves the watermark, so the next read rebuilds and self-heals.
func TestSnapshot_StaleViewSelfHeals(t *testing.T) {
	src, _ := seeded()
	d := New(src, projection.NewInMemoryStore(), time.Minute, testLogger())
	ctx := context.Background()

	lateID := uuid.New()
	src.afterAccounts = func() {
		src.addAccount(domain.AccountRecord{ID: lateID, Email: "late@example.com", CreatedAt: time.Now().UTC()})
		src.addProfile(domain.ProfileRecord{
			ID: lateID, Email: "late@example.com", Name: "Late",
			UserType: domain.UserTypeTalent, VerificationStatus: domain.VerificationPending,
		})
	}
	racing, err := d.Snapshot(ctx)
	require.NoError(t, err)
	users := byID(racing.Users)
	require.Contains(t, users, lateID, "the profile fetch saw the write")
	assert.True(t, users[lateID].CreatedAt.IsZero(), "but the account backfill did not")

	healed, err := d.Snapshot(ctx)
	require.NoError(t, err)
	users = byID(healed.Users)
	require.Contains(t, users, lateID)
	assert.False(t, users[lateID].CreatedAt.IsZero())
	assert.False(t, users[lateID].AuthOnly)
}

func TestFindUser(t *testing.T) {
	src, id := seeded()
	d := New(src, nil, 0, testLogger())

	u, err := d.FindUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "talent", u.DisplayName)

	_, err = d.FindUser(context.Background(), uuid.New())
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestFindUser_DegradesToOneSource(t *testing.T) {
	src, id := seeded()
	src.profileErr = errors.New("down")
	d := New(src, nil, 0, testLogger())

	u, err := d.FindUser(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, u.AuthOnly)

	src.accountErr = errors.New("down")
	_, err = d.FindUser(context.Background(), id)
	assert.True(t, domain.HasCode(err, domain.CodePartialSourceFailure))
}
