package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptrLevel(l domain.TalentLevel) *domain.TalentLevel { return &l }

func customer(verified bool, age int) domain.User {
	status := domain.VerificationPending
	if verified {
		status = domain.VerificationVerified
	}
	return domain.User{
		ID:                 uuid.New(),
		Email:              "cust@example.com",
		DisplayName:        "cust",
		UserType:           domain.UserTypeCustomer,
		VerificationStatus: status,
		AccountStatus:      domain.AccountStatusActive,
		Age:                age,
		HasProfile:         true,
	}
}

func talent(level *domain.TalentLevel, status domain.VerificationStatus) domain.User {
	return domain.User{
		ID:                 uuid.New(),
		Email:              "talent@example.com",
		DisplayName:        "talent",
		Phone:              "+62811",
		UserType:           domain.UserTypeTalent,
		VerificationStatus: status,
		TalentLevel:        level,
		AccountStatus:      domain.AccountStatusActive,
		Age:                24,
		HasProfile:         true,
	}
}

// fakeDirectory doubles as the identity store so writes show up in reads.
type fakeDirectory struct {
	mu          sync.Mutex
	users       map[uuid.UUID]domain.User
	profiles    []domain.ProfileRecord
	updates     []domain.VerificationUpdate
	events      []domain.OutboxDraft
	invalidated int
	loseRace    bool
	failFind    error
}

func newFakeDirectory(users ...domain.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[uuid.UUID]domain.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) FindUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFind != nil {
		return nil, d.failFind
	}
	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user", id.String())
	}
	return &u, nil
}

func (d *fakeDirectory) Invalidate(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invalidated++
	return nil
}

func (d *fakeDirectory) UpsertProfile(_ context.Context, p domain.ProfileRecord, evt domain.OutboxDraft) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.users[p.ID]
	if u.HasProfile {
		return false, nil
	}
	u.HasProfile, u.AuthOnly = true, false
	u.DisplayName, u.Phone, u.Age, u.TalentLevel = p.Name, p.Phone, p.Age, p.TalentLevel
	d.users[p.ID] = u
	d.profiles = append(d.profiles, p)
	d.events = append(d.events, evt)
	return true, nil
}

func (d *fakeDirectory) UpdateVerification(_ context.Context, upd domain.VerificationUpdate) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.users[upd.UserID]
	if d.loseRace {
		u.VerificationStatus = domain.VerificationVerified
		d.users[upd.UserID] = u
		return false, nil
	}
	if !u.HasProfile || u.VerificationStatus != domain.VerificationPending {
		return false, nil
	}
	u.VerificationStatus = upd.To
	u.AccountStatus = upd.AccountStatus
	d.users[upd.UserID] = u
	d.updates = append(d.updates, upd)
	d.events = append(d.events, upd.Event)
	return true, nil
}

type fakeNotifier struct {
	notices []domain.ApprovalNotice
	err     error
}

func (n *fakeNotifier) NotifyApproval(_ context.Context, notice domain.ApprovalNotice) error {
	n.notices = append(n.notices, notice)
	return n.err
}

// fakeLedger applies the same transition table as the real engine for the
// cases the service tests drive.
type fakeLedger struct {
	mu       sync.Mutex
	bookings []*domain.Booking
	txs      map[uuid.UUID]*domain.TransactionRecord
	calls    []string
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{txs: make(map[uuid.UUID]*domain.TransactionRecord)}
}

func (l *fakeLedger) OpenBooking(_ context.Context, b *domain.Booking) (*domain.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	rec := &domain.TransactionRecord{
		ID:            uuid.New(),
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		TalentID:      b.TalentID,
		Amount:        b.Priced.Total,
		TalentEarning: b.Priced.TalentEarning,
		PlatformFee:   b.Priced.PlatformFee(),
		PaymentMethod: b.PaymentMethod,
		Status:        domain.PaymentPending,
	}
	l.bookings = append(l.bookings, b)
	l.txs[rec.ID] = rec
	return rec, nil
}

func (l *fakeLedger) move(id uuid.UUID, call string, to domain.PaymentStatus) (*domain.TransitionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
	if l.err != nil {
		return nil, l.err
	}
	tx, ok := l.txs[id]
	if !ok {
		return nil, domain.ErrNotFound("transaction", id.String())
	}
	prev := tx.Status
	if prev == to {
		return &domain.TransitionResult{Transaction: tx, Previous: prev, Idempotent: true}, nil
	}
	tx.Status = to
	return &domain.TransitionResult{Transaction: tx, Previous: prev}, nil
}

func (l *fakeLedger) ApplyGatewayOutcome(_ context.Context, id uuid.UUID, o domain.GatewayOutcome, _ domain.TransitionSource) (*domain.TransitionResult, error) {
	to := map[domain.GatewayStatus]domain.PaymentStatus{
		domain.GatewaySuccess: domain.PaymentPaid,
		domain.GatewayPending: domain.PaymentPending,
		domain.GatewayError:   domain.PaymentFailed,
	}[o.Status]
	return l.move(id, "outcome:"+string(o.Status), to)
}

func (l *fakeLedger) Confirm(_ context.Context, id uuid.UUID, _ domain.TransitionSource, _ string) (*domain.TransitionResult, error) {
	return l.move(id, "confirm", domain.PaymentPaid)
}

func (l *fakeLedger) Settle(_ context.Context, id uuid.UUID, gross int64, _ string) (*domain.TransitionResult, error) {
	l.mu.Lock()
	tx, ok := l.txs[id]
	mismatch := ok && gross != tx.Amount
	if mismatch {
		l.calls = append(l.calls, "settle")
	}
	l.mu.Unlock()
	if mismatch {
		return nil, domain.ErrValidation("gross amount does not match transaction amount")
	}
	return l.move(id, "settle", domain.PaymentPaid)
}

func (l *fakeLedger) Refund(_ context.Context, id uuid.UUID, _ domain.TransitionSource, _ string) (*domain.TransitionResult, error) {
	return l.move(id, "refund", domain.PaymentRefunded)
}

func (l *fakeLedger) Get(_ context.Context, id uuid.UUID) (*domain.TransactionDetail, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txs[id]
	if !ok {
		return nil, domain.ErrNotFound("transaction", id.String())
	}
	return &domain.TransactionDetail{Transaction: tx}, nil
}

func (l *fakeLedger) seed(status domain.PaymentStatus) *domain.TransactionRecord {
	rec := &domain.TransactionRecord{ID: uuid.New(), Amount: 27500, TalentEarning: 20000, Status: status}
	l.txs[rec.ID] = rec
	return rec
}

type fakeParser struct {
	evt *provider.MidtransEvent
	err error
}

func (p *fakeParser) ParseNotification([]byte) (*provider.MidtransEvent, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.evt, nil
}

var errDown = errors.New("connection refused")
