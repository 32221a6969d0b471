package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func newDraft(aggregate AggregateType, aggregateID string, evtType EventType, payload interface{}) OutboxDraft {
	data, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: aggregate,
		AggregateID:   aggregateID,
		EventType:     evtType,
		PartitionKey:  aggregateID,
		Headers:       json.RawMessage(`{}`),
		Payload:       data,
		OccurredAt:    time.Now(),
	}
}

// NewVerificationDecidedEvent records an approve or reject decision.
func NewVerificationDecidedEvent(userID uuid.UUID, status VerificationStatus, reason string, reviewer *uuid.UUID) OutboxDraft {
	evtType := EventVerificationApproved
	if status == VerificationRejected {
		evtType = EventVerificationRejected
	}
	payload := map[string]interface{}{
		"user_id":             userID.String(),
		"verification_status": status,
		"reason":              reason,
	}
	if reviewer != nil {
		payload["reviewed_by"] = reviewer.String()
	}
	return newDraft(AggregateUser, userID.String(), evtType, payload)
}

// NewProfileMaterializedEvent records a profile created for an auth-only identity.
func NewProfileMaterializedEvent(profile ProfileRecord) OutboxDraft {
	return newDraft(AggregateUser, profile.ID.String(), EventProfileMaterialized, map[string]interface{}{
		"user_id":   profile.ID.String(),
		"user_type": profile.UserType,
		"email":     profile.Email,
	})
}

// NewBookingCreatedEvent records a priced booking and its pending transaction.
func NewBookingCreatedEvent(b *Booking, tx *TransactionRecord) OutboxDraft {
	return newDraft(AggregateBooking, b.ID.String(), EventBookingCreated, map[string]interface{}{
		"booking_id":     b.ID.String(),
		"transaction_id": tx.ID.String(),
		"customer_id":    b.CustomerID.String(),
		"talent_id":      b.TalentID.String(),
		"priced":         b.Priced,
	})
}

// NewTransactionStatusChangedEvent records an applied status transition.
func NewTransactionStatusChangedEvent(tx *TransactionRecord, from PaymentStatus, source TransitionSource) OutboxDraft {
	return newDraft(AggregateTransaction, tx.ID.String(), EventTransactionStatusChange, map[string]interface{}{
		"transaction_id": tx.ID.String(),
		"booking_id":     tx.BookingID.String(),
		"from":           from,
		"to":             tx.Status,
		"source":         source,
		"amount":         tx.Amount,
	})
}

// NewEarningEvent records a talent earning credit or reversal.
func NewEarningEvent(e *EarningEntry) OutboxDraft {
	evtType := EventEarningCredited
	if e.EntryType == EarningReversal {
		evtType = EventEarningReversed
	}
	return newDraft(AggregateTransaction, e.TransactionID.String(), evtType, e)
}
