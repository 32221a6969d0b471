package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventVerificationApproved    EventType = "verification.approved"
	EventVerificationRejected    EventType = "verification.rejected"
	EventProfileMaterialized     EventType = "profile.materialized"
	EventBookingCreated          EventType = "booking.created"
	EventTransactionStatusChange EventType = "transaction.status_changed"
	EventEarningCredited         EventType = "earning.credited"
	EventEarningReversed         EventType = "earning.reversed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateUser        AggregateType = "user"
	AggregateBooking     AggregateType = "booking"
	AggregateTransaction AggregateType = "transaction"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Topic is the Kafka topic an event is relayed to.
func (d OutboxDraft) Topic() string {
	return TopicFor(d.AggregateType, d.EventType)
}

// TopicFor builds "rentlover.<aggregate>.<event>".
func TopicFor(aggregate AggregateType, event EventType) string {
	return "rentlover." + string(aggregate) + "." + string(event)
}

// OutboxRecord is a stored outbox row with its relay sequence id.
type OutboxRecord struct {
	Seq int64 `json:"seq"`
	OutboxDraft
}
