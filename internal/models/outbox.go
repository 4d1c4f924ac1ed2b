package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox event types.
const (
	EventDonationRecorded      = "donation.recorded"
	EventDonationStatusChanged = "donation.status_changed"
	EventCampaignReviewed      = "campaign.reviewed"
	EventCampaignVerification  = "campaign.verification_updated"
	EventProfileDecided        = "profile.decided"
)

// Outbox aggregate types.
const (
	AggregateCampaign = "campaign"
	AggregateDonation = "donation"
	AggregateProfile  = "student_profile"
)

// OutboxEvent is a domain event written in the same transaction as the change it describes.
type OutboxEvent struct {
	ID            string     `db:"id"`
	AggregateType string     `db:"aggregate_type"`
	AggregateID   string     `db:"aggregate_id"`
	EventType     string     `db:"event_type"`
	Payload       []byte     `db:"payload"`
	Attempts      int        `db:"attempts"`
	LastError     *string    `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	PublishedAt   *time.Time `db:"published_at"`
}

// NewOutboxEvent builds an unpublished event with a JSON payload.
func NewOutboxEvent(aggregateType, aggregateID, eventType string, payload interface{}) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
