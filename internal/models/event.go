package models

import "time"

// EventType names a committed workflow transition.
type EventType string

const (
	EventLeaseRequested   EventType = "lease.requested"
	EventLeaseApproved    EventType = "lease.approved"
	EventLeaseRejected    EventType = "lease.rejected"
	EventVacateRequested  EventType = "vacate.requested"
	EventVacateApproved   EventType = "vacate.approved"
	EventVacateRejected   EventType = "vacate.rejected"
	EventPaymentRecorded  EventType = "payment.recorded"
	EventHandoverRecorded EventType = "handover.recorded"
	EventLocationChanged  EventType = "location.changed"
	EventHouseChanged     EventType = "house.changed"
)

// WorkflowEvent is published after a snapshot commit succeeds.
type WorkflowEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	EntityID   string            `json:"entityId"`
	ActorID    string            `json:"actorId"`
	Version    int64             `json:"version"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
