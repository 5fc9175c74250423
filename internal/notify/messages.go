// Package notify fans budget change events out over AMQP so background
// workers can recompute or react without polling the database.
package notify

import (
	"encoding/json"
	"time"
)

// Change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeMessage is a lightweight change event. It carries only
// identifiers; consumers fetch current state from the store, so a stale
// or duplicated delivery is harmless.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	PeriodID   string    `json:"period_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection, id, action, periodID string) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		ID:         id,
		Action:     action,
		PeriodID:   periodID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
