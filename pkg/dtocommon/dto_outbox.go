package dtocommon

import (
	"encoding/json"
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

// OutboxMessageDto is what the outbox publisher puts on the bus for every
// stored event.
type OutboxMessageDto struct {
	EventId   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func (m OutboxMessageDto) Serialize() ([]byte, error) {
	return utilities.Serialize(m)
}

func (m OutboxMessageDto) MessageType() string { return m.EventType }
