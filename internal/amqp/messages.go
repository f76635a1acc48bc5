package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// ChangeMessage is the wire form of a record-store change. It names what
// changed, not the new state; receivers reload the affected collection.
// Origin identifies the publishing process so it can drop its own echoes.
type ChangeMessage struct {
	Kind      core.EntityKind `json:"kind"`
	Op        events.Op       `json:"op"`
	ID        string          `json:"id,omitempty"`
	Origin    string          `json:"origin"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewChangeMessage wraps a bus change for the wire, stamping the origin.
func NewChangeMessage(c events.Change, origin string) *ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Kind:      c.Kind,
		Op:        c.Op,
		ID:        c.ID,
		Origin:    origin,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON parses a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("change message: unknown kind %q", msg.Kind)
	}
	return &msg, nil
}
