package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Event is one entry of the operation journal. Hash covers every other field
// including PrevHash, which chains the journal.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	PrevHash  string                 `json:"prev_hash,omitempty"`
	Hash      string                 `json:"hash,omitempty"`
}

// hashedFields is the part of an Event the hash is computed over. Metadata
// goes through encoding/json, which writes map keys in sorted order, so a
// journal read back from storage hashes the same as when it was written.
type hashedFields struct {
	Prev      string                 `json:"p"`
	ID        string                 `json:"i"`
	Timestamp string                 `json:"t"`
	Action    string                 `json:"a"`
	Actor     string                 `json:"u"`
	Metadata  map[string]interface{} `json:"m,omitempty"`
}

// CalculateHash returns the hex SHA-256 of the event content.
func (e *Event) CalculateHash() string {
	payload, err := json.Marshal(hashedFields{
		Prev:      e.PrevHash,
		ID:        e.ID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    e.Action,
		Actor:     e.Actor,
		Metadata:  e.Metadata,
	})
	if err != nil {
		// Unencodable metadata still hashes the identifying fields.
		payload = []byte(e.PrevHash + e.ID + e.Action + e.Actor)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Journal records state-changing operations.
type Journal interface {
	Record(action string, actor string, metadata map[string]interface{}) error
}

// EventRepository persists journal events in append order.
type EventRepository interface {
	AppendEvent(event Event) error
	LoadEvents() ([]Event, error)
}
