package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventOp names the ledger mutation an event reports.
type EventOp string

const (
	OpCreated  EventOp = "created"
	OpUpdated  EventOp = "updated"
	OpDeleted  EventOp = "deleted"
	OpImported EventOp = "imported"
)

func (op EventOp) Valid() bool {
	switch op {
	case OpCreated, OpUpdated, OpDeleted, OpImported:
		return true
	}
	return false
}

// TransactionEvent is a lightweight change notification. It carries the
// affected ID (or the row count for imports), never the transaction itself.
type TransactionEvent struct {
	Op        EventOp   `json:"op"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(op EventOp, id string, count int, at time.Time) TransactionEvent {
	return TransactionEvent{Op: op, ID: id, Count: count, Timestamp: at}
}

// ToJSON converts the event to JSON bytes
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event and rejects unknown ops.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, err
	}
	if !ev.Op.Valid() {
		return TransactionEvent{}, fmt.Errorf("unknown event op %q", ev.Op)
	}
	return ev, nil
}
