package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Reasons a recompute is requested.
const (
	ReasonImport   = "import"
	ReasonPlan     = "plan"
	ReasonManual   = "manual"
	ReasonDelete   = "delete"
	ReasonSchedule = "schedule"
)

// RecomputeMessage asks the worker to rebuild reports. It carries no data:
// the worker reloads everything from the store, and Revision only lets it
// skip requests it has already served.
type RecomputeMessage struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecomputeMessage(reason string, revision int64) *RecomputeMessage {
	return &RecomputeMessage{
		ID:        uuid.NewString(),
		Reason:    reason,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecomputeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecomputeMessageFromJSON decodes a message and rejects one without an id
// or reason.
func RecomputeMessageFromJSON(data []byte) (*RecomputeMessage, error) {
	var msg RecomputeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("recompute message without id")
	}
	if msg.Reason == "" {
		return nil, errors.New("recompute message without reason")
	}
	return &msg, nil
}
