package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Operations carried by sync messages.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
	OpClear  = "clear"
)

// SyncMessage tells the worker to reconcile one ledger row with the Sheets
// mirror. It carries only the id and operation; the worker fetches the full
// row from storage, so a stale message never overwrites newer data.
type SyncMessage struct {
	MessageID string    `json:"message_id"`
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(op string, id int64) *SyncMessage {
	return &SyncMessage{
		MessageID: uuid.NewString(),
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
