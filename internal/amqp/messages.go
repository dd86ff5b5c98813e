package amqp

import (
	"encoding/json"
	"time"
)

// SyncMessage tells the worker a transaction changed. It carries only
// identifiers; the worker loads the full row from storage so a stale
// message can never overwrite fresher data.
type SyncMessage struct {
	GroupID       string    `json:"group_id"`
	TransactionID string    `json:"transaction_id"`
	Deleted       bool      `json:"deleted"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewSyncMessage(groupID, transactionID string, deleted bool) *SyncMessage {
	return &SyncMessage{
		GroupID:       groupID,
		TransactionID: transactionID,
		Deleted:       deleted,
		Timestamp:     time.Now(),
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
