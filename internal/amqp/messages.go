package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LedgerChangedMessage announces that an owner's ledger was persisted with
// a new state. It carries no ledger data; consumers reload the ledger.
type LedgerChangedMessage struct {
	MessageID     string    `json:"message_id"`
	Owner         string    `json:"owner"`
	Op            string    `json:"op"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(owner, op string, transactionID int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		MessageID:     uuid.NewString(),
		Owner:         owner,
		Op:            op,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) Validate() error {
	if m.Owner == "" {
		return errors.New("message has no owner")
	}
	if m.MessageID == "" {
		return errors.New("message has no id")
	}
	return nil
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and validates a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
