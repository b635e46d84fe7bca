package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseCreatedMessage announces a stored expense. It carries only the
// identifiers; consumers reload the row so the database stays authoritative.
type ExpenseCreatedMessage struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(id, accountID int64) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:        id,
		AccountID: accountID,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
