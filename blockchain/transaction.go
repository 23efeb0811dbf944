package blockchain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ParseTransactionType converts a raw string into a TransactionType, rejecting unknown values.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch t := TransactionType(raw); t {
	case Transfer, Exchange, Stake:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, raw)
	}
}

// Valid reports whether t is one of the enumerated transaction types.
func (t TransactionType) Valid() bool {
	_, err := ParseTransactionType(string(t))
	return err == nil
}

// UnmarshalJSON rejects unknown transaction types at the decoding boundary.
func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTransactionType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Transaction represents a balance movement or stake action included in a block.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	SenderKey   string          `json:"senderKey"`
	ReceiverKey string          `json:"receiverKey"`
	Amount      float64         `json:"amount"`
	Timestamp   int64           `json:"timestamp"`
	Signature   string          `json:"signature"`
}

// NewTransaction creates an unsigned transaction with a fresh id and the current time.
func NewTransaction(senderKey, receiverKey string, amount float64, txType TransactionType) (*Transaction, error) {
	tx := &Transaction{
		ID:          uuid.New().String(),
		Type:        txType,
		SenderKey:   senderKey,
		ReceiverKey: receiverKey,
		Amount:      amount,
		Timestamp:   time.Now().UTC().Unix(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Validate checks the type enum and the non-negative amount invariant.
func (t *Transaction) Validate() error {
	if t == nil {
		return ErrNilTransaction
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTransactionType, string(t.Type))
	}
	if t.Amount < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeAmount, t.Amount)
	}
	return nil
}

// Equals reports structural equality over every field.
func (t *Transaction) Equals(other *Transaction) bool {
	if t == nil || other == nil {
		return t == other
	}
	return *t == *other
}

// Payload returns the canonical bytes of the transaction without its signature.
func (t *Transaction) Payload() []byte {
	unsigned := *t
	unsigned.Signature = ""
	data, _ := json.Marshal(unsigned)
	return data
}

// ToJSON returns the serializable projection used by inspection APIs.
func (t *Transaction) ToJSON() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"type":        string(t.Type),
		"senderKey":   t.SenderKey,
		"receiverKey": t.ReceiverKey,
		"amount":      t.Amount,
		"timestamp":   t.Timestamp,
		"signature":   t.Signature,
	}
}

// GetID returns the id of a transaction
func (t *Transaction) GetID() string {
	return t.ID
}

// GetTimestamp returns the timestamp of a transaction
func (t *Transaction) GetTimestamp() string {
	return strconv.FormatInt(t.Timestamp, 10)
}
