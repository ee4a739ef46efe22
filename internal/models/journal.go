package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Meta is the free-form key/value mapping attached to a journal. It is stored
// as JSON; the well-known key "idempotency_key" makes repeated posts a no-op.
type Meta map[string]any

// MetaKeyIdempotency is the reserved meta key carrying the idempotency key.
const MetaKeyIdempotency = "idempotency_key"

// IdempotencyKey extracts the idempotency key from the meta mapping, if any.
func (m Meta) IdempotencyKey() (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[MetaKeyIdempotency]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Matches reports whether every key in filter is present in m with an equal
// value. Values are compared as strings so that a filter decoded from JSON
// matches a meta decoded from the database.
func (m Meta) Matches(filter Meta) bool {
	for k, want := range filter {
		got, ok := m[k]
		if !ok || !metaValueEqual(got, want) {
			return false
		}
	}
	return true
}

// metaValueEqual compares two meta values leniently: a value that went
// through a JSON round-trip (e.g. int -> float64) still matches the original.
func metaValueEqual(a, b any) bool {
	if a == b {
		return true
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	if as == bs {
		return true
	}
	ad, aerr := decimal.NewFromString(as)
	bd, berr := decimal.NewFromString(bs)
	return aerr == nil && berr == nil && ad.Equal(bd)
}

// JournalIDPrefix starts every journal identifier.
const JournalIDPrefix = "tx:"

// NewJournalID generates a fresh journal id: "tx:" plus a random 128-bit uuid.
func NewJournalID() string {
	return JournalIDPrefix + uuid.NewString()
}

// Journal is a persisted, immutable, balanced set of debit/credit lines.
type Journal struct {
	ID             string            `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	OccurredAt     time.Time         `json:"occurred_at" gorm:"column:occurred_at;not null;index"`
	Memo           *string           `json:"memo,omitempty" gorm:"column:memo;type:text"`
	Meta           Meta              `json:"meta,omitempty" gorm:"column:meta;serializer:json"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty" gorm:"column:idempotency_key;type:varchar(255);uniqueIndex"`
	Lines          []TransactionLine `json:"lines" gorm:"foreignKey:JournalID;references:ID"`
	CreatedAt      time.Time         `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the Journal model
func (Journal) TableName() string {
	return "journals"
}

// TransactionLine is the persisted form of an EntryLine, keyed to its journal
// and to the resolved account id. Position preserves the caller's line order.
type TransactionLine struct {
	ID           string           `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	JournalID    string           `json:"journal_id" gorm:"column:journal_id;type:varchar(64);not null;index"`
	AccountID    string           `json:"account_id" gorm:"column:account_id;type:varchar(64);not null;index"`
	Position     int              `json:"position" gorm:"column:position;not null"`
	Side         Side             `json:"side" gorm:"column:side;type:varchar(6);not null"`
	Amount       decimal.Decimal  `json:"amount" gorm:"column:amount;type:decimal(30,2);not null"`
	CurrencyCode string           `json:"currency_code" gorm:"column:currency_code;type:varchar(10);not null"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty" gorm:"column:exchange_rate;type:decimal(30,6)"`
}

// TableName returns the table name for the TransactionLine model
func (TransactionLine) TableName() string {
	return "transaction_lines"
}

// SignedAmount is +amount for a debit line, -amount for a credit line.
func (l TransactionLine) SignedAmount() decimal.Decimal {
	return l.Side.Signed(l.Amount)
}
