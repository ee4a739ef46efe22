package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is the denormalized running balance for one account:
// sum of debits minus sum of credits in the account's own currency.
// A missing row means zero.
type AccountBalance struct {
	AccountID string          `json:"account_id" gorm:"primaryKey;column:account_id;type:varchar(64)"`
	Balance   decimal.Decimal `json:"balance" gorm:"column:balance;type:decimal(30,2);not null"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the AccountBalance model
func (AccountBalance) TableName() string {
	return "account_balances"
}

// AccountDailyTurnover accumulates per-day debit and credit totals for one
// account. Day is the UTC midnight of the journal's occurred_at.
type AccountDailyTurnover struct {
	AccountID   string          `json:"account_id" gorm:"primaryKey;column:account_id;type:varchar(64)"`
	Day         time.Time       `json:"day" gorm:"primaryKey;column:day"`
	DebitTotal  decimal.Decimal `json:"debit_total" gorm:"column:debit_total;type:decimal(30,2);not null"`
	CreditTotal decimal.Decimal `json:"credit_total" gorm:"column:credit_total;type:decimal(30,2);not null"`
}

// TableName returns the table name for the AccountDailyTurnover model
func (AccountDailyTurnover) TableName() string {
	return "account_daily_turnovers"
}

// DayOf truncates a timestamp to its UTC day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
