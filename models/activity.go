package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// JournalEntry is a free-text diary entry. Mood is 1..10.
type JournalEntry struct {
	ID        string                      `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID   string                      `gorm:"index;not null" json:"owner_id"`
	Title     *string                     `json:"title,omitempty"`
	Content   string                      `gorm:"type:text;not null" json:"content"`
	Mood      int                         `gorm:"default:5" json:"mood"`
	Tags      datatypes.JSONSlice[string] `json:"tags,omitempty"`
	Date      Day                         `gorm:"type:varchar(10);not null;index" json:"date"`
	CreatedAt time.Time                   `gorm:"autoCreateTime" json:"created_at"`
}

type FinanceKind string

const (
	FinanceKindIncome  FinanceKind = "income"
	FinanceKindExpense FinanceKind = "expense"
)

// FinanceEntry is a single income or expense line.
type FinanceEntry struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID     string          `gorm:"index;not null" json:"owner_id"`
	Kind        FinanceKind     `gorm:"type:varchar(8);not null" json:"kind"`
	Category    string          `gorm:"not null" json:"category"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date        Day             `gorm:"type:varchar(10);not null;index" json:"date"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
