package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal tracks money put aside toward a target. IsCompleted only ever
// moves from false to true.
type SavingsGoal struct {
	ID            string          `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID       string          `gorm:"index;not null" json:"owner_id"`
	Title         string          `gorm:"not null" json:"title"`
	Description   *string         `gorm:"type:text" json:"description,omitempty"`
	TargetAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"current_amount"`
	Deadline      *Day            `gorm:"type:varchar(10)" json:"deadline,omitempty"`
	IsCompleted   bool            `gorm:"default:false" json:"is_completed"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`

	Timestamps
}

// Reached reports whether the current amount meets the target.
func (g *SavingsGoal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
