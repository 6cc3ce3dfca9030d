package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress caches an owner's points total and the level derived from it.
// TotalPoints always equals the sum of that owner's ledger entries.
type UserProgress struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID     string `gorm:"uniqueIndex;not null" json:"owner_id"`
	TotalPoints int64  `gorm:"default:0" json:"total_points"`
	Level       int    `gorm:"default:1" json:"level"`

	Timestamps
}

// PointsLedgerEntry is one immutable point grant. Entries are never updated
// or deleted.
type PointsLedgerEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID   string    `gorm:"index;not null" json:"owner_id"`
	Delta     int64     `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
