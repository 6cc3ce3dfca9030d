package models

import (
	"time"

	"gorm.io/datatypes"
)

// RewardCategory groups grants by the part of the app that earned them.
type RewardCategory string

const (
	RewardCategoryHabit     RewardCategory = "habit"
	RewardCategoryFinancial RewardCategory = "financial"
	RewardCategoryJournal   RewardCategory = "journal"
	RewardCategoryOther     RewardCategory = "other"
)

// RewardGrant is a one-time badge. An owner holds at most one grant per
// (category, code). Code is derived from the exact Title: a readable slug
// followed by a sha256 of category and title.
type RewardGrant struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID     string            `gorm:"not null;index;uniqueIndex:idx_reward_grant_once,priority:1" json:"owner_id"`
	Category    RewardCategory    `gorm:"type:varchar(32);not null;uniqueIndex:idx_reward_grant_once,priority:2" json:"category"`
	Code        string            `gorm:"type:varchar(191);not null;uniqueIndex:idx_reward_grant_once,priority:3" json:"code"`
	Title       string            `gorm:"not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"` // e.g. {"habit_id": "...", "streak": 7}
	Viewed      bool              `gorm:"default:false;index" json:"viewed"`
	GrantedAt   time.Time         `gorm:"autoCreateTime;index" json:"granted_at"`
}
