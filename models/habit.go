package models

import "time"

// HabitKind separates habits the user wants to build from ones they want to break.
type HabitKind string

const (
	HabitKindBuild HabitKind = "build"
	HabitKindBreak HabitKind = "break"
)

func (k HabitKind) Valid() bool {
	return k == HabitKindBuild || k == HabitKindBreak
}

type HabitDifficulty string

const (
	HabitDifficultyEasy   HabitDifficulty = "easy"
	HabitDifficultyMedium HabitDifficulty = "medium"
	HabitDifficultyHard   HabitDifficulty = "hard"
)

type HabitFrequency string

const (
	HabitFrequencyDaily  HabitFrequency = "daily"
	HabitFrequencyWeekly HabitFrequency = "weekly"
	HabitFrequencyCustom HabitFrequency = "custom"
)

// DefaultTargetStreak is the streak goal given to new habits.
const DefaultTargetStreak = 30

// Habit is a tracked behaviour. The progress fields (Streak, LongestStreak,
// TotalCompletions, LastCompleted) are written only by the streak tracker.
type Habit struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID     string          `gorm:"index;not null" json:"owner_id"`
	Title       string          `gorm:"not null" json:"title"`
	Kind        HabitKind       `gorm:"type:varchar(8);not null" json:"kind"`
	Category    *string         `json:"category,omitempty"`
	Difficulty  HabitDifficulty `gorm:"type:varchar(8);default:'easy'" json:"difficulty"`
	Frequency   HabitFrequency  `gorm:"type:varchar(8);default:'daily'" json:"frequency"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`

	// Progress, cached from the completion history
	Streak           int  `gorm:"default:0" json:"streak"`
	LongestStreak    int  `gorm:"default:0" json:"longest_streak"`
	TotalCompletions int  `gorm:"default:0" json:"total_completions"`
	LastCompleted    *Day `gorm:"type:varchar(10)" json:"last_completed,omitempty"`

	TargetStreak int  `gorm:"default:30" json:"target_streak"`
	StartDate    Day  `gorm:"type:varchar(10)" json:"start_date"`
	IsActive     bool `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// HabitCompletion marks a habit done on one calendar day. The (habit_id,
// completion_date) pair is unique at the storage layer.
type HabitCompletion struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	HabitID        string    `gorm:"type:uuid;not null;uniqueIndex:idx_habit_completion_day,priority:1" json:"habit_id"`
	CompletionDate Day       `gorm:"type:varchar(10);not null;uniqueIndex:idx_habit_completion_day,priority:2" json:"completion_date"`
	Note           *string   `gorm:"type:text" json:"note,omitempty"`
	Trigger        *string   `gorm:"column:trigger_tag" json:"trigger,omitempty"`
	Mood           *int      `json:"mood,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
