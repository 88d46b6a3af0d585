package domain

import "time"

// DailyTip is the tip shown to a user on one calendar day.
// Date is formatted as 2006-01-02.
type DailyTip struct {
	UserID    string    `json:"-" gorm:"primaryKey"`
	Date      string    `json:"date" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	KidStage  string    `json:"kid_stage"`
	Generated bool      `json:"generated"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (DailyTip) TableName() string {
	return "daily_tips"
}

// PriorityItem is one task flagged by a priority analysis
type PriorityItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// PriorityAnalysis holds the suggested survival and stale tasks.
// Both lists hold at most MaxPriorityItems ids of active tasks.
type PriorityAnalysis struct {
	Priorities []PriorityItem `json:"priorities"`
	Stale      []PriorityItem `json:"stale"`
}

// MaxPriorityItems caps each list of a PriorityAnalysis
const MaxPriorityItems = 3

// TaskSnapshot is the projection of a task sent to the model for analysis
type TaskSnapshot struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	AgeDays int    `json:"ageDays"`
}
