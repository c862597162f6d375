package models

import "time"

// AnalyticsEntry is an engagement ledger row (PostgreSQL). Entries are
// written fire-and-forget alongside the primary action.
type AnalyticsEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"size:24;index"`
	TimelineID string    `json:"timeline_id" gorm:"size:24;index"`
	EventID    string    `json:"event_id" gorm:"size:24;index"`
	Type       string    `json:"type" gorm:"size:20;index"` // view, like, comment, share, follow
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// AnalyticsBucket is one aggregated count per type per day.
type AnalyticsBucket struct {
	Type  string `json:"type"`
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
