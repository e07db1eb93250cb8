package models

import "time"

// ClickEvent is an append-only record of one counted human click.
// Platform and BadgeType are hit-time parameters from the redirect URL,
// independent of the post's own fields. ConceptKey is copied from the
// post at insert time and intentionally never updated afterwards.
// IP and UserAgent are truncated before storage.
type ClickEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TrackingID string    `gorm:"size:12;not null;index:idx_click_events_tracking_id" json:"tracking_id"`
	Post       *Post     `gorm:"foreignKey:TrackingID;references:TrackingID;constraint:OnDelete:CASCADE" json:"-"`
	ClickedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_click_events_clicked_at,sort:desc" json:"clicked_at"`
	Platform   string    `gorm:"size:50" json:"platform"`
	BadgeType  string    `gorm:"size:50" json:"badge_type"`
	IP         string    `gorm:"size:15" json:"ip"`
	UserAgent  string    `gorm:"size:100" json:"user_agent"`
	IsHuman    bool      `gorm:"not null;default:true" json:"is_human"`
	ConceptKey *string   `gorm:"size:100;index:idx_click_events_concept" json:"concept_key,omitempty"`
}

// TableName returns the table name for ClickEvent
func (ClickEvent) TableName() string { return "click_events" }

// ClickEventFilter provides filter fields for repository queries
type ClickEventFilter struct {
	TrackingID    *string
	IsHuman       *bool
	ClickedAfter  *time.Time
	ClickedBefore *time.Time
}
