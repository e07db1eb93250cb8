package models

// Stats is a single-row counter of blocked bot requests.
// Row id is always 1; the counter only moves forward except through the
// explicit admin reset.
type Stats struct {
	ID          int   `gorm:"primaryKey;check:id = 1" json:"id"`
	BotsBlocked int64 `gorm:"column:bot_requests_blocked;not null;default:0" json:"bot_requests_blocked"`
}

// TableName returns the table name for Stats
func (Stats) TableName() string { return "stats" }
