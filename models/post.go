package models

import "time"

// Post represents one tracked social post and its short tracking link.
// TrackingID is the short token served under /t/:trackingID.
// Confirmed flips to true exactly once, when the post is verified as
// published; only confirmed posts accept counted clicks.
// ReferralLeads/ReferralConversions are populated by the referral sync,
// never by click recording.
type Post struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	TrackingID     string  `gorm:"size:12;not null;uniqueIndex:uk_posts_tracking_id" json:"tracking_id"`
	Username       string  `gorm:"size:255" json:"username"`
	BadgeType      string  `gorm:"size:50" json:"badge_type"`
	Platform       string  `gorm:"size:50" json:"platform"`
	ConceptKey     *string `gorm:"size:100;index:idx_posts_concept" json:"concept_key,omitempty"`
	PostURL        *string `gorm:"type:text" json:"post_url,omitempty"`
	AyrsharePostID *string `gorm:"type:text;index:idx_posts_ayrshare" json:"ayrshare_post_id,omitempty"`
	SocialPostID   *string `gorm:"type:text" json:"social_post_id,omitempty"`

	NonaiUserID  *int64  `gorm:"index:idx_posts_nonai_user" json:"nonai_user_id,omitempty"`
	ReferralCode *string `gorm:"type:text;index:idx_posts_referral_code" json:"referral_code,omitempty"`

	Clicks     int64      `gorm:"not null;default:0" json:"clicks"`
	Confirmed  bool       `gorm:"not null;default:false;index:idx_posts_confirmed" json:"confirmed"`
	FirstClick *time.Time `json:"first_click,omitempty"`
	LastClick  *time.Time `json:"last_click,omitempty"`

	ReferralLeads       *int64     `json:"referral_leads,omitempty"`
	ReferralConversions *int64     `json:"referral_conversions,omitempty"`
	ReferralLastSynced  *time.Time `json:"referral_last_synced,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for Post
func (Post) TableName() string { return "posts" }

// PostFilter provides filter fields for repository queries
type PostFilter struct {
	ID              *uint
	TrackingID      *string
	Platform        *string
	BadgeType       *string
	Username        *string
	ConceptKey      *string
	Confirmed       *bool
	HasReferralCode *bool
	NonaiUserID     *int64
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}
