// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Kusanagi/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ReferralCodeRef pairs a distinct referral code with the user it belongs to
type ReferralCodeRef struct {
	ReferralCode string `json:"referral_code"`
	NonaiUserID  *int64 `json:"nonai_user_id"`
}

// ConceptPlatformStat is one (platform, concept) aggregation row
type ConceptPlatformStat struct {
	Platform        string  `json:"platform"`
	ConceptKey      string  `json:"concept_key"`
	TotalPosts      int64   `json:"total_posts"`
	TotalClicks     int64   `json:"total_clicks"`
	AvgClicks       float64 `json:"avg_clicks_per_post"`
	MaxClicks       int64   `json:"max_clicks"`
	PostsWithClicks int64   `json:"posts_with_clicks"`
}

// LabelClicks is a generic (label, clicks) aggregation row
type LabelClicks struct {
	Label  string `json:"label"`
	Clicks int64  `json:"clicks"`
}

// RecentClick is one counted click joined with its post
type RecentClick struct {
	ClickedAt  time.Time `json:"clicked_at"`
	TrackingID string    `json:"tracking_id"`
	Platform   string    `json:"platform"`
	BadgeType  string    `json:"badge_type"`
	ConceptKey *string   `json:"concept_key"`
	PostURL    *string   `json:"post_url"`
	Username   string    `json:"username"`
}

// ReferralGroupSummary is one rollup row of the referral funnel report
type ReferralGroupSummary struct {
	NonaiUserID      *int64  `json:"nonai_user_id,omitempty"`
	Username         string  `json:"username,omitempty"`
	ConceptKey       string  `json:"concept_key,omitempty"`
	Platform         string  `json:"platform,omitempty"`
	TotalPosts       int64   `json:"total_posts"`
	TotalClicks      int64   `json:"total_link_clicks"`
	TotalLeads       int64   `json:"total_leads"`
	TotalConversions int64   `json:"total_conversions"`
	AvgClicks        float64 `json:"avg_clicks_per_post,omitempty"`
	AvgLeads         float64 `json:"avg_leads_per_post,omitempty"`
}

// UnifiedRow is one post joined against whichever engagement table matched it
type UnifiedRow struct {
	TrackingID         string     `json:"tracking_id"`
	Platform           string     `json:"platform"`
	ConceptKey         *string    `json:"concept_key"`
	AyrsharePostID     *string    `json:"ayrshare_post_id"`
	PostURL            *string    `json:"post_url"`
	LinkClicks         int64      `json:"link_clicks"`
	PostedAt           *time.Time `json:"posted_at"`
	EngagementScore    *float64   `json:"engagement_score"`
	Likes              *int64     `json:"likes"`
	Comments           *int64     `json:"comments"`
	Shares             *int64     `json:"shares"`
	Impressions        *int64     `json:"impressions"`
	Reach              *int64     `json:"reach"`
	Views              *int64     `json:"views"`
	AnalyticsFetchedAt *time.Time `json:"analytics_fetched_at"`
	ContentType        string     `json:"content_type"`
	SourceTable        *string    `json:"source_table"`
}

// PostRepository defines operations for tracked posts
type PostRepository interface {
	Repository[models.Post, models.PostFilter]
	ByTrackingID(ctx context.Context, trackingID string) (*models.Post, error)
	IncrementClicks(ctx context.Context, trackingID string, at time.Time) (int64, error)
	Confirm(ctx context.Context, trackingID, postURL, platform string, username, ayrsharePostID, socialPostID *string, at time.Time) (bool, error)
	UpdateMetadata(ctx context.Context, trackingID string, postURL, username *string) (bool, error)
	SumClicks(ctx context.Context, filter models.PostFilter) (int64, error)
	ClicksByPlatform(ctx context.Context) ([]LabelClicks, error)
	ClicksByBadge(ctx context.Context) ([]LabelClicks, error)
	ClicksByConcept(ctx context.Context) ([]LabelClicks, error)
	ConceptPlatformStats(ctx context.Context) ([]ConceptPlatformStat, error)
	ReferralPosts(ctx context.Context, limit int) ([]*models.Post, error)
	ReferralSummaryByUser(ctx context.Context) ([]ReferralGroupSummary, error)
	ReferralSummaryByConcept(ctx context.Context) ([]ReferralGroupSummary, error)
	ReferralSummaryByPlatform(ctx context.Context) ([]ReferralGroupSummary, error)
	DistinctReferralCodes(ctx context.Context) ([]ReferralCodeRef, error)
	UpdateReferralLeads(ctx context.Context, referralCode string, leads int64, at time.Time) (int64, error)
	UpdateReferralConversions(ctx context.Context, nonaiUserID, conversions int64, at time.Time) (int64, error)
	DeleteAll(ctx context.Context) error
}

// ClickEventRepository defines operations for click events
type ClickEventRepository interface {
	Repository[models.ClickEvent, models.ClickEventFilter]
	RecentHuman(ctx context.Context, limit int) ([]RecentClick, error)
	DeleteAll(ctx context.Context) error
}

// StatsRepository defines operations for the bot counter row
type StatsRepository interface {
	Ensure(ctx context.Context) error
	BotsBlocked(ctx context.Context) (int64, error)
	IncrementBotsBlocked(ctx context.Context) error
	Reset(ctx context.Context) error
}

// EngagementRepository reads the externally-owned engagement tables
type EngagementRepository interface {
	Sources(ctx context.Context) (models.EngagementSources, error)
	UnifiedRows(ctx context.Context, sources models.EngagementSources, limit int) ([]UnifiedRow, error)
}
