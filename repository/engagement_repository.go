package repository

import (
	"context"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// EngagementRepositoryImpl reads the engagement tables owned by the external
// analytics pipelines. Either table may be absent, so every read starts by
// probing which ones exist.
type EngagementRepositoryImpl struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &EngagementRepositoryImpl{db: db}
}

func (r *EngagementRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Sources probes which engagement tables are present right now.
func (r *EngagementRepositoryImpl) Sources(ctx context.Context) (models.EngagementSources, error) {
	db := r.getDB(ctx).WithContext(ctx)
	hasImages := db.Migrator().HasTable(&models.ConceptAnalytics{})
	hasReels := db.Migrator().HasTable(&models.ConceptAnalyticsReels{})
	switch {
	case hasImages && hasReels:
		return models.EngagementSourcesBoth, nil
	case hasImages:
		return models.EngagementSourcesImagesOnly, nil
	case hasReels:
		return models.EngagementSourcesReelsOnly, nil
	default:
		return models.EngagementSourcesNone, nil
	}
}

const unifiedSelectBoth = `
	SELECT
		p.tracking_id                                        AS tracking_id,
		p.platform                                           AS platform,
		p.concept_key                                        AS concept_key,
		p.ayrshare_post_id                                   AS ayrshare_post_id,
		p.post_url                                           AS post_url,
		p.clicks                                             AS link_clicks,
		p.confirmed_at                                       AS posted_at,
		COALESCE(ca.engagement_score, cr.engagement_score)   AS engagement_score,
		COALESCE(ca.likes, cr.likes)                         AS likes,
		COALESCE(ca.comments, cr.comments)                   AS comments,
		COALESCE(ca.shares, cr.shares)                       AS shares,
		COALESCE(ca.impressions, cr.impressions)             AS impressions,
		COALESCE(ca.reach, cr.reach)                         AS reach,
		COALESCE(ca.views, cr.views)                         AS views,
		COALESCE(ca.analytics_fetched_at, cr.analytics_fetched_at) AS analytics_fetched_at,
		CASE
			WHEN ca.id IS NOT NULL THEN 'image'
			WHEN cr.id IS NOT NULL THEN 'reel'
			ELSE 'unknown'
		END                                                  AS content_type,
		CASE
			WHEN ca.id IS NOT NULL THEN 'concept_analytics'
			WHEN cr.id IS NOT NULL THEN 'concept_analytics_reels'
		END                                                  AS source_table
	FROM posts p
	LEFT JOIN concept_analytics ca
		ON ca.ayrshare_post_id = p.ayrshare_post_id
		AND ca.platform = p.platform
	LEFT JOIN concept_analytics_reels cr
		ON cr.ayrshare_post_id = p.ayrshare_post_id
		AND cr.platform = p.platform
	WHERE p.confirmed = TRUE
	ORDER BY p.clicks DESC, p.tracking_id ASC
	LIMIT ?`

const unifiedSelectImages = `
	SELECT
		p.tracking_id           AS tracking_id,
		p.platform              AS platform,
		p.concept_key           AS concept_key,
		p.ayrshare_post_id      AS ayrshare_post_id,
		p.post_url              AS post_url,
		p.clicks                AS link_clicks,
		p.confirmed_at          AS posted_at,
		ca.engagement_score     AS engagement_score,
		ca.likes                AS likes,
		ca.comments             AS comments,
		ca.shares               AS shares,
		ca.impressions          AS impressions,
		ca.reach                AS reach,
		ca.views                AS views,
		ca.analytics_fetched_at AS analytics_fetched_at,
		CASE WHEN ca.id IS NOT NULL THEN 'image' ELSE 'unknown' END AS content_type,
		CASE WHEN ca.id IS NOT NULL THEN 'concept_analytics' END    AS source_table
	FROM posts p
	LEFT JOIN concept_analytics ca
		ON ca.ayrshare_post_id = p.ayrshare_post_id
		AND ca.platform = p.platform
	WHERE p.confirmed = TRUE
	ORDER BY p.clicks DESC, p.tracking_id ASC
	LIMIT ?`

const unifiedSelectReels = `
	SELECT
		p.tracking_id           AS tracking_id,
		p.platform              AS platform,
		p.concept_key           AS concept_key,
		p.ayrshare_post_id      AS ayrshare_post_id,
		p.post_url              AS post_url,
		p.clicks                AS link_clicks,
		p.confirmed_at          AS posted_at,
		cr.engagement_score     AS engagement_score,
		cr.likes                AS likes,
		cr.comments             AS comments,
		cr.shares               AS shares,
		cr.impressions          AS impressions,
		cr.reach                AS reach,
		cr.views                AS views,
		cr.analytics_fetched_at AS analytics_fetched_at,
		CASE WHEN cr.id IS NOT NULL THEN 'reel' ELSE 'unknown' END    AS content_type,
		CASE WHEN cr.id IS NOT NULL THEN 'concept_analytics_reels' END AS source_table
	FROM posts p
	LEFT JOIN concept_analytics_reels cr
		ON cr.ayrshare_post_id = p.ayrshare_post_id
		AND cr.platform = p.platform
	WHERE p.confirmed = TRUE
	ORDER BY p.clicks DESC, p.tracking_id ASC
	LIMIT ?`

const unifiedSelectNone = `
	SELECT
		p.tracking_id      AS tracking_id,
		p.platform         AS platform,
		p.concept_key      AS concept_key,
		p.ayrshare_post_id AS ayrshare_post_id,
		p.post_url         AS post_url,
		p.clicks           AS link_clicks,
		p.confirmed_at     AS posted_at,
		'unknown'          AS content_type
	FROM posts p
	WHERE p.confirmed = TRUE
	ORDER BY p.clicks DESC, p.tracking_id ASC
	LIMIT ?`

// UnifiedRows joins confirmed posts with whatever engagement tables exist.
// The query shape is fixed per source combination so a table dropped between
// the probe and the read surfaces as a plain query error.
func (r *EngagementRepositoryImpl) UnifiedRows(ctx context.Context, sources models.EngagementSources, limit int) ([]UnifiedRow, error) {
	db := r.getDB(ctx)

	var query string
	switch sources {
	case models.EngagementSourcesBoth:
		query = unifiedSelectBoth
	case models.EngagementSourcesImagesOnly:
		query = unifiedSelectImages
	case models.EngagementSourcesReelsOnly:
		query = unifiedSelectReels
	default:
		query = unifiedSelectNone
	}

	var rows []UnifiedRow
	if err := db.Raw(query, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
