package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// PostRepositoryImpl implements PostRepository
type PostRepositoryImpl struct {
	*BaseRepository[models.Post, models.PostFilter]
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &PostRepositoryImpl{BaseRepository: NewBaseRepository[models.Post, models.PostFilter](db)}
}

func (r *PostRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Post, error) {
	db := r.getDB(ctx)
	var row models.Post
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PostRepositoryImpl) ByTrackingID(ctx context.Context, trackingID string) (*models.Post, error) {
	filter := models.PostFilter{TrackingID: &trackingID}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *PostRepositoryImpl) applyFilter(db *gorm.DB, f models.PostFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.TrackingID != nil {
		db = db.Where("tracking_id = ?", *f.TrackingID)
	}
	if f.Platform != nil {
		db = db.Where("platform = ?", *f.Platform)
	}
	if f.BadgeType != nil {
		db = db.Where("badge_type = ?", *f.BadgeType)
	}
	if f.Username != nil {
		db = db.Where("username = ?", *f.Username)
	}
	if f.ConceptKey != nil {
		db = db.Where("concept_key = ?", *f.ConceptKey)
	}
	if f.Confirmed != nil {
		db = db.Where("confirmed = ?", *f.Confirmed)
	}
	if f.HasReferralCode != nil {
		if *f.HasReferralCode {
			db = db.Where("referral_code IS NOT NULL")
		} else {
			db = db.Where("referral_code IS NULL")
		}
	}
	if f.NonaiUserID != nil {
		db = db.Where("nonai_user_id = ?", *f.NonaiUserID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *PostRepositoryImpl) ByFilter(ctx context.Context, filter models.PostFilter, orderBy string, limit, offset int) ([]*models.Post, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Post{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Post
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Post{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostRepositoryImpl) Exists(ctx context.Context, filter models.PostFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// IncrementClicks bumps the click counter with a single atomic UPDATE so
// concurrent clicks on the same tracking id never lose updates. first_click
// is set only when still null; last_click always moves forward.
func (r *PostRepositoryImpl) IncrementClicks(ctx context.Context, trackingID string, at time.Time) (int64, error) {
	db := r.getDB(ctx)
	var clicks sql.NullInt64
	err := db.Raw(`
		UPDATE posts
		SET clicks      = clicks + 1,
		    last_click  = ?,
		    first_click = COALESCE(first_click, ?)
		WHERE tracking_id = ?
		RETURNING clicks
	`, at, at, trackingID).Scan(&clicks).Error
	if err != nil {
		return 0, err
	}
	if !clicks.Valid {
		return 0, gorm.ErrRecordNotFound
	}
	return clicks.Int64, nil
}

// Confirm marks a post published. confirmed_at is stamped only on the first
// transition so replaying confirm cannot restart the preview grace window.
// External post ids are backfilled, never overwritten with null.
func (r *PostRepositoryImpl) Confirm(ctx context.Context, trackingID, postURL, platform string, username, ayrsharePostID, socialPostID *string, at time.Time) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	res := db.Exec(`
		UPDATE posts
		SET post_url         = ?,
		    confirmed        = TRUE,
		    confirmed_at     = COALESCE(confirmed_at, ?),
		    platform         = ?,
		    ayrshare_post_id = COALESCE(?, ayrshare_post_id),
		    social_post_id   = COALESCE(?, social_post_id)
		WHERE tracking_id = ?
	`, postURL, at, platform, ayrsharePostID, socialPostID, trackingID)
	if res.Error != nil {
		err = res.Error
		return false, err
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if username != nil && *username != "" && *username != "unknown" {
		if err = db.Exec(`UPDATE posts SET username = ? WHERE tracking_id = ?`, *username, trackingID).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

// UpdateMetadata updates descriptive fields without touching confirmation state.
func (r *PostRepositoryImpl) UpdateMetadata(ctx context.Context, trackingID string, postURL, username *string) (bool, error) {
	db := r.getDB(ctx)
	updates := map[string]any{}
	if postURL != nil {
		updates["post_url"] = *postURL
	}
	if username != nil && *username != "" && *username != "unknown" {
		updates["username"] = *username
	}
	if len(updates) == 0 {
		return r.Exists(ctx, models.PostFilter{TrackingID: &trackingID})
	}
	res := db.Model(&models.Post{}).Where("tracking_id = ?", trackingID).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostRepositoryImpl) SumClicks(ctx context.Context, filter models.PostFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Post{}), filter)
	var sum sql.NullInt64
	if err := query.Select("SUM(clicks)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Int64, nil
}

func (r *PostRepositoryImpl) clicksByColumn(ctx context.Context, column string) ([]LabelClicks, error) {
	db := r.getDB(ctx)
	var rows []LabelClicks
	err := db.Model(&models.Post{}).
		Select("COALESCE("+column+", 'unknown') AS label, COALESCE(SUM(clicks), 0) AS clicks").
		Where("confirmed = ?", true).
		Group(column).
		Order("clicks DESC, label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) ClicksByPlatform(ctx context.Context) ([]LabelClicks, error) {
	return r.clicksByColumn(ctx, "platform")
}

func (r *PostRepositoryImpl) ClicksByBadge(ctx context.Context) ([]LabelClicks, error) {
	return r.clicksByColumn(ctx, "badge_type")
}

func (r *PostRepositoryImpl) ClicksByConcept(ctx context.Context) ([]LabelClicks, error) {
	db := r.getDB(ctx)
	var rows []LabelClicks
	err := db.Model(&models.Post{}).
		Select("concept_key AS label, COALESCE(SUM(clicks), 0) AS clicks").
		Where("confirmed = ? AND concept_key IS NOT NULL", true).
		Group("concept_key").
		Order("clicks DESC, label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ConceptPlatformStats groups confirmed posts by (platform, concept_key).
// Ordering is total clicks descending with a lexicographic tie-break so the
// report output stays reproducible.
func (r *PostRepositoryImpl) ConceptPlatformStats(ctx context.Context) ([]ConceptPlatformStat, error) {
	db := r.getDB(ctx)
	var rows []ConceptPlatformStat
	err := db.Raw(`
		SELECT
			COALESCE(p.platform, 'unknown')                  AS platform,
			p.concept_key                                    AS concept_key,
			COUNT(DISTINCT p.tracking_id)                    AS total_posts,
			COALESCE(SUM(p.clicks), 0)                       AS total_clicks,
			COALESCE(AVG(p.clicks), 0)                       AS avg_clicks,
			COALESCE(MAX(p.clicks), 0)                       AS max_clicks,
			SUM(CASE WHEN p.clicks > 0 THEN 1 ELSE 0 END)    AS posts_with_clicks
		FROM posts p
		WHERE p.confirmed = TRUE
		  AND p.concept_key IS NOT NULL
		GROUP BY p.platform, p.concept_key
		ORDER BY platform ASC, total_clicks DESC, concept_key ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) ReferralPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Post{}).
		Where("confirmed = ? AND referral_code IS NOT NULL", true).
		Order("(clicks + COALESCE(referral_leads, 0) * 10 + COALESCE(referral_conversions, 0) * 50) DESC, tracking_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []*models.Post
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) ReferralSummaryByUser(ctx context.Context) ([]ReferralGroupSummary, error) {
	db := r.getDB(ctx)
	var rows []ReferralGroupSummary
	err := db.Raw(`
		SELECT
			nonai_user_id                              AS nonai_user_id,
			COALESCE(username, 'unknown')              AS username,
			COUNT(*)                                   AS total_posts,
			COALESCE(SUM(clicks), 0)                   AS total_clicks,
			COALESCE(SUM(referral_leads), 0)           AS total_leads,
			COALESCE(MAX(referral_conversions), 0)     AS total_conversions
		FROM posts
		WHERE confirmed = TRUE
		  AND referral_code IS NOT NULL
		  AND nonai_user_id IS NOT NULL
		GROUP BY nonai_user_id, username
		ORDER BY total_leads DESC, nonai_user_id ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) ReferralSummaryByConcept(ctx context.Context) ([]ReferralGroupSummary, error) {
	db := r.getDB(ctx)
	var rows []ReferralGroupSummary
	err := db.Raw(`
		SELECT
			COALESCE(concept_key, 'unknown')           AS concept_key,
			COUNT(*)                                   AS total_posts,
			COALESCE(SUM(clicks), 0)                   AS total_clicks,
			COALESCE(SUM(referral_leads), 0)           AS total_leads,
			COALESCE(SUM(referral_conversions), 0)     AS total_conversions,
			COALESCE(AVG(clicks), 0)                   AS avg_clicks,
			COALESCE(AVG(referral_leads), 0)           AS avg_leads
		FROM posts
		WHERE confirmed = TRUE
		  AND referral_code IS NOT NULL
		  AND concept_key IS NOT NULL
		GROUP BY concept_key
		ORDER BY total_leads DESC, concept_key ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) ReferralSummaryByPlatform(ctx context.Context) ([]ReferralGroupSummary, error) {
	db := r.getDB(ctx)
	var rows []ReferralGroupSummary
	err := db.Raw(`
		SELECT
			COALESCE(platform, 'unknown')              AS platform,
			COUNT(*)                                   AS total_posts,
			COALESCE(SUM(clicks), 0)                   AS total_clicks,
			COALESCE(SUM(referral_leads), 0)           AS total_leads,
			COALESCE(SUM(referral_conversions), 0)     AS total_conversions
		FROM posts
		WHERE confirmed = TRUE
		  AND referral_code IS NOT NULL
		GROUP BY platform
		ORDER BY total_leads DESC, platform ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) DistinctReferralCodes(ctx context.Context) ([]ReferralCodeRef, error) {
	db := r.getDB(ctx)
	var rows []ReferralCodeRef
	err := db.Raw(`
		SELECT DISTINCT referral_code, nonai_user_id
		FROM posts
		WHERE referral_code IS NOT NULL
		  AND confirmed = TRUE
		ORDER BY referral_code ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostRepositoryImpl) UpdateReferralLeads(ctx context.Context, referralCode string, leads int64, at time.Time) (int64, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Post{}).
		Where("referral_code = ?", referralCode).
		Updates(map[string]any{
			"referral_leads":       leads,
			"referral_last_synced": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostRepositoryImpl) UpdateReferralConversions(ctx context.Context, nonaiUserID, conversions int64, at time.Time) (int64, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Post{}).
		Where("nonai_user_id = ? AND referral_code IS NOT NULL", nonaiUserID).
		Updates(map[string]any{
			"referral_conversions": conversions,
			"referral_last_synced": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostRepositoryImpl) DeleteAll(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Exec(`DELETE FROM posts`).Error
}
