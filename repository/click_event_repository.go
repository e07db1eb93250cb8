package repository

import (
	"context"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// ClickEventRepositoryImpl implements ClickEventRepository
type ClickEventRepositoryImpl struct {
	*BaseRepository[models.ClickEvent, models.ClickEventFilter]
}

func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &ClickEventRepositoryImpl{BaseRepository: NewBaseRepository[models.ClickEvent, models.ClickEventFilter](db)}
}

func (r *ClickEventRepositoryImpl) applyFilter(db *gorm.DB, f models.ClickEventFilter) *gorm.DB {
	if f.TrackingID != nil {
		db = db.Where("tracking_id = ?", *f.TrackingID)
	}
	if f.IsHuman != nil {
		db = db.Where("is_human = ?", *f.IsHuman)
	}
	if f.ClickedAfter != nil {
		db = db.Where("clicked_at >= ?", *f.ClickedAfter)
	}
	if f.ClickedBefore != nil {
		db = db.Where("clicked_at < ?", *f.ClickedBefore)
	}
	return db
}

func (r *ClickEventRepositoryImpl) ByFilter(ctx context.Context, filter models.ClickEventFilter, orderBy string, limit, offset int) ([]*models.ClickEvent, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ClickEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ClickEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ClickEventRepositoryImpl) Count(ctx context.Context, filter models.ClickEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ClickEvent{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ClickEventRepositoryImpl) Exists(ctx context.Context, filter models.ClickEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// RecentHuman returns the newest counted human clicks joined with their posts.
func (r *ClickEventRepositoryImpl) RecentHuman(ctx context.Context, limit int) ([]RecentClick, error) {
	db := r.getDB(ctx)
	var rows []RecentClick
	err := db.Raw(`
		SELECT
			ce.clicked_at  AS clicked_at,
			ce.tracking_id AS tracking_id,
			ce.platform    AS platform,
			ce.badge_type  AS badge_type,
			ce.concept_key AS concept_key,
			p.post_url     AS post_url,
			p.username     AS username
		FROM click_events ce
		JOIN posts p ON p.tracking_id = ce.tracking_id
		WHERE ce.is_human = TRUE
		ORDER BY ce.clicked_at DESC, ce.id DESC
		LIMIT ?
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ClickEventRepositoryImpl) DeleteAll(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Exec(`DELETE FROM click_events`).Error
}
