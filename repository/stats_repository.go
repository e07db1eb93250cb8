package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// StatsRepositoryImpl implements StatsRepository on the single-row stats table
type StatsRepositoryImpl struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &StatsRepositoryImpl{db: db}
}

func (r *StatsRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Ensure creates the counter row if it does not exist yet. Safe to call on
// every startup.
func (r *StatsRepositoryImpl) Ensure(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Exec(`
		INSERT INTO stats (id, bot_requests_blocked)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING
	`).Error
}

func (r *StatsRepositoryImpl) BotsBlocked(ctx context.Context) (int64, error) {
	db := r.getDB(ctx)
	var blocked sql.NullInt64
	err := db.Raw(`SELECT bot_requests_blocked FROM stats WHERE id = 1`).Scan(&blocked).Error
	if err != nil {
		return 0, err
	}
	if !blocked.Valid {
		return 0, nil
	}
	return blocked.Int64, nil
}

func (r *StatsRepositoryImpl) IncrementBotsBlocked(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Exec(`UPDATE stats SET bot_requests_blocked = bot_requests_blocked + 1 WHERE id = 1`).Error
}

func (r *StatsRepositoryImpl) Reset(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Exec(`UPDATE stats SET bot_requests_blocked = 0 WHERE id = 1`).Error
}
