package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"soapbox/contexts/trust-safety/rate-limit-service/domain/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Increment is the one operation in the pipeline that must be atomic
// across concurrent callers: a single INSERT ... ON CONFLICT DO UPDATE
// with server-side arithmetic, never read-then-write.
func (s *Store) Increment(ctx context.Context, key entities.CounterKey, expiresAt time.Time) (int, error) {
	row := rateLimitCounterModel{
		Environment: key.Environment,
		Purpose:     key.Purpose,
		Identity:    key.Identity,
		WindowStart: key.WindowStart,
		Attempts:    1,
		ExpiresAt:   expiresAt.UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "environment"},
				{Name: "purpose"},
				{Name: "identity"},
				{Name: "window_start"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"attempts": gorm.Expr("rate_limit_counters.attempts + 1"),
			}),
		}).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "attempts"}}}).
		Create(&row).
		Error
	if err != nil {
		return 0, err
	}
	return row.Attempts, nil
}

func (s *Store) Count(ctx context.Context, key entities.CounterKey) (int, error) {
	var row rateLimitCounterModel
	err := s.db.WithContext(ctx).
		Where("environment = ?", key.Environment).
		Where("purpose = ?", key.Purpose).
		Where("identity = ?", key.Identity).
		Where("window_start = ?", key.WindowStart).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Attempts, nil
}

func (s *Store) DeleteIdentity(ctx context.Context, environment, purpose, identity string) error {
	return s.db.WithContext(ctx).
		Where("environment = ?", environment).
		Where("purpose = ?", purpose).
		Where("identity = ?", identity).
		Delete(&rateLimitCounterModel{}).
		Error
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&rateLimitCounterModel{})
	return result.RowsAffected, result.Error
}

type rateLimitCounterModel struct {
	Environment string    `gorm:"column:environment;primaryKey"`
	Purpose     string    `gorm:"column:purpose;primaryKey"`
	Identity    string    `gorm:"column:identity;primaryKey"`
	WindowStart int64     `gorm:"column:window_start;primaryKey"`
	Attempts    int       `gorm:"column:attempts"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (rateLimitCounterModel) TableName() string {
	return "rate_limit_counters"
}
