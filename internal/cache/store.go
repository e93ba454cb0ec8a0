package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusfin/internal/models"
	"campusfin/internal/uuid"
)

// GormStore keeps cached predictions in the shared database so every API
// instance sees the same entries.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetLive(ctx context.Context, hash string, now time.Time) (*models.CachedPrediction, error) {
	var p models.CachedPrediction
	err := s.db.WithContext(ctx).
		Preload("Adjustments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("prediction_hash = ? AND cache_until > ?", hash, now.UTC()).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Save replaces the entry for p.PredictionHash and its adjustments in one
// transaction. When two writers race on the same hash the later commit
// wins; a unique-key conflict from the loser's insert is retried once.
func (s *GormStore) Save(ctx context.Context, p *models.CachedPrediction) error {
	err := s.replace(ctx, p)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.replace(ctx, p)
	}
	return err
}

func (s *GormStore) replace(ctx context.Context, p *models.CachedPrediction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []string
		if err := tx.Model(&models.CachedPrediction{}).
			Where("prediction_hash = ?", p.PredictionHash).
			Pluck("id", &stale).Error; err != nil {
			return err
		}
		if len(stale) > 0 {
			if err := tx.Where("prediction_id IN ?", stale).Delete(&models.PredictionAdjustment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", stale).Delete(&models.CachedPrediction{}).Error; err != nil {
				return err
			}
		}

		p.ID = uuid.New()
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}

		if len(p.Adjustments) == 0 {
			return nil
		}
		for i := range p.Adjustments {
			p.Adjustments[i].ID = uuid.New()
			p.Adjustments[i].PredictionID = p.ID
			p.Adjustments[i].Sequence = i
		}
		return tx.CreateInBatches(p.Adjustments, 200).Error
	})
}

func (s *GormStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.CachedPrediction{}).Select("id").Where("cache_until <= ?", now.UTC())
		if err := tx.Where("prediction_id IN (?)", expired).Delete(&models.PredictionAdjustment{}).Error; err != nil {
			return err
		}
		res := tx.Where("cache_until <= ?", now.UTC()).Delete(&models.CachedPrediction{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}
