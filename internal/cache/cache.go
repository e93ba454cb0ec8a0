// Package cache memoizes forecast pipeline results per request key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/logger"
	"campusfin/internal/models"
)

// Key identifies a forecast request. Start and End are compared by UTC
// calendar day.
type Key struct {
	StudentID          string
	Type               models.PredictionType
	Start              time.Time
	End                time.Time
	ConfidenceInterval float64
	CategoryID         string
}

// Hash is the prediction hash: a hex SHA-256 of the normalized key.
func (k Key) Hash() string {
	normalized := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		k.StudentID,
		k.Type,
		k.Start.UTC().Format("2006-01-02"),
		k.End.UTC().Format("2006-01-02"),
		strconv.FormatFloat(k.ConfidenceInterval, 'f', -1, 64),
		k.CategoryID,
	)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Store persists cached predictions. Save must replace any existing entry
// with the same hash, together with its adjustments, atomically.
type Store interface {
	// GetLive returns the entry for hash if it is still live at now, or
	// nil when there is none.
	GetLive(ctx context.Context, hash string, now time.Time) (*models.CachedPrediction, error)
	Save(ctx context.Context, p *models.CachedPrediction) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// ComputeFunc runs the forecast pipeline. It fills the forecast payload;
// the cache sets the key fields and timestamps.
type ComputeFunc func(ctx context.Context) (*models.CachedPrediction, error)

// ForecastCache serves live entries from a Store and runs at most one
// computation per key at a time.
type ForecastCache struct {
	store   Store
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	now     func() time.Time
	logger  *zap.SugaredLogger
}

// New creates a cache. Entries live for ttl; a computation is abandoned
// after timeout even when no caller is waiting for it anymore.
func New(store Store, ttl, timeout time.Duration) *ForecastCache {
	return &ForecastCache{
		store:   store,
		ttl:     ttl,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.Named("forecast_cache"),
	}
}

// GetOrGenerate returns the live entry for key, computing and storing it on
// a miss. Concurrent misses on one key share a single computation. The
// returned prediction is shared between callers and must not be modified.
func (c *ForecastCache) GetOrGenerate(ctx context.Context, key Key, compute ComputeFunc) (*models.CachedPrediction, error) {
	hash := key.Hash()

	p, err := c.store.GetLive(ctx, hash, c.now())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if p != nil {
		c.logger.Debugw("Forecast cache hit", "hash", hash, "student_id", key.StudentID)
		return p, nil
	}
	c.logger.Debugw("Forecast cache miss", "hash", hash, "student_id", key.StudentID)

	// The flight outlives any single caller: a cancelled request must not
	// abort work other callers are waiting on.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(hash, func() (any, error) {
		fctx, cancel := context.WithTimeout(detached, c.timeout)
		defer cancel()
		return c.generate(fctx, key, hash, compute)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.CachedPrediction), nil
	}
}

func (c *ForecastCache) generate(ctx context.Context, key Key, hash string, compute ComputeFunc) (*models.CachedPrediction, error) {
	// Another flight may have finished between our miss and this one starting.
	if p, err := c.store.GetLive(ctx, hash, c.now()); err == nil && p != nil {
		return p, nil
	}

	started := time.Now()
	p, err := compute(ctx)
	if err != nil {
		return nil, c.timeoutOr(ctx, err)
	}

	generated := c.now()
	p.StudentID = key.StudentID
	p.PredictionType = key.Type
	p.PredictionStart = key.Start
	p.PredictionEnd = key.End
	p.ConfidenceInterval = key.ConfidenceInterval
	p.CategoryID = nil
	if key.CategoryID != "" {
		id := key.CategoryID
		p.CategoryID = &id
	}
	p.PredictionHash = hash
	p.GeneratedAt = generated
	p.CacheUntil = generated.Add(c.ttl)

	if err := c.store.Save(ctx, p); err != nil {
		return nil, c.timeoutOr(ctx, err)
	}

	c.logger.Infow("Forecast generated",
		"hash", hash,
		"student_id", key.StudentID,
		"type", key.Type,
		"points", len(p.ForecastData),
		"adjustments", len(p.Adjustments),
		"duration", time.Since(started),
	)
	return p, nil
}

func (c *ForecastCache) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrForecastTimeout, err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// PurgeExpired deletes entries that are no longer live.
func (c *ForecastCache) PurgeExpired(ctx context.Context) (int64, error) {
	return c.store.PurgeExpired(ctx, c.now())
}
