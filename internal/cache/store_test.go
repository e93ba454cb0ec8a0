package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusfin/internal/models"
	"campusfin/internal/testutil"
)

func TestGormStore_SaveAndGetLive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)

	p := prediction(100)
	p.StudentID = testKey().StudentID
	p.PredictionType = models.PredictionTypeExpense
	p.PredictionStart, p.PredictionEnd = start, start.AddDate(0, 0, 30)
	p.PredictionHash = testKey().Hash()
	p.GeneratedAt = now
	p.CacheUntil = now.Add(time.Hour)
	p.Adjustments = append(p.Adjustments, models.PredictionAdjustment{
		RuleID: "r2", RuleName: "exam", Date: start, OriginalValue: 101, AdjustedValue: 120,
	})
	require.NoError(t, store.Save(ctx, p))

	got, err := store.GetLive(ctx, p.PredictionHash, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 100.0, got.ForecastData[0].PredictedValue)
	require.Len(t, got.Adjustments, 2)
	assert.Equal(t, "rent", got.Adjustments[0].RuleName)
	assert.Equal(t, "exam", got.Adjustments[1].RuleName)

	expired, err := store.GetLive(ctx, p.PredictionHash, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, expired)

	missing, err := store.GetLive(ctx, "nope", now)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormStore_SaveReplacesWholesale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)

	save := func(value float64) *models.CachedPrediction {
		p := prediction(value)
		p.StudentID = testKey().StudentID
		p.PredictionType = models.PredictionTypeExpense
		p.PredictionHash = testKey().Hash()
		p.GeneratedAt = now
		p.CacheUntil = now.Add(time.Hour)
		require.NoError(t, store.Save(ctx, p))
		return p
	}

	first := save(100)
	second := save(200)
	assert.NotEqual(t, first.ID, second.ID)

	var rows, adjustments int64
	db.Model(&models.CachedPrediction{}).Count(&rows)
	db.Model(&models.PredictionAdjustment{}).Count(&adjustments)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, int64(1), adjustments)

	got, err := store.GetLive(ctx, testKey().Hash(), now)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.ForecastData[0].PredictedValue)
	assert.Equal(t, second.ID, got.Adjustments[0].PredictionID)
}

func TestGormStore_PurgeExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)

	for i, ttl := range []time.Duration{time.Minute, time.Hour} {
		k := testKey()
		k.ConfidenceInterval = 0.8 + float64(i)/10
		p := prediction(1)
		p.StudentID = k.StudentID
		p.PredictionType = k.Type
		p.PredictionHash = k.Hash()
		p.GeneratedAt = now
		p.CacheUntil = now.Add(ttl)
		require.NoError(t, store.Save(ctx, p))
	}

	n, err := store.PurgeExpired(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var adjustments int64
	db.Model(&models.PredictionAdjustment{}).Count(&adjustments)
	assert.Equal(t, int64(1), adjustments)
}

func TestForecastCache_GormStoreSingleFlight(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	c := New(NewGormStore(db), time.Hour, 5*time.Second)

	var calls atomic.Int32
	compute := func(context.Context) (*models.CachedPrediction, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return prediction(100), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrGenerate(context.Background(), testKey(), compute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	var rows int64
	db.Model(&models.CachedPrediction{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
}
