package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/models"
)

type dashboardTxnStub struct {
	counts     map[models.TransactionStatus]int
	total      int
	swept      bool
	sportStats []models.SportActivity
	trends     []models.ActivityTrend
	recent     []models.LogbookEntry
}

func (d *dashboardTxnStub) SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error) {
	d.swept = true
	return 0, nil
}

func (d *dashboardTxnStub) StatusCounts(ctx context.Context) (map[models.TransactionStatus]int, error) {
	return d.counts, nil
}

func (d *dashboardTxnStub) Count(ctx context.Context) (int, error) {
	return d.total, nil
}

func (d *dashboardTxnStub) SportActivity(ctx context.Context) ([]models.SportActivity, error) {
	return d.sportStats, nil
}

func (d *dashboardTxnStub) ActivityTrends(ctx context.Context, since time.Time) ([]models.ActivityTrend, error) {
	return d.trends, nil
}

func (d *dashboardTxnStub) Recent(ctx context.Context, limit int) ([]models.LogbookEntry, error) {
	return d.recent, nil
}

type dashboardStudentStub struct{ total int }

func (d dashboardStudentStub) Count(ctx context.Context) (int, error) {
	return d.total, nil
}

type cacheStub struct {
	store    map[string][]byte
	gets     int
	sets     int
	deletes  []string
	disabled bool
}

func newCacheStub() *cacheStub {
	return &cacheStub{store: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	payload, ok := c.store[key]
	if !ok || c.disabled {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = payload
	return nil
}

func (c *cacheStub) Invalidate(ctx context.Context, pattern string) error {
	c.deletes = append(c.deletes, pattern)
	delete(c.store, pattern)
	return nil
}

func TestDashboardOverviewComposes(t *testing.T) {
	txns := &dashboardTxnStub{
		counts: map[models.TransactionStatus]int{
			models.StatusTaken:                   4,
			models.StatusReturnedPendingApproval: 2,
			models.StatusOverdue:                 1,
		},
		total:      20,
		sportStats: []models.SportActivity{{Sport: "Basketball", Count: 12, Active: 3}},
	}
	cache := newCacheStub()
	svc := NewDashboardService(txns, dashboardStudentStub{total: 150}, cache, time.Minute, zap.NewNop())

	overview, cached, err := svc.Overview(context.Background())
	require.False(t, cached)
	require.NoError(t, err)
	assert.True(t, txns.swept)
	assert.Equal(t, 4, overview.Stats.ActiveBorrowings)
	assert.Equal(t, 2, overview.Stats.PendingReturns)
	assert.Equal(t, 1, overview.Stats.OverdueEquipment)
	assert.Equal(t, 150, overview.Stats.TotalStudents)
	assert.Equal(t, 20, overview.Stats.TotalTransactions)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardOverviewServesFromCache(t *testing.T) {
	txns := &dashboardTxnStub{counts: map[models.TransactionStatus]int{models.StatusTaken: 1}}
	cache := newCacheStub()
	svc := NewDashboardService(txns, dashboardStudentStub{}, cache, time.Minute, zap.NewNop())

	first, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.False(t, cached)

	txns.counts[models.StatusTaken] = 99
	second, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.Stats.ActiveBorrowings, second.Stats.ActiveBorrowings)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardOverviewWithoutCache(t *testing.T) {
	txns := &dashboardTxnStub{counts: map[models.TransactionStatus]int{}}
	svc := NewDashboardService(txns, dashboardStudentStub{}, nil, time.Minute, zap.NewNop())

	_, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.False(t, cached)
}

func TestDashboardInvalidate(t *testing.T) {
	txns := &dashboardTxnStub{counts: map[models.TransactionStatus]int{}}
	cache := newCacheStub()
	svc := NewDashboardService(txns, dashboardStudentStub{}, cache, time.Minute, zap.NewNop())

	_, _, err := svc.Overview(context.Background())
	require.NoError(t, err)
	svc.Invalidate(context.Background())
	assert.Equal(t, []string{"dashboard:overview"}, cache.deletes)

	txns.counts[models.StatusTaken] = 5
	overview, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 5, overview.Stats.ActiveBorrowings)
}
