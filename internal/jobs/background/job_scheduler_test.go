package background

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/jobs"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInventoryRepository struct {
	mock.Mock
}

func (m *mockInventoryRepository) Adjust(ctx context.Context, productID int64, delta int) error {
	return m.Called(ctx, productID, delta).Error(0)
}

func (m *mockInventoryRepository) ListAtOrBelow(ctx context.Context, threshold int) ([]*models.Product, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]*models.Product), args.Error(1)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) InvalidateProducts(ctx context.Context, productIDs ...int64) error {
	return m.Called(ctx, productIDs).Error(0)
}

func (m *mockInvalidator) ClearProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockInvalidator) ClearAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockInvalidator) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestJobScheduler_RunsJobsOnStart(t *testing.T) {
	var checks, sweeps atomic.Int32

	repo := new(mockInventoryRepository)
	repo.On("ListAtOrBelow", mock.Anything, 3).
		Run(func(mock.Arguments) { checks.Add(1) }).
		Return([]*models.Product{{ID: 1, Name: "Apple", QtyStock: 0}}, nil)

	invalidator := new(mockInvalidator)
	invalidator.On("Sweep", mock.Anything).
		Run(func(mock.Arguments) { sweeps.Add(1) }).
		Return(2, nil)

	js, err := NewJobScheduler(Config{
		LowStockThreshold:  3,
		LowStockInterval:   time.Hour,
		CacheSweepInterval: time.Hour,
	}, jobs.NewInventoryAlertService(repo), invalidator)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"low-stock-alerts", "cache-registry-sweep"}, js.JobNames())

	js.Start()
	assert.Eventually(t, func() bool {
		return checks.Load() == 1 && sweeps.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, js.Stop())
}

func TestJobScheduler_DefaultIntervals(t *testing.T) {
	js, err := NewJobScheduler(Config{}, jobs.NewInventoryAlertService(new(mockInventoryRepository)), new(mockInvalidator))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, js.cfg.LowStockInterval)
	assert.Equal(t, time.Hour, js.cfg.CacheSweepInterval)
	require.NoError(t, js.Stop())
}

func TestJobScheduler_AddJobRejectsInvalidInterval(t *testing.T) {
	js, err := NewJobScheduler(Config{}, jobs.NewInventoryAlertService(new(mockInventoryRepository)), new(mockInvalidator))
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Stop() })

	err = js.AddJob("broken", 0, func() error { return nil })
	assert.Error(t, err)
	assert.NotContains(t, js.JobNames(), "broken")
}
