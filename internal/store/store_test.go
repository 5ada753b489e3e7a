package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subdash/subdash/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCustomersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	churned := date(2025, time.March, 12)
	in := []model.Customer{
		{ID: "c-2", RegisteredAt: date(2025, time.February, 3), Status: model.StatusChurned, ChurnedAt: &churned, PlanType: model.PlanYearly},
		{ID: "c-1", RegisteredAt: date(2025, time.January, 9), Status: model.StatusActive, PlanType: model.PlanMonthly},
		{RegisteredAt: date(2025, time.January, 20), Status: model.StatusActive, PlanType: model.PlanMonthly},
	}
	require.NoError(t, s.SaveCustomers(ctx, in))

	got, err := s.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c-1", got[0].ID)
	assert.NotEmpty(t, got[1].ID, "missing id should be generated")
	assert.Equal(t, "c-2", got[2].ID)
	require.NotNil(t, got[2].ChurnedAt)
	assert.True(t, got[2].ChurnedAt.Equal(churned))
	assert.Nil(t, got[0].ChurnedAt)

	// Saving again replaces by id.
	in[1].Status = model.StatusChurned
	in[1].ChurnedAt = &churned
	require.NoError(t, s.SaveCustomers(ctx, in[:2]))
	got, err = s.Customers(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, model.StatusChurned, got[0].Status)
}

func TestActualRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	march := model.Month{Year: 2025, Month: 3}

	_, err := s.Actual(ctx, march)
	require.ErrorIs(t, err, ErrNotFound)

	a := model.ActualRecord{
		Month: march, NewAcquisitions: 120, MRR: 480000, ChurnCount: 7, Expenses: 390000, TotalCustomers: 510,
		Channels: []model.ChannelActual{
			{Name: "social", Acquisitions: 40, CPA: 4200, Cost: 168000},
			{Name: "search", Acquisitions: 80, CPA: 2900, Cost: 232000},
		},
	}
	require.NoError(t, s.SaveActual(ctx, a))
	a.Channels = a.Channels[1:]
	a.MRR = 500000
	require.NoError(t, s.SaveActual(ctx, a))

	got, err := s.Actual(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, got.MRR)
	assert.Equal(t, 510, got.TotalCustomers)
	require.Len(t, got.Channels, 1)
	assert.Equal(t, "search", got.Channels[0].Name)

	require.NoError(t, s.SaveActual(ctx, model.ActualRecord{Month: model.Month{Year: 2025, Month: 1}}))
	months, err := s.ActualMonths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Month{{Year: 2025, Month: 1}, march}, months)
}

func TestDailyRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.SaveDaily(ctx, model.DailyActual{
		Date: date(2025, time.April, 2), NewAcquisitions: 4, Revenue: 12000, Expenses: 5000,
		Channels: []model.ChannelDaily{{Name: "search", Acquisitions: 3, Cost: 9000}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.SaveDaily(ctx, model.DailyActual{Date: date(2025, time.April, 1), NewAcquisitions: 2})
	require.NoError(t, err)
	_, err = s.SaveDaily(ctx, model.DailyActual{Date: date(2025, time.May, 1), NewAcquisitions: 9})
	require.NoError(t, err)

	got, err := s.DailyActuals(ctx, model.Month{Year: 2025, Month: 4})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Date.Day())
	assert.Equal(t, 4, got[1].NewAcquisitions)
	require.Len(t, got[1].Channels, 1)
	assert.Equal(t, 9000.0, got[1].Channels[0].Cost)
	assert.Equal(t, id, got[1].ID)
}

func TestTargetsAndStats(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	june := model.Month{Year: 2025, Month: 6}

	require.NoError(t, s.SaveTargets(ctx, []model.TargetRecord{
		{Period: june, Metric: model.MetricMRR, Value: 700000, Unit: model.UnitCurrency},
		{Period: june, Metric: model.MetricNewAcquisitions, Value: 150, Unit: model.UnitCount},
	}))
	require.NoError(t, s.SaveTargets(ctx, []model.TargetRecord{
		{Period: june, Metric: model.MetricMRR, Value: 720000, Unit: model.UnitCurrency},
	}))

	got, err := s.Targets(ctx, june)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.MetricMRR, got[0].Metric)
	assert.Equal(t, 720000.0, got[0].Value)
	assert.Equal(t, june, got[0].Period)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Targets: 2}, st)
}
