package pipeline

import (
	"testing"
	"time"

	"github.com/subdash/subdash/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateDaily(t *testing.T) {
	june := model.Month{Year: 2025, Month: 6}
	daily := []model.DailyActual{
		{Date: day(2025, 6, 1), NewAcquisitions: 4, Revenue: 1000, Expenses: 300,
			Channels: []model.ChannelDaily{{Name: "social", Acquisitions: 1, Cost: 4000}, {Name: "search", Acquisitions: 3, Cost: 9000}}},
		{Date: day(2025, 6, 2), NewAcquisitions: 2, Revenue: 500, Expenses: 200,
			Channels: []model.ChannelDaily{{Name: "search", Acquisitions: 1, Cost: 3400}}},
		{Date: day(2025, 7, 1), NewAcquisitions: 50},
	}

	a := AggregateDaily(daily, june)
	if a.NewAcquisitions != 6 || a.MRR != 1500 || a.Expenses != 500 {
		t.Errorf("totals = %d/%v/%v, want 6/1500/500", a.NewAcquisitions, a.MRR, a.Expenses)
	}
	if len(a.Channels) != 2 || a.Channels[0].Name != "search" {
		t.Fatalf("Channels = %+v, want search, social", a.Channels)
	}
	if a.Channels[0].CPA != 3100 {
		t.Errorf("search CPA = %v, want 3100", a.Channels[0].CPA)
	}
}

func TestMonthActual_PrefersStoredRecord(t *testing.T) {
	may := model.Month{Year: 2025, Month: 5}
	churned := day(2025, 5, 20)
	ds := newDataset([]model.Month{may})
	ds.Customers = []model.Customer{
		{ID: "a", RegisteredAt: day(2025, 4, 1), Status: model.StatusActive},
		{ID: "b", RegisteredAt: day(2025, 4, 2), Status: model.StatusChurned, ChurnedAt: &churned},
		{ID: "c", RegisteredAt: day(2025, 6, 2), Status: model.StatusActive},
	}
	ds.Daily[may] = []model.DailyActual{{Date: day(2025, 5, 3), NewAcquisitions: 7}}

	a, ok := ds.MonthActual(may)
	if !ok {
		t.Fatal("MonthActual = !ok with daily reports present")
	}
	if a.NewAcquisitions != 7 || a.ChurnCount != 1 || a.TotalCustomers != 1 {
		t.Errorf("aggregated = acq %d churn %d total %d, want 7/1/1", a.NewAcquisitions, a.ChurnCount, a.TotalCustomers)
	}

	ds.Actuals[may] = model.ActualRecord{Month: may, NewAcquisitions: 99}
	a, _ = ds.MonthActual(may)
	if a.NewAcquisitions != 99 {
		t.Errorf("NewAcquisitions = %d, want stored 99", a.NewAcquisitions)
	}

	if _, ok := ds.MonthActual(model.Month{Year: 2025, Month: 1}); ok {
		t.Error("MonthActual(empty month) = ok")
	}
	if m, ok := ds.LatestMonth(); !ok || m != may {
		t.Errorf("LatestMonth = %v, %v; want %v", m, ok, may)
	}
}
