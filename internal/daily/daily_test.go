package daily

import (
	"errors"
	"testing"
	"time"

	"github.com/subdash/subdash/internal/model"
)

var april = model.Month{Year: 2025, Month: 4}

func aprilPlan() model.MonthlyPlanRecord {
	return model.MonthlyPlanRecord{
		Month:           april,
		NewAcquisitions: 100,
		MRR:             300000,
		Expenses:        150000,
		Channels: []model.ChannelPlan{
			{Name: "search", PlannedAcquisitions: 61, PlannedCPA: 3000, PlannedCost: 183000},
			{Name: "social", PlannedAcquisitions: 39, PlannedCPA: 2000, PlannedCost: 78000},
		},
	}
}

func day(d int) time.Time {
	return time.Date(2025, time.April, d, 0, 0, 0, 0, time.UTC)
}

func TestDecompose(t *testing.T) {
	tg, err := Decompose(aprilPlan(), april.Days())
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if tg.Days != 30 {
		t.Fatalf("Days = %d, want 30", tg.Days)
	}
	if tg.NewAcquisitions != 4 {
		t.Errorf("NewAcquisitions = %d, want ceil(100/30) = 4", tg.NewAcquisitions)
	}
	if tg.Revenue != 10000 {
		t.Errorf("Revenue = %v, want 10000", tg.Revenue)
	}
	if tg.Expenses != 5000 {
		t.Errorf("Expenses = %v, want 5000", tg.Expenses)
	}
	if tg.ChannelTarget["search"] != 3 || tg.ChannelTarget["social"] != 2 {
		t.Errorf("ChannelTarget = %v, want search 3, social 2", tg.ChannelTarget)
	}
	if tg.ChannelBudget["search"] != 6100 {
		t.Errorf("search budget = %v, want 6100", tg.ChannelBudget["search"])
	}
}

func TestDecompose_InvalidDays(t *testing.T) {
	if _, err := Decompose(aprilPlan(), 0); !errors.Is(err, ErrInvalidDays) {
		t.Fatalf("err = %v, want ErrInvalidDays", err)
	}
}

func TestAccumulate(t *testing.T) {
	tg, err := Decompose(aprilPlan(), 30)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	actuals := []model.DailyActual{
		{Date: day(1), NewAcquisitions: 5, Revenue: 9000, Expenses: 4000,
			Channels: []model.ChannelDaily{{Name: "search", Acquisitions: 3, Cost: 9000}}},
		{Date: day(2), NewAcquisitions: 3, Revenue: 11000, Expenses: 6000,
			Channels: []model.ChannelDaily{{Name: "search", Acquisitions: 2, Cost: 5000}}},
		{Date: day(5), NewAcquisitions: 100, Revenue: 1, Expenses: 1},
		{Date: time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), NewAcquisitions: 50},
	}

	p := Accumulate(actuals, tg, 2)
	if p.DaysReported != 2 {
		t.Errorf("DaysReported = %d, want 2", p.DaysReported)
	}
	if p.NewAcquisitions.Actual != 8 || p.NewAcquisitions.Target != 8 {
		t.Errorf("acquisitions = %v/%v, want 8/8", p.NewAcquisitions.Actual, p.NewAcquisitions.Target)
	}
	if p.NewAcquisitions.Achievement != 100 {
		t.Errorf("acquisition achievement = %v, want 100", p.NewAcquisitions.Achievement)
	}
	if p.Revenue.Actual != 20000 || p.Revenue.Achievement != 100 {
		t.Errorf("revenue = %v (%v%%), want 20000 (100%%)", p.Revenue.Actual, p.Revenue.Achievement)
	}
	if p.Expenses.Achievement != 100 {
		t.Errorf("expense achievement = %v, want 100", p.Expenses.Achievement)
	}

	if len(p.Channels) != 2 || p.Channels[0].Name != "search" {
		t.Fatalf("Channels = %+v, want search then social", p.Channels)
	}
	search := p.Channels[0]
	if search.Acquisitions.Actual != 5 || search.Acquisitions.Target != 6 {
		t.Errorf("search acquisitions = %v/%v, want 5/6", search.Acquisitions.Actual, search.Acquisitions.Target)
	}
	if search.Spend.Actual != 14000 {
		t.Errorf("search spend = %v, want 14000", search.Spend.Actual)
	}
	if social := p.Channels[1]; social.Acquisitions.Actual != 0 || social.Acquisitions.Achievement != 0 {
		t.Errorf("social = %+v, want zero actual", social.Acquisitions)
	}
}

func TestAccumulate_ZeroTargetAndClamp(t *testing.T) {
	tg, err := Decompose(model.MonthlyPlanRecord{Month: april}, 30)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	p := Accumulate([]model.DailyActual{{Date: day(1), NewAcquisitions: 4, Revenue: 100}}, tg, 99)
	if p.ThroughDay != 30 {
		t.Errorf("ThroughDay = %d, want clamp to 30", p.ThroughDay)
	}
	if p.NewAcquisitions.Achievement != 0 || p.Revenue.Achievement != 0 {
		t.Errorf("achievement with zero target = %v/%v, want 0/0", p.NewAcquisitions.Achievement, p.Revenue.Achievement)
	}

	none := Accumulate(nil, tg, -1)
	if none.ThroughDay != 0 || none.NewAcquisitions.Target != 0 {
		t.Errorf("negative day = %+v, want empty progress", none)
	}
}
