package variance

import (
	"math"
	"testing"

	"github.com/subdash/subdash/internal/model"
)

var march = model.Month{Year: 2025, Month: 3}

func planFixture() model.MonthlyPlanRecord {
	return model.MonthlyPlanRecord{
		Month:           march,
		NewAcquisitions: 100,
		MRR:             500000,
		ChurnCount:      0,
		Expenses:        400000,
		Channels: []model.ChannelPlan{
			{Name: "search", PlannedAcquisitions: 60, PlannedCPA: 3000, PlannedCost: 180000},
			{Name: "social", PlannedAcquisitions: 40, PlannedCPA: 4000, PlannedCost: 160000},
		},
	}
}

func TestOf_SignConvention(t *testing.T) {
	r := Of(model.MetricNewAcquisitions, 100, 80)
	if r.Absolute != -20 {
		t.Errorf("Absolute = %v, want -20", r.Absolute)
	}
	if r.Percent != -20.0 {
		t.Errorf("Percent = %v, want -20.0", r.Percent)
	}

	zero := Of(model.MetricNewAcquisitions, 0, 50)
	if zero.Percent != 0 {
		t.Errorf("Percent with zero plan = %v, want 0", zero.Percent)
	}
	if zero.Absolute != 50 {
		t.Errorf("Absolute with zero plan = %v, want 50", zero.Absolute)
	}
}

func TestCompute_Metrics(t *testing.T) {
	actual := model.ActualRecord{
		Month:           march,
		NewAcquisitions: 80,
		MRR:             550000,
		ChurnCount:      4,
		Expenses:        380000,
	}
	rep := Compute(planFixture(), actual)

	tests := []struct {
		metric  model.Metric
		abs     float64
		percent float64
	}{
		{model.MetricNewAcquisitions, -20, -20},
		{model.MetricMRR, 50000, 10},
		{model.MetricChurnCount, 4, 0},
		{model.MetricExpenses, -20000, -5},
	}
	if len(rep.Metrics) != len(tests) {
		t.Fatalf("len(Metrics) = %d, want %d", len(rep.Metrics), len(tests))
	}
	for _, tt := range tests {
		got, ok := rep.Metric(tt.metric)
		if !ok {
			t.Fatalf("metric %s missing", tt.metric)
		}
		if got.Absolute != tt.abs || got.Percent != tt.percent {
			t.Errorf("%s = (%v, %v%%), want (%v, %v%%)", tt.metric, got.Absolute, got.Percent, tt.abs, tt.percent)
		}
	}
}

func TestCompute_ChannelMatching(t *testing.T) {
	actual := model.ActualRecord{
		Month: march,
		Channels: []model.ChannelActual{
			{Name: "search", Acquisitions: 66, CPA: 2500, Cost: 165000},
			{Name: "Search", Acquisitions: 1, CPA: 1, Cost: 1},
			{Name: "podcast", Acquisitions: 5, CPA: 9000, Cost: 45000},
		},
	}
	rep := Compute(planFixture(), actual)

	if len(rep.Channels) != 1 {
		t.Fatalf("len(Channels) = %d, want 1 (exact name match only)", len(rep.Channels))
	}
	ch := rep.Channels[0]
	if ch.Name != "search" {
		t.Fatalf("channel = %q, want search", ch.Name)
	}
	if ch.Acquisitions.Absolute != 6 || ch.Acquisitions.Percent != 10 {
		t.Errorf("acquisitions = (%v, %v%%), want (6, 10%%)", ch.Acquisitions.Absolute, ch.Acquisitions.Percent)
	}
	if ch.CPA.Absolute != -500 {
		t.Errorf("cpa absolute = %v, want -500", ch.CPA.Absolute)
	}
	if ch.Cost.Metric != model.MetricChannelCost {
		t.Errorf("cost metric = %s, want %s", ch.Cost.Metric, model.MetricChannelCost)
	}

	// social unreported; "Search" and podcast unplanned.
	if len(rep.Notes) != 3 {
		t.Fatalf("Notes = %v, want 3 notes", rep.Notes)
	}
	if rep.Notes[0].Channel != "social" {
		t.Errorf("first note channel = %q, want social", rep.Notes[0].Channel)
	}
}

func TestFavorable(t *testing.T) {
	tests := []struct {
		metric model.Metric
		abs    float64
		want   bool
	}{
		{model.MetricNewAcquisitions, 10, true},
		{model.MetricNewAcquisitions, -10, false},
		{model.MetricMRR, 1, true},
		{model.MetricChurnCount, 3, false},
		{model.MetricChurnCount, -3, true},
		{model.MetricExpenses, 100, false},
		{model.MetricChannelCPA, -50, true},
		{model.MetricChannelCost, 50, false},
		{model.MetricChannelAcquisitions, 0, true},
	}
	for _, tt := range tests {
		if got := Favorable(tt.metric, tt.abs); got != tt.want {
			t.Errorf("Favorable(%s, %v) = %v, want %v", tt.metric, tt.abs, got, tt.want)
		}
	}
}

func TestApplyTargets(t *testing.T) {
	targets := []model.TargetRecord{
		{Period: march, Metric: model.MetricNewAcquisitions, Value: 120, Unit: model.UnitCount},
		{Period: march, Metric: model.MetricMRR, Value: 600000, Unit: model.UnitCurrency},
		{Period: model.Month{Year: 2025, Month: 4}, Metric: model.MetricExpenses, Value: 1, Unit: model.UnitCurrency},
	}
	plan := planFixture()
	got := ApplyTargets(plan, targets)
	if got.NewAcquisitions != 120 || got.MRR != 600000 {
		t.Errorf("targets not applied: acquisitions %d, mrr %v", got.NewAcquisitions, got.MRR)
	}
	if got.Expenses != plan.Expenses {
		t.Errorf("Expenses = %v, want unchanged %v (target for another month)", got.Expenses, plan.Expenses)
	}
	if plan.NewAcquisitions != 100 {
		t.Error("ApplyTargets mutated its input")
	}
}

func TestApplyTargets_KeepsProfitIdentity(t *testing.T) {
	plan := planFixture()
	plan.PL = model.PLBreakdown{
		Revenue: model.Revenue{MonthlySubscription: 400000, YearlySubscription: 100000},
		Costs:   model.Costs{ChannelCosts: 340000, OperatingExpenses: 60000},
	}
	plan.PL.Settle()
	plan.Profit = 100000
	plan.CumulativeProfit = 250000

	got := ApplyTargets(plan, []model.TargetRecord{
		{Period: march, Metric: model.MetricMRR, Value: 600000, Unit: model.UnitCurrency},
		{Period: march, Metric: model.MetricExpenses, Value: 200000, Unit: model.UnitCurrency},
	})
	if got.Profit != got.MRR-got.Expenses || !near(got.Profit, 400000) {
		t.Errorf("Profit = %v, want MRR-Expenses = %v", got.Profit, got.MRR-got.Expenses)
	}
	if !near(got.CumulativeProfit, 550000) {
		t.Errorf("CumulativeProfit = %v, want 550000", got.CumulativeProfit)
	}
	if !near(got.PL.Revenue.Total, 600000) || !near(got.PL.Revenue.MonthlySubscription, 480000) {
		t.Errorf("Revenue = %+v, want total 600000 split 80/20", got.PL.Revenue)
	}
	if !near(got.PL.Costs.ChannelCosts+got.PL.Costs.OperatingExpenses, 200000) {
		t.Errorf("Costs = %+v, want sum 200000", got.PL.Costs)
	}
	if !near(got.PL.NetProfit, got.Profit) {
		t.Errorf("NetProfit = %v, want %v", got.PL.NetProfit, got.Profit)
	}
	if plan.PL.Revenue.Total != 500000 {
		t.Error("ApplyTargets mutated the input P&L")
	}
}

func TestApplyTargets_NoTargetsLeavesProjectedRecord(t *testing.T) {
	plan := planFixture()
	plan.PL = model.PLBreakdown{
		Revenue: model.Revenue{MonthlySubscription: 500000},
		Costs:   model.Costs{ChannelCosts: 340000, OperatingExpenses: 60000},
	}
	plan.PL.Settle()
	plan.Profit = 100000
	plan.CumulativeProfit = 100000

	got := ApplyTargets(plan, nil)
	if got.Profit != plan.Profit || got.CumulativeProfit != plan.CumulativeProfit || got.PL != plan.PL {
		t.Errorf("got %+v, want unchanged %+v", got, plan)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCompute_DuplicateChannelIsSummed(t *testing.T) {
	actual := model.ActualRecord{
		Month: march,
		Channels: []model.ChannelActual{
			{Name: "search", Acquisitions: 40, CPA: 3000, Cost: 120000},
			{Name: "social", Acquisitions: 40, CPA: 4000, Cost: 160000},
			{Name: "search", Acquisitions: 20, CPA: 1500, Cost: 30000},
		},
	}
	rep := Compute(planFixture(), actual)

	if len(rep.Channels) != 2 {
		t.Fatalf("len(Channels) = %d, want 2", len(rep.Channels))
	}
	search := rep.Channels[0]
	if search.Acquisitions.Actual != 60 || search.Cost.Actual != 150000 || search.CPA.Actual != 2500 {
		t.Errorf("search = %+v, want 60 acquisitions, cost 150000, cpa 2500", search)
	}
	if len(rep.Notes) != 1 || rep.Notes[0].Channel != "search" {
		t.Errorf("notes = %v, want one duplicate note for search", rep.Notes)
	}
}
