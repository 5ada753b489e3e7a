package projection

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/subdash/subdash/internal/model"
)

func baseParams() model.GrowthParameters {
	return model.GrowthParameters{
		StartMonth:          model.Month{Year: 2025, Month: 1},
		InitialAcquisitions: 100,
		MonthlyGrowthRate:   10,
		ChurnRate:           5,
		MonthlyPrice:        1000,
		YearlyPrice:         10000,
		BaseExpenses:        100000,
		ExpenseGrowthRate:   10,
		HorizonMonths:       3,
	}
}

func TestProject_GrowthAndChurn(t *testing.T) {
	records, err := Project(baseParams())
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	wantNew := []int{100, 110, 121}
	wantChurn := []int{0, 5, 10}
	wantTotal := []int{100, 205, 316}
	for i, r := range records {
		if r.NewAcquisitions != wantNew[i] {
			t.Errorf("month %d NewAcquisitions = %d, want %d", i, r.NewAcquisitions, wantNew[i])
		}
		if r.ChurnCount != wantChurn[i] {
			t.Errorf("month %d ChurnCount = %d, want %d", i, r.ChurnCount, wantChurn[i])
		}
		if r.TotalCustomers != wantTotal[i] {
			t.Errorf("month %d TotalCustomers = %d, want %d", i, r.TotalCustomers, wantTotal[i])
		}
	}
	if got := records[1].ChurnCount; got != int(math.Round(float64(records[0].TotalCustomers)*0.05)) {
		t.Errorf("churn[1] = %d, want round(total[0] * 5%%)", got)
	}
	if got := records[2].Month.String(); got != "2025-03" {
		t.Errorf("records[2].Month = %q, want 2025-03", got)
	}
}

func TestProject_CustomerConservation(t *testing.T) {
	p := baseParams().WithHorizon(24).WithChurnRate(7.5).WithGrowthRate(-3)
	records, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if cur.TotalCustomers != prev.TotalCustomers+cur.NewAcquisitions-cur.ChurnCount {
			t.Fatalf("month %d: total %d != %d + %d - %d",
				i, cur.TotalCustomers, prev.TotalCustomers, cur.NewAcquisitions, cur.ChurnCount)
		}
	}
}

func TestProject_PLIdentity(t *testing.T) {
	p := baseParams().WithHorizon(12).WithYearlyPlanShare(30).WithChannels(
		model.Channel{Name: "search", CPA: 3000, TrafficRatio: 60, Active: true},
		model.Channel{Name: "social", CPA: 4500, TrafficRatio: 40, Active: true},
	)
	records, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for _, r := range records {
		pl := r.PL
		if pl.GrossProfit != pl.Revenue.Total-pl.Costs.ChannelCosts {
			t.Errorf("%s: gross profit %v != %v - %v", r.Month, pl.GrossProfit, pl.Revenue.Total, pl.Costs.ChannelCosts)
		}
		if pl.NetProfit != pl.GrossProfit-pl.Costs.OperatingExpenses {
			t.Errorf("%s: net profit %v != %v - %v", r.Month, pl.NetProfit, pl.GrossProfit, pl.Costs.OperatingExpenses)
		}
		if r.MRR != pl.Revenue.Total {
			t.Errorf("%s: MRR = %v, want revenue total %v", r.Month, r.MRR, pl.Revenue.Total)
		}
	}
}

func TestProject_RevenueMix(t *testing.T) {
	p := baseParams().WithYearlyPlanShare(50).WithHorizon(1)
	records, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	rev := records[0].PL.Revenue
	if rev.MonthlySubscription != 50000 {
		t.Errorf("MonthlySubscription = %v, want 50000", rev.MonthlySubscription)
	}
	if math.Abs(rev.YearlySubscription-50*10000.0/12) > 1e-6 {
		t.Errorf("YearlySubscription = %v, want %v", rev.YearlySubscription, 50*10000.0/12)
	}
}

func TestProject_ExpensesGrowAndIncludeChannelCost(t *testing.T) {
	p := baseParams().WithChannels(model.Channel{Name: "ads", CPA: 100, TrafficRatio: 100, Active: true})
	records, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	want := 100000*math.Pow(1.1, 2) + 121*100
	if math.Abs(records[2].Expenses-want) > 1e-6 {
		t.Errorf("month 2 Expenses = %v, want %v", records[2].Expenses, want)
	}
	wantCum := records[0].Profit + records[1].Profit + records[2].Profit
	if math.Abs(records[2].CumulativeProfit-wantCum) > 1e-6 {
		t.Errorf("CumulativeProfit = %v, want %v", records[2].CumulativeProfit, wantCum)
	}
}

func TestProject_ChannelRenormalization(t *testing.T) {
	p := baseParams().WithChannels(
		model.Channel{Name: "search", CPA: 2000, TrafficRatio: 40, Active: true},
		model.Channel{Name: "social", CPA: 3000, TrafficRatio: 35, Active: false},
		model.Channel{Name: "referral", CPA: 500, TrafficRatio: 25, Active: false},
	)
	records, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for _, r := range records {
		if len(r.Channels) != 1 {
			t.Fatalf("%s: %d channel plans, want 1 (active only)", r.Month, len(r.Channels))
		}
		ch := r.Channels[0]
		if ch.PlannedAcquisitions != r.NewAcquisitions {
			t.Errorf("%s: search planned %d, want full %d", r.Month, ch.PlannedAcquisitions, r.NewAcquisitions)
		}
		if ch.PlannedCost != float64(ch.PlannedAcquisitions)*2000 {
			t.Errorf("%s: PlannedCost = %v, want acquisitions * cpa", r.Month, ch.PlannedCost)
		}
	}
}

func TestProject_NegativeGrowthFloorsAtZero(t *testing.T) {
	p := baseParams().WithGrowthRate(-150).WithHorizon(4)
	records, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for i, r := range records[1:] {
		if r.NewAcquisitions != 0 {
			t.Errorf("month %d NewAcquisitions = %d, want 0", i+1, r.NewAcquisitions)
		}
	}
}

func TestProject_EmptyHorizon(t *testing.T) {
	for _, h := range []int{0, -3} {
		records, err := Project(baseParams().WithHorizon(h))
		if err != nil {
			t.Fatalf("horizon %d: unexpected error %v", h, err)
		}
		if records == nil || len(records) != 0 {
			t.Errorf("horizon %d: records = %v, want empty", h, records)
		}
	}
}

func TestProject_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		p    model.GrowthParameters
	}{
		{"churn over 100", baseParams().WithChurnRate(101)},
		{"negative churn", baseParams().WithChurnRate(-1)},
		{"negative monthly price", baseParams().WithPrices(-1, 10000)},
		{"negative yearly price", baseParams().WithPrices(1000, -5)},
		{"negative expenses", baseParams().WithExpenses(-1, 0)},
		{"negative acquisitions", baseParams().WithInitialAcquisitions(-10)},
		{"yearly share over 100", baseParams().WithYearlyPlanShare(120)},
		{"missing start", baseParams().WithStartMonth(model.Month{})},
		{"duplicate channel", baseParams().WithChannels(
			model.Channel{Name: "ads", TrafficRatio: 50, Active: true},
			model.Channel{Name: "ads", TrafficRatio: 50, Active: true},
		)},
		{"ratio over 100", baseParams().WithChannels(model.Channel{Name: "ads", TrafficRatio: 140, Active: true})},
		{"infinite growth", baseParams().WithGrowthRate(math.Inf(1))},
		{"negative infinite growth", baseParams().WithGrowthRate(math.Inf(-1))},
		{"infinite expense growth", baseParams().WithExpenses(100000, math.Inf(1))},
		{"NaN churn", baseParams().WithChurnRate(math.NaN())},
		{"infinite cpa", baseParams().WithChannels(model.Channel{Name: "ads", CPA: math.Inf(1), TrafficRatio: 100, Active: true})},
		{"acquisitions past the cap", baseParams().WithInitialAcquisitions(MaxAcquisitions + 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Project(tt.p)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("err = %v, want ErrInvalidParameter", err)
			}
			if records != nil {
				t.Errorf("records = %v, want nil on invalid input", records)
			}
		})
	}
}

func TestProject_CompoundingPastCapIsRejected(t *testing.T) {
	p := baseParams().WithGrowthRate(500).WithHorizon(24)
	records, err := Project(p)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
	if records != nil {
		t.Errorf("records = %d months, want nil", len(records))
	}

	// The same rate over a short horizon stays below the cap and keeps growing.
	records, err = Project(p.WithHorizon(8))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].NewAcquisitions <= records[i-1].NewAcquisitions {
			t.Fatalf("month %d: new = %d after %d, want growth", i, records[i].NewAcquisitions, records[i-1].NewAcquisitions)
		}
	}
}

func TestProject_Deterministic(t *testing.T) {
	p := baseParams().WithHorizon(18).WithYearlyPlanShare(25).WithChannels(
		model.Channel{Name: "search", CPA: 2500, TrafficRatio: 70, Active: true},
		model.Channel{Name: "events", CPA: 8000, TrafficRatio: 30, Active: true},
	)
	a, err := Project(p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	b, _ := Project(p)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Project returned different results for identical parameters")
	}
}

func TestWarnings_TrafficRatio(t *testing.T) {
	p := baseParams().WithChannels(
		model.Channel{Name: "search", TrafficRatio: 50, Active: true},
		model.Channel{Name: "social", TrafficRatio: 40, Active: true},
		model.Channel{Name: "tv", TrafficRatio: 10, Active: false},
	)
	warnings := Warnings(p)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "90.0%") {
		t.Fatalf("Warnings = %v, want one note mentioning 90.0%%", warnings)
	}
	if _, err := Project(p); err != nil {
		t.Fatalf("ratio mismatch must not block projection: %v", err)
	}

	ok := p.WithChannel(model.Channel{Name: "social", TrafficRatio: 50, Active: true})
	if w := Warnings(ok); len(w) != 0 {
		t.Errorf("Warnings = %v, want none when ratios sum to 100", w)
	}
}

func TestWithChannels_DoesNotAlias(t *testing.T) {
	channels := []model.Channel{{Name: "search", TrafficRatio: 100, Active: true}}
	p := baseParams().WithChannels(channels...)
	channels[0].TrafficRatio = 10
	if p.Channels[0].TrafficRatio != 100 {
		t.Fatalf("caller mutation leaked into parameters: ratio = %v", p.Channels[0].TrafficRatio)
	}
	q := p.WithChannel(model.Channel{Name: "search", TrafficRatio: 60, Active: true})
	if p.Channels[0].TrafficRatio != 100 {
		t.Fatalf("WithChannel mutated receiver: ratio = %v", p.Channels[0].TrafficRatio)
	}
	if q.Channels[0].TrafficRatio != 60 {
		t.Fatalf("WithChannel ratio = %v, want 60", q.Channels[0].TrafficRatio)
	}
}

func TestSummarize(t *testing.T) {
	records, err := Project(baseParams().WithHorizon(6))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	s := Summarize(records)
	if s.Months != 6 {
		t.Errorf("Months = %d, want 6", s.Months)
	}
	if s.EndingCustomers != records[5].TotalCustomers {
		t.Errorf("EndingCustomers = %d, want %d", s.EndingCustomers, records[5].TotalCustomers)
	}
	if s.TotalAcquired-s.TotalChurned != s.EndingCustomers {
		t.Errorf("acquired %d - churned %d != ending %d", s.TotalAcquired, s.TotalChurned, s.EndingCustomers)
	}
	if _, ok := Find(records, model.Month{Year: 2025, Month: 4}); !ok {
		t.Error("Find(2025-04) = false, want true")
	}
}
