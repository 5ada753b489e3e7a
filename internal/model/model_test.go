package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m != (Month{Year: 2024, Month: time.February}) {
		t.Errorf("ParseMonth = %+v", m)
	}
	if m.String() != "2024-02" {
		t.Errorf("String = %q", m.String())
	}

	for _, bad := range []string{"", "2024-13", "2024/02", "Feb 2024"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Errorf("ParseMonth(%q) accepted", bad)
		}
	}
}

func TestMonthCalendar(t *testing.T) {
	tests := []struct {
		m    Month
		days int
		end  string
	}{
		{Month{2024, time.February}, 29, "2024-02-29"},
		{Month{2025, time.February}, 28, "2025-02-28"},
		{Month{2025, time.April}, 30, "2025-04-30"},
		{Month{2025, time.December}, 31, "2025-12-31"},
	}
	for _, tt := range tests {
		if got := tt.m.Days(); got != tt.days {
			t.Errorf("%s Days = %d, want %d", tt.m, got, tt.days)
		}
		if got := tt.m.End().Format("2006-01-02"); got != tt.end {
			t.Errorf("%s End = %s, want %s", tt.m, got, tt.end)
		}
	}
}

func TestAddMonthsAndBetween(t *testing.T) {
	nov := Month{2025, time.November}
	if got := nov.AddMonths(3); got != (Month{2026, time.February}) {
		t.Errorf("AddMonths(3) = %s", got)
	}
	if got := nov.AddMonths(-11); got != (Month{2024, time.December}) {
		t.Errorf("AddMonths(-11) = %s", got)
	}

	months := MonthsBetween(nov, Month{2026, time.January})
	if len(months) != 3 || months[2] != (Month{2026, time.January}) {
		t.Errorf("MonthsBetween = %v", months)
	}
	if got := MonthsBetween(Month{2026, time.January}, nov); len(got) != 0 {
		t.Errorf("reversed range = %v, want empty", got)
	}
}

func TestMonthContains(t *testing.T) {
	m := Month{2025, time.March}
	if !m.Contains(time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)) {
		t.Error("last minute of March not contained")
	}
	if m.Contains(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("April 1 contained")
	}
}

func TestMonthJSON(t *testing.T) {
	data, err := json.Marshal(struct{ M Month }{Month{2025, time.July}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"M":"2025-07"}` {
		t.Errorf("json = %s", data)
	}

	var out struct{ M Month }
	if err := json.Unmarshal([]byte(`{"M":""}`), &out); err != nil || !out.M.IsZero() {
		t.Errorf("empty month = %+v, %v", out.M, err)
	}
}

func TestWithMethodsDoNotAlias(t *testing.T) {
	base := GrowthParameters{}.WithChannels(
		Channel{Name: "search", CPA: 3000, TrafficRatio: 60, Active: true},
		Channel{Name: "social", CPA: 4000, TrafficRatio: 40, Active: true},
	)

	changed := base.WithChannel(Channel{Name: "search", CPA: 9999, TrafficRatio: 60, Active: true})
	if base.Channels[0].CPA != 3000 {
		t.Errorf("WithChannel mutated the original: CPA = %v", base.Channels[0].CPA)
	}
	if changed.Channels[0].CPA != 9999 {
		t.Errorf("WithChannel did not apply: CPA = %v", changed.Channels[0].CPA)
	}

	grown := base.WithGrowthRate(20)
	grown.Channels[1].Active = false
	if !base.Channels[1].Active {
		t.Error("copy shares the channel slice with the original")
	}

	without := base.WithoutChannel("social")
	if len(without.Channels) != 1 || len(base.Channels) != 2 {
		t.Errorf("WithoutChannel: got %d, original %d", len(without.Channels), len(base.Channels))
	}
	if got := base.ActiveTrafficRatio(); got != 100 {
		t.Errorf("ActiveTrafficRatio = %v, want 100", got)
	}
}

func TestMonthlyValue(t *testing.T) {
	p := PlanPricing{Monthly: 980, Yearly: 9600}
	if got := p.MonthlyValue(PlanMonthly); got != 980 {
		t.Errorf("monthly = %v", got)
	}
	if got := p.MonthlyValue(PlanYearly); got != 800 {
		t.Errorf("yearly = %v, want 800", got)
	}
}

func TestSnapshotValue(t *testing.T) {
	s := SnapshotOf(ActualRecord{NewAcquisitions: 12, MRR: 5000, ChurnCount: 2, Expenses: 700, TotalCustomers: 40})
	want := map[Metric]float64{
		MetricNewAcquisitions: 12,
		MetricMRR:             5000,
		MetricChurnCount:      2,
		MetricExpenses:        700,
		MetricTotalCustomers:  40,
		MetricChannelCPA:      0,
	}
	for m, v := range want {
		if got := s.Value(m); got != v {
			t.Errorf("Value(%s) = %v, want %v", m, got, v)
		}
	}
}
