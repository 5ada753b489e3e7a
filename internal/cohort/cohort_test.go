package cohort

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/subdash/subdash/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

var pricing = model.PlanPricing{Monthly: 1000, Yearly: 12000}

// januaryCohort builds 20 customers registered in January 2025: 15 active and
// 5 churned on March dates.
func januaryCohort(t *testing.T) []model.Customer {
	t.Helper()
	var out []model.Customer
	for i := range 15 {
		out = append(out, model.Customer{
			ID:           fmt.Sprintf("a%d", i),
			RegisteredAt: mustDate(t, "2025-01-10"),
			Status:       model.StatusActive,
			PlanType:     model.PlanMonthly,
		})
	}
	for i := range 5 {
		churned := mustDate(t, fmt.Sprintf("2025-03-%02d", 3+i*5))
		out = append(out, model.Customer{
			ID:           fmt.Sprintf("c%d", i),
			RegisteredAt: mustDate(t, "2025-01-20"),
			Status:       model.StatusChurned,
			ChurnedAt:    &churned,
			PlanType:     model.PlanYearly,
		})
	}
	// outside the cohort
	out = append(out, model.Customer{
		ID:           "feb",
		RegisteredAt: mustDate(t, "2025-02-01"),
		Status:       model.StatusActive,
		PlanType:     model.PlanMonthly,
	})
	return out
}

func retention(t *testing.T, res model.CohortResult, k int) int {
	t.Helper()
	v, ok := res.Retention[k]
	if !ok || v == nil {
		t.Fatalf("retention[%d] missing or nil", k)
	}
	return *v
}

func TestCompute_MarchChurn(t *testing.T) {
	res, err := Compute(januaryCohort(t), model.Month{Year: 2025, Month: 1}, mustDate(t, "2026-06-01"), pricing)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if res.CustomerCount != 20 {
		t.Fatalf("CustomerCount = %d, want 20", res.CustomerCount)
	}
	if got := retention(t, res, 1); got != 100 {
		t.Errorf("retention[1] = %d, want 100", got)
	}
	for _, k := range []int{2, 3, 6, 12} {
		if got := retention(t, res, k); got != 75 {
			t.Errorf("retention[%d] = %d, want 75", k, got)
		}
	}
}

func TestCompute_ChurnOnBoundaryDayCountsAsGone(t *testing.T) {
	churned := mustDate(t, "2025-02-28")
	customers := []model.Customer{
		{ID: "x", RegisteredAt: mustDate(t, "2025-01-05"), Status: model.StatusChurned, ChurnedAt: &churned},
		{ID: "y", RegisteredAt: mustDate(t, "2025-01-06"), Status: model.StatusActive},
	}
	res, err := Compute(customers, model.Month{Year: 2025, Month: 1}, mustDate(t, "2026-06-01"), pricing)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := retention(t, res, 1); got != 50 {
		t.Errorf("retention[1] = %d, want 50", got)
	}
}

func TestCompute_FutureCheckpointsAreNil(t *testing.T) {
	res, err := Compute(januaryCohort(t), model.Month{Year: 2025, Month: 1}, mustDate(t, "2025-04-15"), pricing)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, k := range []int{1, 2, 3} {
		if res.Retention[k] == nil {
			t.Errorf("retention[%d] = nil, want value", k)
		}
	}
	for _, k := range []int{6, 12} {
		if res.Retention[k] != nil {
			t.Errorf("retention[%d] = %d, want nil before checkpoint month", k, *res.Retention[k])
		}
	}
}

func TestCompute_NonIncreasing(t *testing.T) {
	res, err := Compute(januaryCohort(t), model.Month{Year: 2025, Month: 1}, mustDate(t, "2026-06-01"), pricing)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	prev := math.MaxInt
	for _, k := range Offsets {
		v := retention(t, res, k)
		if v > prev {
			t.Fatalf("retention[%d] = %d rose above previous checkpoint %d", k, v, prev)
		}
		prev = v
	}
	if retention(t, res, 12) > retention(t, res, 1) {
		t.Fatal("retention[12] > retention[1]")
	}
}

func TestCompute_LTV(t *testing.T) {
	res, err := Compute(januaryCohort(t), model.Month{Year: 2025, Month: 1}, mustDate(t, "2026-06-01"), pricing)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// 15 monthly members at 1000/month plus 5 yearly members at 12000/12, each over 12 months.
	want := 15*1000*12.0 + 5*1000*12.0
	if res.EstimatedLTV != want {
		t.Errorf("EstimatedLTV = %v, want %v", res.EstimatedLTV, want)
	}
	if res.AverageLTV != want/20 {
		t.Errorf("AverageLTV = %v, want %v", res.AverageLTV, want/20)
	}
}

func TestCompute_NoCohortData(t *testing.T) {
	_, err := Compute(januaryCohort(t), model.Month{Year: 2024, Month: 12}, mustDate(t, "2026-01-01"), pricing)
	if !errors.Is(err, ErrNoCohortData) {
		t.Fatalf("err = %v, want ErrNoCohortData", err)
	}
}

func TestComputeRange_SkipsEmptyMonths(t *testing.T) {
	got := ComputeRange(januaryCohort(t), model.Month{Year: 2024, Month: 11}, model.Month{Year: 2025, Month: 3}, mustDate(t, "2026-01-01"), pricing)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (Jan and Feb)", len(got))
	}
	if got[0].Period.String() != "2025-01" || got[1].Period.String() != "2025-02" {
		t.Errorf("periods = %s, %s; want 2025-01, 2025-02", got[0].Period, got[1].Period)
	}
}
