package pipeline

import (
	_ "embed"
	"sort"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/source"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// Fallback returns the built-in default dataset, marked as fallback.
func Fallback() (*Dataset, error) {
	res := source.Parse(fallbackYAML, source.FormatYAML)
	if res.Err != nil {
		return nil, res.Err
	}
	ds := FromRecords(res.Records)
	ds.Fallback = true
	return ds, nil
}

// FromRecords builds a dataset spanning every month the records mention.
func FromRecords(r source.Records) *Dataset {
	seen := make(map[model.Month]bool)
	ds := newDataset(nil)
	ds.Customers = r.Customers
	for _, a := range r.Actuals {
		ds.Actuals[a.Month] = a
		seen[a.Month] = true
	}
	for _, d := range r.Daily {
		m := model.MonthOf(d.Date)
		ds.Daily[m] = append(ds.Daily[m], d)
		seen[m] = true
	}
	for _, t := range r.Targets {
		ds.Targets[t.Period] = append(ds.Targets[t.Period], t)
		seen[t.Period] = true
	}
	for m := range seen {
		ds.Months = append(ds.Months, m)
	}
	sort.Slice(ds.Months, func(i, j int) bool { return ds.Months[i].Before(ds.Months[j]) })
	for m := range ds.Daily {
		days := ds.Daily[m]
		sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	}
	return ds
}
