// Package source discovers and parses dataset import files (YAML datasets and
// JSONL record exports).
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"github.com/subdash/subdash/internal/model"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSONL.
var ErrUnsupportedFormat = errors.New("source: unsupported file format")

const dayLayout = "2006-01-02"

// Records is a parsed, validated set of records ready to store.
type Records struct {
	Customers []model.Customer
	Actuals   []model.ActualRecord
	Daily     []model.DailyActual
	Targets   []model.TargetRecord
}

// Len returns the total number of records.
func (r Records) Len() int {
	return len(r.Customers) + len(r.Actuals) + len(r.Daily) + len(r.Targets)
}

// Merge appends o's records to r.
func (r *Records) Merge(o Records) {
	r.Customers = append(r.Customers, o.Customers...)
	r.Actuals = append(r.Actuals, o.Actuals...)
	r.Daily = append(r.Daily, o.Daily...)
	r.Targets = append(r.Targets, o.Targets...)
}

// ParseResult holds the output of parsing one file.
type ParseResult struct {
	Records     Records
	ParseErrors int
	Problems    []string // one line per rejected entry
	Err         error
}

func (r *ParseResult) reject(where string, err error) {
	r.ParseErrors++
	r.Problems = append(r.Problems, fmt.Sprintf("%s: %v", where, err))
}

// ParseFile reads and parses an import file. Invalid entries are skipped and
// counted; Err is set only when the file as a whole cannot be read.
func ParseFile(df DiscoveredFile) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	return Parse(data, df.Format)
}

// Parse parses data in the given format.
func Parse(data []byte, format Format) ParseResult {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSONL:
		return parseJSONL(bytes.NewReader(data))
	}
	return ParseResult{Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
}

func parseYAML(data []byte) ParseResult {
	var raw RawDataset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ParseResult{Err: fmt.Errorf("parsing yaml: %w", err)}
	}

	var res ParseResult
	for i, rc := range raw.Customers {
		res.addCustomer(fmt.Sprintf("customers[%d]", i), rc)
	}
	for i, ra := range raw.Actuals {
		res.addActual(fmt.Sprintf("actuals[%d]", i), ra)
	}
	for i, rd := range raw.Daily {
		res.addDaily(fmt.Sprintf("daily[%d]", i), rd)
	}
	for i, rt := range raw.Targets {
		res.addTarget(fmt.Sprintf("targets[%d]", i), rt)
	}
	return res
}

// parseJSONL routes each line by its top-level "type" field:
// customer, actual, daily, or target. Other types are skipped.
func parseJSONL(r io.Reader) ParseResult {
	var res ParseResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		where := fmt.Sprintf("line %d", lineNo)

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &head); err != nil {
			res.reject(where, err)
			continue
		}

		var err error
		switch head.Type {
		case "customer":
			var rc RawCustomer
			if err = json.Unmarshal(line, &rc); err == nil {
				res.addCustomer(where, rc)
			}
		case "actual":
			var ra RawActual
			if err = json.Unmarshal(line, &ra); err == nil {
				res.addActual(where, ra)
			}
		case "daily":
			var rd RawDaily
			if err = json.Unmarshal(line, &rd); err == nil {
				res.addDaily(where, rd)
			}
		case "target":
			var rt RawTarget
			if err = json.Unmarshal(line, &rt); err == nil {
				res.addTarget(where, rt)
			}
		default:
			continue
		}
		if err != nil {
			res.reject(where, err)
		}
	}
	if err := scanner.Err(); err != nil {
		res.Err = err
	}
	return res
}

func (r *ParseResult) addCustomer(where string, rc RawCustomer) {
	c, err := ConvertCustomer(rc)
	if err != nil {
		r.reject(where, err)
		return
	}
	r.Records.Customers = append(r.Records.Customers, c)
}

func (r *ParseResult) addActual(where string, ra RawActual) {
	a, err := ConvertActual(ra)
	if err != nil {
		r.reject(where, err)
		return
	}
	r.Records.Actuals = append(r.Records.Actuals, a)
}

func (r *ParseResult) addDaily(where string, rd RawDaily) {
	d, err := ConvertDaily(rd)
	if err != nil {
		r.reject(where, err)
		return
	}
	r.Records.Daily = append(r.Records.Daily, d)
}

func (r *ParseResult) addTarget(where string, rt RawTarget) {
	t, err := ConvertTarget(rt)
	if err != nil {
		r.reject(where, err)
		return
	}
	r.Records.Targets = append(r.Records.Targets, t)
}

// ConvertCustomer validates rc. A missing id is filled with a new UUID.
func ConvertCustomer(rc RawCustomer) (model.Customer, error) {
	c := model.Customer{ID: rc.ID, Status: strings.ToLower(rc.Status), PlanType: strings.ToLower(rc.PlanType)}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	var err error
	if c.RegisteredAt, err = parseDay(rc.RegisteredAt); err != nil {
		return c, fmt.Errorf("registered_at: %w", err)
	}

	switch c.Status {
	case model.StatusActive:
	case model.StatusChurned:
		if rc.ChurnedAt == "" {
			return c, errors.New("churned customer has no churned_at")
		}
		t, err := parseDay(rc.ChurnedAt)
		if err != nil {
			return c, fmt.Errorf("churned_at: %w", err)
		}
		if t.Before(c.RegisteredAt) {
			return c, errors.New("churned_at precedes registered_at")
		}
		c.ChurnedAt = &t
	default:
		return c, fmt.Errorf("unknown status %q", rc.Status)
	}

	switch c.PlanType {
	case model.PlanMonthly, model.PlanYearly:
	case "":
		c.PlanType = model.PlanMonthly
	default:
		return c, fmt.Errorf("unknown plan type %q", rc.PlanType)
	}
	return c, nil
}

// ConvertActual validates ra. A channel without a CPA gets cost / acquisitions.
func ConvertActual(ra RawActual) (model.ActualRecord, error) {
	m, err := model.ParseMonth(ra.Month)
	if err != nil {
		return model.ActualRecord{}, err
	}
	if ra.NewAcquisitions < 0 || ra.ChurnCount < 0 || ra.TotalCustomers < 0 {
		return model.ActualRecord{}, errors.New("negative count")
	}
	a := model.ActualRecord{
		Month:           m,
		NewAcquisitions: ra.NewAcquisitions,
		MRR:             ra.MRR,
		ChurnCount:      ra.ChurnCount,
		Expenses:        ra.Expenses,
		TotalCustomers:  ra.TotalCustomers,
	}
	for _, ch := range ra.Channels {
		if ch.Name == "" {
			return a, errors.New("channel without name")
		}
		cpa := ch.CPA
		if cpa == 0 && ch.Acquisitions > 0 {
			cpa = ch.Cost / float64(ch.Acquisitions)
		}
		a.Channels = append(a.Channels, model.ChannelActual{
			Name: ch.Name, Acquisitions: ch.Acquisitions, CPA: cpa, Cost: ch.Cost,
		})
	}
	return a, nil
}

// ConvertDaily validates rd.
func ConvertDaily(rd RawDaily) (model.DailyActual, error) {
	day, err := parseDay(rd.Date)
	if err != nil {
		return model.DailyActual{}, fmt.Errorf("date: %w", err)
	}
	if rd.NewAcquisitions < 0 {
		return model.DailyActual{}, errors.New("negative acquisitions")
	}
	d := model.DailyActual{
		ID:              rd.ID,
		Date:            day,
		NewAcquisitions: rd.NewAcquisitions,
		Revenue:         rd.Revenue,
		Expenses:        rd.Expenses,
	}
	for _, ch := range rd.Channels {
		if ch.Name == "" {
			return d, errors.New("channel without name")
		}
		d.Channels = append(d.Channels, model.ChannelDaily{Name: ch.Name, Acquisitions: ch.Acquisitions, Cost: ch.Cost})
	}
	return d, nil
}

// ConvertTarget validates rt. The unit defaults from the metric.
func ConvertTarget(rt RawTarget) (model.TargetRecord, error) {
	m, err := model.ParseMonth(rt.Period)
	if err != nil {
		return model.TargetRecord{}, err
	}
	if rt.Metric == "" {
		return model.TargetRecord{}, errors.New("target without metric")
	}
	t := model.TargetRecord{Period: m, Metric: model.Metric(rt.Metric), Value: rt.Value, Unit: model.Unit(rt.Unit)}
	switch t.Unit {
	case model.UnitCurrency, model.UnitCount, model.UnitPercentage, model.UnitScore:
	case "":
		t.Unit = model.UnitOf(t.Metric)
	default:
		return t, fmt.Errorf("unknown unit %q", rt.Unit)
	}
	return t, nil
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return model.Date(t.UTC()), nil
}
