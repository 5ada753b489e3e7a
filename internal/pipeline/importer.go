package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/source"
)

// Sink is the record store an import writes to.
type Sink interface {
	SaveCustomers(ctx context.Context, customers []model.Customer) error
	SaveActual(ctx context.Context, a model.ActualRecord) error
	SaveDaily(ctx context.Context, d model.DailyActual) (string, error)
	SaveTargets(ctx context.Context, targets []model.TargetRecord) error
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Records     source.Records
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	ParseErrors int
	Problems    []string
}

// ParseFiles parses files on a bounded worker pool and merges the records in
// file order.
func ParseFiles(files []source.DiscoveredFile, progressFn ProgressFunc) *ImportResult {
	result := &ImportResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result
	}

	numWorkers := min(max(runtime.GOMAXPROCS(0), 1), len(files))

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}
	wg.Wait()

	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			result.Problems = append(result.Problems, fmt.Sprintf("%s: %v", files[i].Path, pr.Err))
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		for _, p := range pr.Problems {
			result.Problems = append(result.Problems, fmt.Sprintf("%s: %s", files[i].Path, p))
		}
		result.Records.Merge(pr.Records)
	}
	return result
}

// Save writes records to sink. Customers and targets go in one batch each;
// actuals and daily reports one at a time.
func Save(ctx context.Context, sink Sink, r source.Records) error {
	if len(r.Customers) > 0 {
		if err := sink.SaveCustomers(ctx, r.Customers); err != nil {
			return fmt.Errorf("saving customers: %w", err)
		}
	}
	for _, a := range r.Actuals {
		if err := sink.SaveActual(ctx, a); err != nil {
			return fmt.Errorf("saving actuals %s: %w", a.Month, err)
		}
	}
	for _, d := range r.Daily {
		if _, err := sink.SaveDaily(ctx, d); err != nil {
			return fmt.Errorf("saving daily report %s: %w", d.Date.Format("2006-01-02"), err)
		}
	}
	if len(r.Targets) > 0 {
		if err := sink.SaveTargets(ctx, r.Targets); err != nil {
			return fmt.Errorf("saving targets: %w", err)
		}
	}
	return nil
}
