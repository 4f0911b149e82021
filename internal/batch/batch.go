package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guarzo/bidgap/internal/model"
	"github.com/guarzo/bidgap/internal/pricing"
)

// Summary reports the outcome of a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Skipped counts products that processed cleanly but produced no
	// usable result, e.g. derivation with no price observations.
	Skipped int
	Errors  map[string]error
	Elapsed time.Duration
}

// Runner fans products out to a fixed pool of workers. Job functions own
// their product exclusively for the duration of the call; the runner never
// touches two products from the same job concurrently.
type Runner struct {
	workers int
	log     zerolog.Logger

	// OnProgress, when set, is called after each job completes with the
	// number done so far and the total. Calls may come from any worker.
	OnProgress func(done, total int)
}

// NewRunner builds a runner with the given worker count. Zero or negative
// means one worker per CPU, capped at 8.
func NewRunner(workers int, log zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	return &Runner{workers: workers, log: log}
}

// Status distinguishes a clean result from a clean non-result.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
)

// Job processes one product. Returning StatusSkipped with a nil error
// marks the product as processed but without a usable outcome.
type Job func(ctx context.Context, p *model.Product) (Status, error)

// Run applies fn to every product concurrently and collects a summary.
// Context cancellation stops dispatching; in-flight jobs finish.
func (r *Runner) Run(ctx context.Context, products []*model.Product, fn Job) Summary {
	start := time.Now()
	sum := Summary{Total: len(products), Errors: map[string]error{}}
	if len(products) == 0 {
		return sum
	}

	jobs := make(chan *model.Product)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				st, err := fn(ctx, p)
				mu.Lock()
				switch {
				case err != nil:
					sum.Failed++
					sum.Errors[p.UPC] = err
				case st == StatusSkipped:
					sum.Skipped++
				default:
					sum.Succeeded++
				}
				done := sum.Failed + sum.Skipped + sum.Succeeded
				mu.Unlock()
				if r.OnProgress != nil {
					r.OnProgress(done, sum.Total)
				}
				if err != nil {
					r.log.Warn().Err(err).Str("upc", p.UPC).Msg("batch job failed")
				}
			}
		}()
	}

dispatch:
	for _, p := range products {
		select {
		case jobs <- p:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	sum.Elapsed = time.Since(start)
	return sum
}

// Calculator derives pricing outputs for products in bulk.
type Calculator struct {
	runner *Runner
	fees   pricing.FeeModel
}

// NewCalculator builds a calculator over the given fee model.
func NewCalculator(runner *Runner, fees pricing.FeeModel) *Calculator {
	return &Calculator{runner: runner, fees: fees}
}

// Run derives the representative price, recommended bid, and current
// margin for each product and writes them back onto the record. bids maps
// UPC to the live auction bid; products without an entry get no margin.
// Products with no price observations at all count as skipped.
func (c *Calculator) Run(ctx context.Context, products []*model.Product, bids map[string]pricing.Amount) Summary {
	return c.runner.Run(ctx, products, func(_ context.Context, p *model.Product) (Status, error) {
		d := pricing.Derive(p.Observations(), bids[p.UPC], c.fees)
		p.ApplyDerived(d)
		if d.InsufficientData() {
			return StatusSkipped, nil
		}
		return StatusOK, nil
	})
}

// Researcher is the part of the research orchestrator batch runs need.
type Researcher interface {
	Research(ctx context.Context, p *model.Product) error
}

// ResearchAll runs market research for every product through the pool.
// Products the providers could not answer keep their old data; only hard
// errors count as failures.
func ResearchAll(ctx context.Context, runner *Runner, r Researcher, products []*model.Product) Summary {
	return runner.Run(ctx, products, func(ctx context.Context, p *model.Product) (Status, error) {
		if err := r.Research(ctx, p); err != nil {
			return StatusOK, err
		}
		return StatusOK, nil
	})
}
