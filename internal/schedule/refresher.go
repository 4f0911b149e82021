package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/guarzo/bidgap/internal/batch"
	"github.com/guarzo/bidgap/internal/model"
	"github.com/guarzo/bidgap/internal/pricing"
)

// Store is the product storage surface a refresh cycle needs.
type Store interface {
	StaleProducts(maxAge time.Duration) []model.Product
	Put(p model.Product) error
}

// Refresher periodically re-researches stale products and recomputes their
// derived prices on a cron schedule.
type Refresher struct {
	store      Store
	runner     *batch.Runner
	researcher batch.Researcher
	fees       pricing.FeeModel
	maxAge     time.Duration
	log        zerolog.Logger

	cron *cron.Cron
	id   cron.EntryID
}

// NewRefresher wires a refresher over the given collaborators. maxAge
// decides which products count as stale each cycle.
func NewRefresher(store Store, runner *batch.Runner, r batch.Researcher, fees pricing.FeeModel, maxAge time.Duration, log zerolog.Logger) *Refresher {
	return &Refresher{
		store:      store,
		runner:     runner,
		researcher: r,
		fees:       fees,
		maxAge:     maxAge,
		log:        log,
	}
}

// Start schedules refresh cycles on the given cron expression and runs
// them until Stop. The first cycle fires on schedule, not immediately; call
// RunOnce first for an eager pass.
func (r *Refresher) Start(ctx context.Context, spec string) error {
	if r.cron != nil {
		return fmt.Errorf("refresher already started")
	}
	c := cron.New()
	id, err := c.AddFunc(spec, func() {
		if err := r.RunOnce(ctx); err != nil {
			r.log.Error().Err(err).Msg("scheduled refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("bad cron spec %q: %w", spec, err)
	}
	r.cron = c
	r.id = id
	c.Start()
	r.log.Info().Str("spec", spec).Msg("refresh schedule started")
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}

// RunOnce performs a single refresh cycle: research every stale product,
// recompute its derived prices, and persist the result. Products whose
// research fails are recomputed anyway so a vanished price signal clears
// the stale derived values.
func (r *Refresher) RunOnce(ctx context.Context) error {
	records := r.store.StaleProducts(r.maxAge)
	if len(records) == 0 {
		r.log.Debug().Msg("no stale products")
		return nil
	}
	r.log.Info().Int("count", len(records)).Msg("refreshing stale products")

	stale := make([]*model.Product, len(records))
	for i := range records {
		stale[i] = &records[i]
	}

	research := batch.ResearchAll(ctx, r.runner, r.researcher, stale)
	calc := batch.NewCalculator(r.runner, r.fees).Run(ctx, stale, nil)

	var failed int
	for _, p := range stale {
		if err := r.store.Put(*p); err != nil {
			failed++
			r.log.Warn().Err(err).Str("upc", p.UPC).Msg("persist failed")
		}
	}

	r.log.Info().
		Int("researched", research.Succeeded).
		Int("research_failed", research.Failed).
		Int("priced", calc.Succeeded).
		Int("insufficient", calc.Skipped).
		Dur("elapsed", research.Elapsed+calc.Elapsed).
		Msg("refresh cycle complete")

	if failed > 0 {
		return fmt.Errorf("refresh: %d of %d products failed to persist", failed, len(stale))
	}
	return ctx.Err()
}
