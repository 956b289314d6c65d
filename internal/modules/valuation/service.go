// Package valuation assembles fixed coupon note valuations from the
// schedule, lifecycle, simulation and payoff stages.
package valuation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/modules/lifecycle"
	"github.com/aristath/quantnote/internal/modules/payoff"
	"github.com/aristath/quantnote/internal/modules/schedule"
	"github.com/aristath/quantnote/internal/modules/simulation"
	"github.com/aristath/quantnote/internal/utils"
)

// Service values fixed coupon notes
type Service struct {
	classifier   *lifecycle.Classifier
	defaultPaths int
	workers      int
	log          zerolog.Logger
}

// NewService creates a valuation service. defaultPaths is used when a
// request does not carry a path count; workers bounds the simulation
// fan-out (minimum one).
func NewService(classifier *lifecycle.Classifier, defaultPaths, workers int, log zerolog.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		classifier:   classifier,
		defaultPaths: defaultPaths,
		workers:      workers,
		log:          log.With().Str("service", "valuation").Logger(),
	}
}

// Value produces a valuation snapshot for one note as of one date.
// fixings may be nil, which disables historical autocall reconciliation.
func (s *Service) Value(
	ctx context.Context,
	params *domain.PricingParameters,
	valuationDate time.Time,
	fixings lifecycle.FixingSource,
) (*domain.ValuationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	timer := utils.NewTimer("value_fcn", s.log)
	defer timer.Stop()

	periods := schedule.Build(params)
	life := s.classifier.Classify(params, periods, valuationDate, fixings)

	result := &domain.ValuationResult{
		State:         life.State,
		ValuationDate: utils.Midnight(valuationDate),
		Name:          params.Name,
		Market:        params.Market,
		FXRate:        params.FXRate,
	}

	switch life.State {
	case domain.StateExpired:
		result.RealizedCoupons = schedule.RealizedCoupons(periods, valuationDate, -1)
		return result, nil

	case domain.StateAutocalled:
		settled := periods[:life.TriggeredPeriod+1]
		result.RealizedCoupons = schedule.RealizedCoupons(settled, valuationDate, -1)
		result.PendingCouponPV = schedule.PendingCoupons(settled, valuationDate)
		if !utils.OnOrBefore(settled[life.TriggeredPeriod].Payment, valuationDate) {
			result.PrincipalPV = params.Denomination
		}
		result.DirtyPrice = result.PendingCouponPV + result.PrincipalPV
		result.CleanPrice = result.DirtyPrice - result.PendingCouponPV
		return result, nil
	}

	// Active
	result.RealizedCoupons = schedule.RealizedCoupons(periods, valuationDate, -1)
	result.PendingCouponPV = schedule.PendingCoupons(periods, valuationDate)
	result.AccruedInterest = schedule.AccruedInterest(periods, valuationDate)

	remaining := schedule.Remaining(periods, valuationDate)
	if len(remaining) == 0 {
		// Between the final observation and its payment date
		result.PrincipalPV = params.Denomination
		result.DirtyPrice = params.Denomination + result.PendingCouponPV
		result.CleanPrice = result.DirtyPrice - result.AccruedInterest - result.PendingCouponPV
		return result, nil
	}

	totals, paths, seed, err := s.simulate(ctx, params, valuationDate, remaining)
	if err != nil {
		return nil, err
	}

	result.Paths = paths
	result.Seed = seed
	result.FutureCouponPV = totals.FutureCouponPV
	result.PrincipalPV = totals.PrincipalPV
	result.EarlyRedemptionProb = totals.EarlyRedemptionProb
	result.TerminalAutocallProb = totals.TerminalAutocallProb
	result.KnockInProb = totals.KnockInProb
	result.LossAttribution = totals.LossAttribution
	result.AutocallAttribution = totals.AutocallAttribution
	result.ExposureValue = totals.ExposureValue
	result.ExposureShares = totals.ExposureShares

	result.DirtyPrice = result.FutureCouponPV + result.PrincipalPV + result.PendingCouponPV
	result.CleanPrice = result.DirtyPrice - result.AccruedInterest - result.PendingCouponPV
	result.ImpliedLoss = params.Denomination - result.PrincipalPV

	return result, nil
}

// simulate runs the Monte Carlo loop partitioned across workers. Every
// worker owns a private path generator seeded from the base seed and its
// partition index, plus a private aggregator; the sub-aggregators are
// merged after the barrier. A fixed seed with a fixed worker count is
// bit-for-bit reproducible.
func (s *Service) simulate(
	ctx context.Context,
	params *domain.PricingParameters,
	valuationDate time.Time,
	remaining []domain.CouponPeriod,
) (payoff.Totals, int, uint64, error) {
	trials := params.Paths
	if trials == 0 {
		trials = s.defaultPaths
	}
	if trials < 1 {
		return payoff.Totals{}, 0, 0, domain.NewConfigError(
			"path count must be positive, got %d", trials)
	}

	var seed uint64
	if params.Seed != nil {
		seed = *params.Seed
	} else {
		seed = uint64(time.Now().UnixNano())
		s.log.Warn().
			Uint64("seed", seed).
			Msg("No seed supplied, results are not reproducible across runs")
	}

	lower, err := simulation.Factorize(params.ResolveCorrelations())
	if err != nil {
		return payoff.Totals{}, 0, 0, err
	}

	vols := params.ResolveVolatilities()
	note := payoff.NewNote(params, remaining)

	observations := make([]time.Time, len(remaining))
	for k, period := range remaining {
		observations[k] = period.Observation
	}

	workers := s.workers
	if workers > trials {
		workers = trials
	}

	aggs := make([]*payoff.Aggregator, workers)
	errs := make([]error, workers)
	counts := partition(trials, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			gen := simulation.NewPathGenerator(
				params.Underlyings, vols, params.RiskFreeRate,
				lower, valuationDate, observations,
				seed, uint64(w)+1,
			)
			agg := payoff.NewAggregator(len(params.Underlyings), len(remaining))
			grid := gen.NewGrid()

			for t := 0; t < counts[w]; t++ {
				if err := ctx.Err(); err != nil {
					errs[w] = err
					return
				}
				gen.Generate(grid)
				agg.Add(note.Evaluate(grid))
			}
			aggs[w] = agg
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return payoff.Totals{}, 0, 0, err
		}
	}

	merged := aggs[0]
	for _, agg := range aggs[1:] {
		merged.Merge(agg)
	}

	s.log.Debug().
		Int("trials", trials).
		Int("workers", workers).
		Uint64("seed", seed).
		Msg("Monte Carlo simulation complete")

	return merged.Finalize(trials), trials, seed, nil
}

// partition splits trials across workers, spreading the remainder over
// the leading partitions
func partition(trials, workers int) []int {
	counts := make([]int, workers)
	base := trials / workers
	rem := trials % workers
	for w := range counts {
		counts[w] = base
		if w < rem {
			counts[w]++
		}
	}
	return counts
}
