// Package lifecycle reconciles a note against realized historical fixings.
package lifecycle

import (
	"time"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/utils"
	"github.com/rs/zerolog"
)

// FixingLookbackDays is how far back the classifier searches for the
// nearest prior close when the exact observation date has no fixing.
const FixingLookbackDays = 5

// FixingSource supplies historical daily closes. Implementations return
// ok=false when no close exists for the exact date requested.
type FixingSource interface {
	CloseOn(ticker string, date time.Time) (float64, bool)
}

// Classifier determines which lifecycle state a note occupies as of a
// valuation date
type Classifier struct {
	log zerolog.Logger
}

// NewClassifier creates a new lifecycle classifier
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		log: log.With().Str("component", "lifecycle").Logger(),
	}
}

// Classify examines the coupon periods against the supplied fixings.
// A nil fixing source disables autocall reconciliation entirely, so the
// note is Active unless it has expired. A missing fixing means the
// trigger condition is treated as not met for that asset on that date.
func (c *Classifier) Classify(
	params *domain.PricingParameters,
	periods []domain.CouponPeriod,
	valuationDate time.Time,
	fixings FixingSource,
) domain.Lifecycle {
	if !utils.OnOrBefore(valuationDate, params.FinalPaymentDate()) {
		return domain.Lifecycle{State: domain.StateExpired, TriggeredPeriod: -1}
	}

	if fixings != nil {
		for i, period := range periods {
			if !utils.OnOrBefore(period.Observation, valuationDate) {
				break
			}
			if c.triggeredOn(params, period.Observation, fixings) {
				c.log.Debug().
					Int("period", i).
					Time("observation", period.Observation).
					Msg("Autocall trigger confirmed by historical fixings")
				return domain.Lifecycle{State: domain.StateAutocalled, TriggeredPeriod: i}
			}
		}
	}

	return domain.Lifecycle{State: domain.StateActive, TriggeredPeriod: -1}
}

// triggeredOn reports whether every underlying fixed at or above its
// trigger level on the given observation date
func (c *Classifier) triggeredOn(params *domain.PricingParameters, obs time.Time, fixings FixingSource) bool {
	for _, u := range params.Underlyings {
		close, ok := c.lookupClose(u.Ticker, obs, fixings)
		if !ok {
			// No data cannot confirm the barrier for this date
			return false
		}
		if close < u.InitialSpot*params.TriggerPct {
			return false
		}
	}
	return true
}

// lookupClose finds the close for a date, walking back up to
// FixingLookbackDays calendar days for the nearest prior close
func (c *Classifier) lookupClose(ticker string, date time.Time, fixings FixingSource) (float64, bool) {
	day := utils.Midnight(date)
	for back := 0; back <= FixingLookbackDays; back++ {
		if close, ok := fixings.CloseOn(ticker, day.AddDate(0, 0, -back)); ok {
			return close, true
		}
	}
	return 0, false
}
