// Package schedule builds coupon periods and accrual amounts for a note.
package schedule

import (
	"time"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/utils"
)

// Build derives the ordered coupon periods from the pricing parameters.
// Period i runs from the previous observation date (the trade date for the
// first period) to observation date i and pays on payment date i.
func Build(p *domain.PricingParameters) []domain.CouponPeriod {
	periods := make([]domain.CouponPeriod, 0, len(p.ObservationDates))

	start := p.TradeDate
	for i, obs := range p.ObservationDates {
		days := utils.DaysBetween(start, obs)

		var coupon float64
		if p.CouponFrequency > 0 && !p.ActDayCount {
			coupon = p.Denomination * p.CouponRate / p.CouponFrequency
		} else {
			coupon = p.Denomination * p.CouponRate * float64(days) / utils.DaysInYear
		}

		periods = append(periods, domain.CouponPeriod{
			Start:       start,
			Observation: obs,
			Payment:     p.PaymentDates[i],
			AccrualDays: days,
			Coupon:      coupon,
		})
		start = obs
	}
	return periods
}

// Remaining returns the periods whose observation date is strictly after
// the valuation date. These are the periods the simulation still covers.
func Remaining(periods []domain.CouponPeriod, valuationDate time.Time) []domain.CouponPeriod {
	for i, period := range periods {
		if utils.Midnight(period.Observation).After(utils.Midnight(valuationDate)) {
			return periods[i:]
		}
	}
	return nil
}
