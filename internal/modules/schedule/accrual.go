package schedule

import (
	"time"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/utils"
)

// AccruedInterest computes the pro-rata coupon earned inside the single
// period with start <= valuation date < observation date. Zero when the
// valuation date sits outside every open period, e.g. between an
// observation date and its payment date.
func AccruedInterest(periods []domain.CouponPeriod, valuationDate time.Time) float64 {
	day := utils.Midnight(valuationDate)
	for _, period := range periods {
		start := utils.Midnight(period.Start)
		obs := utils.Midnight(period.Observation)
		if !day.Before(start) && day.Before(obs) {
			if period.AccrualDays <= 0 {
				return 0
			}
			elapsed := utils.DaysBetween(period.Start, valuationDate)
			return period.Coupon * float64(elapsed) / float64(period.AccrualDays)
		}
	}
	return 0
}

// PendingCoupons sums the full coupons already fixed but not yet paid:
// observation date on or before the valuation date, payment date after it.
func PendingCoupons(periods []domain.CouponPeriod, valuationDate time.Time) float64 {
	var pending float64
	for _, period := range periods {
		if utils.OnOrBefore(period.Observation, valuationDate) &&
			!utils.OnOrBefore(period.Payment, valuationDate) {
			pending += period.Coupon
		}
	}
	return pending
}

// RealizedCoupons sums the full coupons whose payment date has passed.
// maxPeriod caps the scan for autocalled notes (-1 scans every period).
func RealizedCoupons(periods []domain.CouponPeriod, valuationDate time.Time, maxPeriod int) float64 {
	var realized float64
	for i, period := range periods {
		if maxPeriod >= 0 && i > maxPeriod {
			break
		}
		if utils.OnOrBefore(period.Payment, valuationDate) {
			realized += period.Coupon
		}
	}
	return realized
}
