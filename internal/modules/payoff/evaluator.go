// Package payoff walks simulated paths through the autocall and
// worst-of knock-in rules of a fixed coupon note and accumulates the
// per-path outcomes into Monte Carlo estimates.
package payoff

import (
	"github.com/aristath/quantnote/internal/domain"
)

// Note holds the payoff terms resolved once per valuation
type Note struct {
	initial       []float64
	triggerLevels []float64 // initial spot * trigger fraction
	strikePct     float64
	denomination  float64
	coupons       []float64 // full coupon per remaining period
}

// NewNote precomputes payoff terms for the remaining coupon periods
func NewNote(params *domain.PricingParameters, remaining []domain.CouponPeriod) *Note {
	n := len(params.Underlyings)
	note := &Note{
		initial:       make([]float64, n),
		triggerLevels: make([]float64, n),
		strikePct:     params.StrikePct,
		denomination:  params.Denomination,
		coupons:       make([]float64, len(remaining)),
	}
	for i, u := range params.Underlyings {
		note.initial[i] = u.InitialSpot
		note.triggerLevels[i] = u.InitialSpot * params.TriggerPct
	}
	for k, period := range remaining {
		note.coupons[k] = period.Coupon
	}
	return note
}

// Outcome is the cash result of one simulated path
type Outcome struct {
	Coupons        float64
	Principal      float64
	CallPeriod     int // remaining-period index of redemption, -1 on knock-in
	Early          bool
	Terminal       bool
	KnockedIn      bool
	WorstAsset     int // -1 unless knocked in
	ExposureValue  float64
	ExposureShares float64
}

// Evaluate walks one path across the remaining observation dates.
// Coupons accrue unconditionally until the note redeems. When every
// underlying sits at or above its trigger level the path autocalls with
// full principal; a path reaching the final date without triggering
// redeems against the worst performer, at par on or above the strike and
// at denomination * ratio / strike below it, the shortfall attributed to
// the worst underlying.
func (n *Note) Evaluate(grid [][]float64) Outcome {
	out := Outcome{CallPeriod: -1, WorstAsset: -1}
	last := len(n.coupons) - 1

	for k := range n.coupons {
		out.Coupons += n.coupons[k]

		if n.allAboveTrigger(grid[k]) {
			out.Principal = n.denomination
			out.CallPeriod = k
			if k < last {
				out.Early = true
			} else {
				out.Terminal = true
			}
			return out
		}

		if k == last {
			worst, ratio := worstPerformer(grid[k], n.initial)
			if ratio >= n.strikePct {
				out.Principal = n.denomination
				out.CallPeriod = k
				out.Terminal = true
			} else {
				out.KnockedIn = true
				out.WorstAsset = worst
				out.Principal = n.denomination * ratio / n.strikePct
				out.ExposureValue = out.Principal
				out.ExposureShares = n.denomination / (n.initial[worst] * n.strikePct)
			}
		}
	}
	return out
}

func (n *Note) allAboveTrigger(prices []float64) bool {
	for i, price := range prices {
		if price < n.triggerLevels[i] {
			return false
		}
	}
	return true
}

// worstPerformer returns the index and performance ratio of the worst
// underlying. Ties keep the first asset in input order.
func worstPerformer(prices, initial []float64) (int, float64) {
	worst := 0
	ratio := prices[0] / initial[0]
	for i := 1; i < len(prices); i++ {
		if r := prices[i] / initial[i]; r < ratio {
			worst = i
			ratio = r
		}
	}
	return worst, ratio
}
