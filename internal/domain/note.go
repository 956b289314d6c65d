// Package domain provides core domain models and types.
package domain

import "time"

// DividendPayment represents a single discrete cash dividend
type DividendPayment struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"`
}

// Underlying represents one underlying equity of a structured note
type Underlying struct {
	Ticker      string            `json:"ticker"`
	InitialSpot float64           `json:"initial_spot"`
	CurrentSpot float64           `json:"current_spot,omitempty"` // 0 = fall back to InitialSpot
	Dividends   []DividendPayment `json:"dividends,omitempty"`    // ordered by ex-date
}

// StartSpot returns the spot price simulations start from
func (u Underlying) StartSpot() float64 {
	if u.CurrentSpot > 0 {
		return u.CurrentSpot
	}
	return u.InitialSpot
}

// PricingParameters is the immutable input of a fixed coupon note valuation.
// ObservationDates and PaymentDates are parallel, strictly increasing, and
// PaymentDates[i] >= ObservationDates[i] for all i.
type PricingParameters struct {
	Name     string  `json:"name,omitempty"`
	Market   string  `json:"market,omitempty"`
	Currency string  `json:"currency,omitempty"`
	FXRate   float64 `json:"fx_rate,omitempty"` // pass-through metadata

	Notional     float64 `json:"notional"`
	Denomination float64 `json:"denomination"` // per-unit face value

	Underlyings []Underlying `json:"underlyings"`

	TradeDate        time.Time   `json:"trade_date"`
	ObservationDates []time.Time `json:"observation_dates"`
	PaymentDates     []time.Time `json:"payment_dates"`

	StrikePct  float64 `json:"strike_pct"`  // knock-in strike fraction of initial spot
	TriggerPct float64 `json:"trigger_pct"` // autocall trigger fraction of initial spot

	CouponRate      float64 `json:"coupon_rate"`                // annualized
	CouponFrequency float64 `json:"coupon_frequency,omitempty"` // periods per year; 0 = use day counts
	ActDayCount     bool    `json:"act_day_count,omitempty"`    // accrue act/365.25 instead of rate/frequency

	RiskFreeRate float64 `json:"risk_free_rate"`

	Paths        int         `json:"paths"`
	Volatilities []float64   `json:"volatilities,omitempty"` // per asset; nil = flat default
	Correlations [][]float64 `json:"correlations,omitempty"` // nil = default matrix
	Seed         *uint64     `json:"seed,omitempty"`         // nil = entropy from the clock
}

// DefaultVolatility is used for every asset when no volatilities are supplied
const DefaultVolatility = 0.30

// DefaultOffDiagonalCorrelation fills the off-diagonal of the default matrix
const DefaultOffDiagonalCorrelation = 0.5

// ResolveVolatilities returns the per-asset volatility vector, applying the
// flat default when none was supplied
func (p *PricingParameters) ResolveVolatilities() []float64 {
	n := len(p.Underlyings)
	if len(p.Volatilities) == n && n > 0 {
		return p.Volatilities
	}
	vols := make([]float64, n)
	for i := range vols {
		vols[i] = DefaultVolatility
	}
	return vols
}

// ResolveCorrelations returns the correlation matrix, building the default
// (unit diagonal, 0.5 off-diagonal) when none was supplied
func (p *PricingParameters) ResolveCorrelations() [][]float64 {
	n := len(p.Underlyings)
	if len(p.Correlations) == n && n > 0 {
		return p.Correlations
	}
	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
		for j := range corr[i] {
			if i == j {
				corr[i][j] = 1.0
			} else {
				corr[i][j] = DefaultOffDiagonalCorrelation
			}
		}
	}
	return corr
}

// FinalPaymentDate returns the last payment date of the note
func (p *PricingParameters) FinalPaymentDate() time.Time {
	return p.PaymentDates[len(p.PaymentDates)-1]
}

// CouponPeriod is one coupon accrual period, built once from the parameters
// and immutable afterwards
type CouponPeriod struct {
	Start       time.Time `json:"start"`       // previous observation date, or trade date
	Observation time.Time `json:"observation"` // barrier/trigger fixing date
	Payment     time.Time `json:"payment"`
	AccrualDays int       `json:"accrual_days"`
	Coupon      float64   `json:"coupon"` // full coupon amount for the period
}
