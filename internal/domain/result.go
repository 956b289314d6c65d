package domain

import "time"

// LifecycleState classifies a note as of a valuation date
type LifecycleState string

const (
	// StateActive - the note is alive and may still autocall or knock in
	StateActive LifecycleState = "ACTIVE"
	// StateAutocalled - a historical observation already triggered early redemption
	StateAutocalled LifecycleState = "AUTOCALLED"
	// StateExpired - the valuation date is past the final payment date
	StateExpired LifecycleState = "EXPIRED"
)

// Lifecycle is the classifier output. TriggeredPeriod is the index of the
// coupon period whose observation triggered the autocall, or -1.
type Lifecycle struct {
	State           LifecycleState `json:"state"`
	TriggeredPeriod int            `json:"triggered_period"`
}

// ValuationResult is the complete output of one valuation call.
// Produced fresh on every call and never mutated afterwards.
type ValuationResult struct {
	State         LifecycleState `json:"state"`
	ValuationDate time.Time      `json:"valuation_date"`

	DirtyPrice      float64 `json:"dirty_price"`
	CleanPrice      float64 `json:"clean_price"`
	AccruedInterest float64 `json:"accrued_interest"`

	RealizedCoupons float64 `json:"realized_coupons"` // already paid out
	PendingCouponPV float64 `json:"pending_coupon_pv"`
	FutureCouponPV  float64 `json:"future_coupon_pv"`
	PrincipalPV     float64 `json:"principal_pv"`
	ImpliedLoss     float64 `json:"implied_loss"` // denomination - principal PV

	EarlyRedemptionProb  float64 `json:"early_redemption_prob"`
	TerminalAutocallProb float64 `json:"terminal_autocall_prob"`
	KnockInProb          float64 `json:"knock_in_prob"`

	// LossAttribution[i] is the fraction of all paths on which underlying i
	// was the worst performer on a knocked-in path. Sums to KnockInProb.
	LossAttribution []float64 `json:"loss_attribution,omitempty"`
	// AutocallAttribution[k] is the fraction of all paths redeemed out of
	// remaining period k. Sums to EarlyRedemptionProb + TerminalAutocallProb.
	AutocallAttribution []float64 `json:"autocall_attribution,omitempty"`

	// Expected (not conditional) physical-delivery exposure per underlying
	ExposureValue  []float64 `json:"exposure_value,omitempty"`
	ExposureShares []float64 `json:"exposure_shares,omitempty"`

	Paths int    `json:"paths"`
	Seed  uint64 `json:"seed"`

	Name   string  `json:"name,omitempty"`
	Market string  `json:"market,omitempty"`
	FXRate float64 `json:"fx_rate,omitempty"`
}
