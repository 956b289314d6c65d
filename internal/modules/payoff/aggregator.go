package payoff

// Aggregator accumulates path outcomes. Each simulation worker owns one;
// worker results are combined with Merge after all trials finish, so no
// accumulator is ever shared between goroutines.
type Aggregator struct {
	couponSum     float64
	principalSum  float64
	earlyCount    int
	terminalCount int
	knockInCount  int

	lossCounts     []int     // per asset, worst performer on a knocked-in path
	callCounts     []int     // per remaining period
	exposureValue  []float64 // per asset, summed over knocked-in paths
	exposureShares []float64
}

// NewAggregator creates an aggregator sized for the basket and the
// remaining periods
func NewAggregator(assets, periods int) *Aggregator {
	return &Aggregator{
		lossCounts:     make([]int, assets),
		callCounts:     make([]int, periods),
		exposureValue:  make([]float64, assets),
		exposureShares: make([]float64, assets),
	}
}

// Add folds one path outcome into the accumulators
func (a *Aggregator) Add(o Outcome) {
	a.couponSum += o.Coupons
	a.principalSum += o.Principal

	switch {
	case o.Early:
		a.earlyCount++
		a.callCounts[o.CallPeriod]++
	case o.Terminal:
		a.terminalCount++
		a.callCounts[o.CallPeriod]++
	case o.KnockedIn:
		a.knockInCount++
		a.lossCounts[o.WorstAsset]++
		a.exposureValue[o.WorstAsset] += o.ExposureValue
		a.exposureShares[o.WorstAsset] += o.ExposureShares
	}
}

// Merge adds another aggregator's accumulators into this one
func (a *Aggregator) Merge(other *Aggregator) {
	a.couponSum += other.couponSum
	a.principalSum += other.principalSum
	a.earlyCount += other.earlyCount
	a.terminalCount += other.terminalCount
	a.knockInCount += other.knockInCount
	for i := range a.lossCounts {
		a.lossCounts[i] += other.lossCounts[i]
		a.exposureValue[i] += other.exposureValue[i]
		a.exposureShares[i] += other.exposureShares[i]
	}
	for k := range a.callCounts {
		a.callCounts[k] += other.callCounts[k]
	}
}

// Totals are the normalized Monte Carlo estimates. Cash flows stay in the
// note's quoting units without discounting; the risk-free rate only
// enters the simulation drift.
type Totals struct {
	FutureCouponPV float64
	PrincipalPV    float64

	EarlyRedemptionProb  float64
	TerminalAutocallProb float64
	KnockInProb          float64

	LossAttribution     []float64
	AutocallAttribution []float64

	// Expected exposure: summed over knocked-in paths, normalized by the
	// total trial count
	ExposureValue  []float64
	ExposureShares []float64
}

// Finalize normalizes the accumulators by the total trial count
func (a *Aggregator) Finalize(trials int) Totals {
	t := Totals{
		LossAttribution:     make([]float64, len(a.lossCounts)),
		AutocallAttribution: make([]float64, len(a.callCounts)),
		ExposureValue:       make([]float64, len(a.exposureValue)),
		ExposureShares:      make([]float64, len(a.exposureShares)),
	}
	if trials <= 0 {
		return t
	}
	n := float64(trials)

	t.FutureCouponPV = a.couponSum / n
	t.PrincipalPV = a.principalSum / n
	t.EarlyRedemptionProb = float64(a.earlyCount) / n
	t.TerminalAutocallProb = float64(a.terminalCount) / n
	t.KnockInProb = float64(a.knockInCount) / n

	for i := range a.lossCounts {
		t.LossAttribution[i] = float64(a.lossCounts[i]) / n
		t.ExposureValue[i] = a.exposureValue[i] / n
		t.ExposureShares[i] = a.exposureShares[i] / n
	}
	for k := range a.callCounts {
		t.AutocallAttribution[k] = float64(a.callCounts[k]) / n
	}
	return t
}
