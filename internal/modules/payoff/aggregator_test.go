package payoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutcomes() []Outcome {
	return []Outcome{
		{Coupons: 30, Principal: 1000, CallPeriod: 0, Early: true},
		{Coupons: 60, Principal: 1000, CallPeriod: 1, Early: true},
		{Coupons: 90, Principal: 1000, CallPeriod: 2, Terminal: true},
		{Coupons: 90, Principal: 750, CallPeriod: -1, KnockedIn: true, WorstAsset: 1, ExposureValue: 750, ExposureShares: 25},
	}
}

func TestAggregator_Finalize(t *testing.T) {
	agg := NewAggregator(2, 3)
	for _, o := range sampleOutcomes() {
		agg.Add(o)
	}

	totals := agg.Finalize(4)

	assert.InDelta(t, (30+60+90+90)/4.0, totals.FutureCouponPV, 1e-12)
	assert.InDelta(t, (1000+1000+1000+750)/4.0, totals.PrincipalPV, 1e-12)

	assert.InDelta(t, 0.5, totals.EarlyRedemptionProb, 1e-12)
	assert.InDelta(t, 0.25, totals.TerminalAutocallProb, 1e-12)
	assert.InDelta(t, 0.25, totals.KnockInProb, 1e-12)

	require.Len(t, totals.LossAttribution, 2)
	assert.Zero(t, totals.LossAttribution[0])
	assert.InDelta(t, 0.25, totals.LossAttribution[1], 1e-12)

	require.Len(t, totals.AutocallAttribution, 3)
	assert.InDelta(t, 0.25, totals.AutocallAttribution[0], 1e-12)
	assert.InDelta(t, 0.25, totals.AutocallAttribution[1], 1e-12)
	assert.InDelta(t, 0.25, totals.AutocallAttribution[2], 1e-12)

	assert.InDelta(t, 750.0/4, totals.ExposureValue[1], 1e-12)
	assert.InDelta(t, 25.0/4, totals.ExposureShares[1], 1e-12)
}

func TestAggregator_ProbabilitiesPartition(t *testing.T) {
	agg := NewAggregator(2, 3)
	for _, o := range sampleOutcomes() {
		agg.Add(o)
	}
	totals := agg.Finalize(4)

	sum := totals.EarlyRedemptionProb + totals.TerminalAutocallProb + totals.KnockInProb
	assert.InDelta(t, 1.0, sum, 1e-12)

	var lossSum float64
	for _, l := range totals.LossAttribution {
		lossSum += l
	}
	assert.InDelta(t, totals.KnockInProb, lossSum, 1e-12)

	var callSum float64
	for _, c := range totals.AutocallAttribution {
		callSum += c
	}
	assert.InDelta(t, totals.EarlyRedemptionProb+totals.TerminalAutocallProb, callSum, 1e-12)
}

func TestAggregator_MergeMatchesSequentialAccumulation(t *testing.T) {
	outcomes := sampleOutcomes()

	sequential := NewAggregator(2, 3)
	for _, o := range outcomes {
		sequential.Add(o)
	}

	left := NewAggregator(2, 3)
	right := NewAggregator(2, 3)
	left.Add(outcomes[0])
	left.Add(outcomes[1])
	right.Add(outcomes[2])
	right.Add(outcomes[3])
	left.Merge(right)

	assert.Equal(t, sequential.Finalize(4), left.Finalize(4))
}

func TestAggregator_FinalizeOnZeroTrials(t *testing.T) {
	totals := NewAggregator(2, 3).Finalize(0)

	assert.Zero(t, totals.FutureCouponPV)
	assert.Zero(t, totals.PrincipalPV)
	assert.Zero(t, totals.KnockInProb)
}
