package simulation

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/utils"
)

// priceFloor keeps simulated prices positive after dividend deductions
const priceFloor = 0.01

// step is one discrete simulation interval between observation dates
type step struct {
	dt        float64   // act/365.25 year fraction
	dividends []float64 // cash dividends per asset inside the interval
}

// PathGenerator draws correlated geometric Brownian price paths. One
// generator belongs to exactly one worker; it is not safe for concurrent
// use because it owns its random stream and scratch buffers.
type PathGenerator struct {
	start  []float64 // per-asset start prices (current spot)
	vols   []float64
	drift  float64 // risk-free rate
	lower  *mat.TriDense
	steps  []step
	normal distuv.Normal
	z      []float64 // independent draws
	zc     []float64 // correlated shocks
}

// NewPathGenerator prepares a generator for the remaining observation
// dates, starting at the valuation date. seed and stream select the
// random sequence; a fixed (seed, stream) pair reproduces draws exactly.
func NewPathGenerator(
	underlyings []domain.Underlying,
	vols []float64,
	riskFreeRate float64,
	lower *mat.TriDense,
	valuationDate time.Time,
	observations []time.Time,
	seed, stream uint64,
) *PathGenerator {
	n := len(underlyings)

	start := make([]float64, n)
	for i, u := range underlyings {
		start[i] = u.StartSpot()
	}

	steps := make([]step, 0, len(observations))
	prev := valuationDate
	for _, obs := range observations {
		st := step{
			dt:        utils.YearFraction(prev, obs),
			dividends: make([]float64, n),
		}
		for i, u := range underlyings {
			for _, div := range u.Dividends {
				ex := utils.Midnight(div.ExDate)
				if ex.After(utils.Midnight(prev)) && utils.OnOrBefore(ex, obs) {
					st.dividends[i] += div.Amount
				}
			}
		}
		steps = append(steps, st)
		prev = obs
	}

	return &PathGenerator{
		start: start,
		vols:  vols,
		drift: riskFreeRate,
		lower: lower,
		steps: steps,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewPCG(seed, stream),
		},
		z:  make([]float64, n),
		zc: make([]float64, n),
	}
}

// Steps returns the number of remaining observation dates covered
func (g *PathGenerator) Steps() int {
	return len(g.steps)
}

// Assets returns the number of underlyings simulated
func (g *PathGenerator) Assets() int {
	return len(g.start)
}

// NewGrid allocates a path buffer shaped for Generate
func (g *PathGenerator) NewGrid() [][]float64 {
	grid := make([][]float64, len(g.steps))
	for k := range grid {
		grid[k] = make([]float64, len(g.start))
	}
	return grid
}

// Generate fills grid with one simulated path. grid[k][i] is the price of
// asset i at the k-th remaining observation date. Each step draws one
// standard normal per asset, imparts correlation through the Cholesky
// factor, advances by the exact lognormal update and then deducts any
// scheduled dividends, flooring the price at a small positive value.
func (g *PathGenerator) Generate(grid [][]float64) {
	n := len(g.start)
	prev := g.start

	for k, st := range g.steps {
		for i := 0; i < n; i++ {
			g.z[i] = g.normal.Rand()
		}
		for i := 0; i < n; i++ {
			var shock float64
			for j := 0; j <= i; j++ {
				shock += g.lower.At(i, j) * g.z[j]
			}
			g.zc[i] = shock
		}

		for i := 0; i < n; i++ {
			sigma := g.vols[i]
			price := prev[i] * math.Exp((g.drift-0.5*sigma*sigma)*st.dt+sigma*math.Sqrt(st.dt)*g.zc[i])
			price -= st.dividends[i]
			if price < priceFloor {
				price = priceFloor
			}
			grid[k][i] = price
		}
		prev = grid[k]
	}
}
