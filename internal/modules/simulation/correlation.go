// Package simulation draws correlated lognormal price paths for the
// underlyings of a note across its remaining observation dates.
package simulation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/quantnote/internal/domain"
)

// choleskyEpsilon is added to the diagonal for the single retry when the
// supplied matrix is not positive definite within floating tolerance
const choleskyEpsilon = 1e-5

// Factorize decomposes a correlation matrix into its lower-triangular
// Cholesky factor. A matrix that still fails after the epsilon
// perturbation is a fatal configuration error - the engine never prices
// on a degenerate factorization.
func Factorize(corr [][]float64) (*mat.TriDense, error) {
	n := len(corr)
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = corr[i][j]
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(mat.NewSymDense(n, data)) {
		// Retry once with a slightly stiffened diagonal
		for i := 0; i < n; i++ {
			data[i*n+i] += choleskyEpsilon
		}
		if !chol.Factorize(mat.NewSymDense(n, data)) {
			return nil, domain.NewConfigError(
				"correlation matrix is not positive definite, even after diagonal perturbation")
		}
	}

	lower := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(lower)
	return lower, nil
}
