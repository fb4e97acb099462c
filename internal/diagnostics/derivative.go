package diagnostics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultOrder is the finite-difference order used for n time samples:
// fourth order when there are at least five samples, otherwise the
// highest order the samples allow.
func DefaultOrder(n int) int {
	if n >= 5 {
		return 4
	}
	if n < 1 {
		return 0
	}
	return n - 1
}

// DerivativeMatrix returns the n×n matrix D such that D·f approximates
// df/dt at every sample of t. Row i uses the order+1 samples closest to
// t[i], with weights from Fornberg's algorithm, so polynomials of degree
// up to order are differentiated exactly. t must be strictly increasing.
func DerivativeMatrix(t []float64, order int) (*mat.Dense, error) {
	n := len(t)
	if n == 0 {
		return nil, fmt.Errorf("no time samples")
	}
	if order < 0 || order > n-1 {
		return nil, fmt.Errorf("order %d out of range [0, %d]", order, n-1)
	}
	for i := 1; i < n; i++ {
		if t[i] <= t[i-1] {
			return nil, fmt.Errorf("time samples not strictly increasing at index %d", i)
		}
	}

	d := mat.NewDense(n, n, nil)
	if order == 0 {
		return d, nil
	}

	width := order + 1
	for i := 0; i < n; i++ {
		start := i - order/2
		if start < 0 {
			start = 0
		}
		if start+width > n {
			start = n - width
		}
		w := fornberg(t[i], t[start:start+width], 1)
		for j, c := range w {
			d.Set(i, start+j, c)
		}
	}
	return d, nil
}

// fornberg returns the weights of the m-th derivative at z for the nodes x.
func fornberg(z float64, x []float64, m int) []float64 {
	n := len(x) - 1
	c := make([][]float64, n+1)
	for i := range c {
		c[i] = make([]float64, m+1)
	}
	c[0][0] = 1

	c1 := 1.0
	c4 := x[0] - z
	for i := 1; i <= n; i++ {
		mn := min(i, m)
		c2 := 1.0
		c5 := c4
		c4 = x[i] - z
		for j := 0; j < i; j++ {
			c3 := x[i] - x[j]
			c2 *= c3
			if j == i-1 {
				for k := mn; k >= 1; k-- {
					c[i][k] = c1 * (float64(k)*c[i-1][k-1] - c5*c[i-1][k]) / c2
				}
				c[i][0] = -c1 * c5 * c[i-1][0] / c2
			}
			for k := mn; k >= 1; k-- {
				c[j][k] = (c4*c[j][k] - float64(k)*c[j][k-1]) / c3
			}
			c[j][0] = c4 * c[j][0] / c3
		}
		c1 = c2
	}

	w := make([]float64, n+1)
	for j := range w {
		w[j] = c[j][m]
	}
	return w
}

// TimeDerivative applies d to a time-major series (rows are times,
// columns are points) and returns d·series.
func TimeDerivative(d *mat.Dense, series *mat.Dense) (*mat.Dense, error) {
	_, dc := d.Dims()
	sr, _ := series.Dims()
	if dc != sr {
		return nil, fmt.Errorf("derivative matrix has %d columns, series has %d times", dc, sr)
	}
	var out mat.Dense
	out.Mul(d, series)
	return &out, nil
}
