package gdd_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uyouii/density-derivative/gdd"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// mixtureSample draws n points from each of three normal distributions
// (mu=-1, sd=0.5), (mu=0, sd=0.1) and (mu=5, sd=1.5).
func mixtureSample(n int, seed uint64) []float64 {
	src := rand.NewSource(seed)
	dists := []distuv.Normal{
		{Mu: -1.0, Sigma: 0.5, Src: src},
		{Mu: 0.0, Sigma: 0.1, Src: src},
		{Mu: 5.0, Sigma: 1.5, Src: src},
	}
	sample := make([]float64, 0, 3*n)
	for i := 0; i < n; i++ {
		for _, d := range dists {
			sample = append(sample, d.Rand())
		}
	}
	return sample
}

// normalized maps sample onto the unit interval the way the estimator does.
func normalized(sample []float64) []float64 {
	res := append([]float64(nil), sample...)
	shift, scale := gdd.ShiftScaleParams(res, res)
	gdd.ShiftAndScale(res, shift, scale)
	return res
}

func newEstimator(t testing.TB, bw float64, r int, eps float64) *gdd.GaussianDensityDerivative {
	t.Helper()
	g := gdd.NewGaussianDensityDerivative(gdd.DefaultOptions())
	g.SetBandWidth(bw)
	g.SetDerivOrder(r)
	g.SetErrorBound(eps)
	require.True(t, g.IsConfigured())
	return g
}

// requireAgree checks the fast estimate against the direct one within
// 5*max(eps, eps*|direct|), allowing for rounding on top of the bound.
func requireAgree(t *testing.T, direct, approx []float64, eps float64, msgAndArgs ...interface{}) {
	t.Helper()
	require.Len(t, approx, len(direct))
	for i := range direct {
		tol := 5 * math.Max(eps, eps*math.Abs(direct[i]))
		require.InDelta(t, direct[i], approx[i], tol, msgAndArgs...)
	}
}

func bruteNearest(x float64, centres []float64) int {
	best, bestDist := 0, math.Inf(1)
	for k, c := range centres {
		if d := math.Abs(x - c); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
