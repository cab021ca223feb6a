package gdd_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/density-derivative/common"
	"github.com/uyouii/density-derivative/gdd"
)

// truncationErrorClosedForm evaluates the bound with factorials and powers
// directly; only usable while p! is finite.
func truncationErrorClosedForm(r int, bw, ri, rc float64, p int) float64 {
	b := math.Min(rc, 0.5*(ri+math.Sqrt(ri*ri+8.0*float64(p)*bw*bw)))
	return math.Sqrt(math.Gamma(float64(r+1))) / math.Gamma(float64(p+1)) *
		math.Pow(ri*b/(bw*bw), float64(p)) *
		math.Exp(-(ri-b)*(ri-b)/(bw*bw))
}

func TestCoefQ(t *testing.T) {
	assert.InDelta(t, 1.0/(math.Sqrt(2*math.Pi)*10*0.5), gdd.CoefQ(10, 0.5, 0), 1e-15)
	assert.InDelta(t, -1.0/(math.Sqrt(2*math.Pi)*10*0.25), gdd.CoefQ(10, 0.5, 1), 1e-15)
	assert.Greater(t, gdd.CoefQ(3, 0.1, 2), 0.0)
	assert.Less(t, gdd.CoefQ(3, 0.1, 5), 0.0)
}

func TestScaledTolerance(t *testing.T) {
	q := gdd.CoefQ(100, 0.1, 2)
	epsPrime := gdd.ScaledTolerance(100, 1e-3, q)
	assert.InDelta(t, 1e-3*math.Sqrt(2*math.Pi)*math.Pow(0.1, 3), epsPrime, 1e-18)
	assert.Equal(t, epsPrime, gdd.ScaledTolerance(100, 1e-3, -q))
}

func TestCutoffRadius(t *testing.T) {
	// a tolerance above sqrt(r!) needs no cutoff at all
	assert.Equal(t, 1.0, gdd.CutoffRadius(0.1, 2, 10.0))

	rc := gdd.CutoffRadius(0.01, 2, 1e-8)
	assert.InDelta(t, 2*0.01*math.Sqrt(math.Log(math.Sqrt(2)/1e-8)), rc, 1e-15)

	// beyond rc a single term is below the tolerance
	u := (rc + 1e-12) / 0.01
	assert.LessOrEqual(t, math.Abs(gdd.Hermite(u, 2))*math.Exp(-u*u/2), 1e-8)
	assert.LessOrEqual(t, gdd.CutoffRadius(1e-4, 6, 1e-300), 1.0)
}

func TestTruncationNumber_SatisfiesBound(t *testing.T) {
	const r = 2
	for _, n := range []int{10, 100, 1000} {
		sample := normalized(mixtureSample(n, uint64(n)))
		for _, bw := range []float64{1.0, 0.1, 0.01, 0.001, 0.0001} {
			for _, eps := range []float64{0.1, 0.01, 0.001, 0.0001, 0.00001, 0.000001} {
				q := gdd.CoefQ(len(sample), bw, r)
				epsPrime := gdd.ScaledTolerance(len(sample), eps, q)
				rc := gdd.CutoffRadius(bw, r, epsPrime)
				ri := gdd.ClusterWidth(gdd.ClusterCentres(bw))
				ry := ri + rc

				p, err := gdd.TruncationNumber(r, bw, ri, ry, epsPrime, gdd.DefaultTruncationLimit)
				require.NoError(t, err, "n=%d bw=%v eps=%v", n, bw, eps)
				require.GreaterOrEqual(t, p, 0)

				require.LessOrEqual(t, gdd.TruncationError(r, bw, ri, ry, p), epsPrime,
					"n=%d bw=%v eps=%v p=%d", n, bw, eps, p)
				if p < 150 {
					require.LessOrEqual(t, truncationErrorClosedForm(r, bw, ri, ry, p), epsPrime*(1+1e-9),
						"n=%d bw=%v eps=%v p=%d", n, bw, eps, p)
				}
				if p > 0 {
					require.Greater(t, gdd.TruncationError(r, bw, ri, ry, p-1), epsPrime,
						"p=%d is not the smallest truncation number", p)
				}
			}
		}
	}
}

func TestTruncationError_MatchesClosedForm(t *testing.T) {
	for _, p := range []int{1, 2, 5, 10, 30} {
		got := gdd.TruncationError(3, 0.05, 0.025, 0.3, p)
		want := truncationErrorClosedForm(3, 0.05, 0.025, 0.3, p)
		assert.InDelta(t, want, got, 1e-12*math.Max(1, want), "p=%d", p)
	}
}

func TestTruncationNumber_ZeroTerms(t *testing.T) {
	// with p = 0 the bound is sqrt(r!), anything looser needs no dropped terms
	p, err := gdd.TruncationNumber(2, 0.1, 0.05, 1.05, 10, gdd.DefaultTruncationLimit)
	require.NoError(t, err)
	assert.Equal(t, 0, p)
	assert.InDelta(t, math.Sqrt2, gdd.TruncationError(2, 0.1, 0.05, 1.05, 0), 1e-15)

	p, err = gdd.TruncationNumber(2, 0.1, 0.05, 1.05, 1.0, gdd.DefaultTruncationLimit)
	require.NoError(t, err)
	assert.Greater(t, p, 0)
}

func TestTruncationNumber_Diverges(t *testing.T) {
	_, err := gdd.TruncationNumber(2, 0.1, 0.05, 1.05, 1e-300, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorTruncationDiverged))
}
