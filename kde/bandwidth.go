package kde

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/uyouii/density-derivative/common"
	"github.com/uyouii/density-derivative/gdd"
	"github.com/uyouii/density-derivative/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type BandWidth interface {
	BandWidth([]float64) float64
}

type NormalReferenceBandWidth struct {
	kernel Kernel
}

func NewNormalReferenceBandWidth(kernel Kernel) *NormalReferenceBandWidth {
	if kernel == nil {
		kernel = NewGaussianKernel()
	}
	return &NormalReferenceBandWidth{
		kernel: kernel,
	}
}

func (bw *NormalReferenceBandWidth) BandWidth(x []float64) float64 {
	C := bw.kernel.NormalReferenceConstant()
	A := selectSigma(x)
	n := len(x)
	return C * A * math.Pow(float64(n), -0.2)
}

func selectSigma(x []float64) float64 {
	normalize := 1.349

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	iqr := (q75 - q25) / normalize

	stdDev := stat.StdDev(x, nil)

	if iqr > 0 {
		if stdDev < iqr {
			return stdDev
		}
		return iqr
	}
	return stdDev
}

// AmiseOptimalBandWidth selects the bandwidth minimizing the asymptotic mean
// integrated squared error by solving
//
//	h = (R(K) / (mu2(K)^2 * Psi4(gamma(h)) * N))^(1/5)
//
// where Psi4 is the integrated squared second density derivative, estimated
// as the mean of the fourth density derivative over the sample with a pilot
// bandwidth gamma(h) tied to h through Psi4 and Psi6 at normal scale pilots.
// All density derivatives come from the fast estimator.
type AmiseOptimalBandWidth struct {
	kernel        Kernel
	relativeError float64
	tolerance     float64
	maxIter       int
	options       gdd.Options
	logger        *zap.Logger
}

func NewAmiseOptimalBandWidth(ctx context.Context) *AmiseOptimalBandWidth {
	logger := utils.GetLogger(ctx)
	options := gdd.DefaultOptions()
	options.DirectThreshold = AmiseDirectThreshold
	options.Logger = logger
	return &AmiseOptimalBandWidth{
		kernel:        NewGaussianKernel(),
		relativeError: AmiseRelativeError,
		tolerance:     AmiseTolerance,
		maxIter:       AmiseMaxIterations,
		options:       options,
		logger:        logger,
	}
}

// SetWorkers sets the number of goroutines used per density estimate.
func (bw *AmiseOptimalBandWidth) SetWorkers(workers int) {
	bw.options.Workers = workers
}

// BandWidth returns the AMISE optimal bandwidth, or the normal reference
// bandwidth if the plug-in equation can not be solved for x.
func (bw *AmiseOptimalBandWidth) BandWidth(x []float64) float64 {
	h, err := bw.Estimate(x)
	if err != nil {
		fallback := NewNormalReferenceBandWidth(bw.kernel).BandWidth(x)
		bw.logger.Warn("amise bandwidth failed, use normal reference bandwidth",
			zap.Error(err), zap.Float64("bandwidth", fallback))
		return fallback
	}
	return h
}

func (bw *AmiseOptimalBandWidth) Estimate(x []float64) (float64, error) {
	n := len(x)
	if n < 2 {
		return 0, fmt.Errorf("amise bandwidth needs at least 2 points, got %d: %w", n, common.ErrorEmptyInput)
	}
	sigma := selectSigma(x)
	if !(sigma > 0) {
		return 0, fmt.Errorf("sample scale %v: %w", sigma, common.ErrorInvalidValue)
	}

	// pilot bandwidths from normal scale functionals
	sqrt2Pi := math.Sqrt(2 * math.Pi)
	psi6NS := normalScaleFunctional(6, sigma)
	psi8NS := normalScaleFunctional(8, sigma)
	g1 := math.Pow(-6.0/(sqrt2Pi*psi6NS*float64(n)), 1.0/7.0)
	g2 := math.Pow(30.0/(sqrt2Pi*psi8NS*float64(n)), 1.0/9.0)

	psi4, err := bw.functional(x, 4, g1, sigma)
	if err != nil {
		return 0, err
	}
	psi6, err := bw.functional(x, 6, g2, sigma)
	if err != nil {
		return 0, err
	}
	if !(psi4 > 0) || !(psi6 < 0) {
		return 0, fmt.Errorf("density functionals psi4=%v psi6=%v have wrong sign: %w",
			psi4, psi6, common.ErrorInvalidValue)
	}
	gammaConst := math.Pow(-6.0*math.Sqrt2*psi4/psi6, 1.0/7.0)

	rk := bw.kernel.L2Norm()
	mu2 := bw.kernel.Moments(2)
	equation := func(h float64) (float64, error) {
		gamma := gammaConst * math.Pow(h, 5.0/7.0)
		psi, err := bw.functional(x, 4, gamma, sigma)
		if err != nil {
			return 0, err
		}
		if !(psi > 0) {
			return 0, fmt.Errorf("psi4 %v at pilot bandwidth %v: %w", psi, gamma, common.ErrorInvalidValue)
		}
		return h - math.Pow(rk/(mu2*mu2*psi*float64(n)), 0.2), nil
	}

	h0 := NewNormalReferenceBandWidth(bw.kernel).BandWidth(x)
	h, err := bw.solve(equation, h0)
	if err != nil {
		return 0, err
	}
	bw.logger.Debug("amise bandwidth", zap.Float64("bandwidth", h),
		zap.Float64("normalReference", h0), zap.Float64("psi4", psi4), zap.Float64("psi6", psi6))
	return h, nil
}

// functional estimates Psi_r, the mean of the r-th density derivative over
// the sample, using pilot bandwidth g.
func (bw *AmiseOptimalBandWidth) functional(x []float64, r int, g float64, sigma float64) (float64, error) {
	estimator := gdd.NewGaussianDensityDerivative(bw.options)
	estimator.SetBandWidth(g)
	estimator.SetDerivOrder(r)
	estimator.SetErrorBound(bw.relativeError * math.Abs(normalScaleFunctional(r, sigma)))

	deriv, err := estimator.Estimate(x, x)
	if err != nil {
		return 0, fmt.Errorf("psi%d at bandwidth %v: %w", r, g, err)
	}
	return floats.Sum(deriv) / float64(len(x)), nil
}

// solve brackets the root of f around h0 and bisects the bracket.
func (bw *AmiseOptimalBandWidth) solve(f func(float64) (float64, error), h0 float64) (float64, error) {
	lo, hi := h0, h0
	fLo, err := f(lo)
	if err != nil {
		return 0, err
	}
	fHi := fLo

	for i := 0; fLo > 0; i++ {
		if i >= bw.maxIter {
			return 0, fmt.Errorf("no lower bracket below %v: %w", lo, common.ErrorInvalidValue)
		}
		hi, fHi = lo, fLo
		lo /= 2
		if fLo, err = f(lo); err != nil {
			return 0, err
		}
	}
	for i := 0; fHi < 0; i++ {
		if i >= bw.maxIter {
			return 0, fmt.Errorf("no upper bracket above %v: %w", hi, common.ErrorInvalidValue)
		}
		lo, fLo = hi, fHi
		hi *= 2
		if fHi, err = f(hi); err != nil {
			return 0, err
		}
	}

	for i := 0; i < bw.maxIter && hi-lo > bw.tolerance*hi; i++ {
		mid := 0.5 * (lo + hi)
		fMid, err := f(mid)
		if err != nil {
			return 0, err
		}
		if fMid == 0 {
			return mid, nil
		}
		if fMid < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}

// normalScaleFunctional is Psi_r of a normal density with standard deviation
// sigma, r even:
//
//	Psi_r = (-1)^(r/2) r! / ((2 sigma)^(r+1) (r/2)! sqrt(pi))
func normalScaleFunctional(r int, sigma float64) float64 {
	v := factorial(r) / (math.Pow(2*sigma, float64(r+1)) * factorial(r/2) * math.Sqrt(math.Pi))
	if (r/2)%2 == 1 {
		return -v
	}
	return v
}
