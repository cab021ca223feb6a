// Package gdd estimates derivatives of univariate Gaussian kernel density
// estimates, either by direct summation or by a space partitioned, truncated
// series expansion whose cost is linear in sample and evaluation size.
package gdd

import (
	"context"
	"fmt"
	"math"

	"github.com/uyouii/density-derivative/common"
	"github.com/uyouii/density-derivative/utils"
	"go.uber.org/zap"
)

// GaussianDensityDerivative estimates the r-th derivative of a Gaussian KDE.
// Bandwidth, derivative order and error bound must all be set before an
// estimate is requested. Apart from this configuration nothing is kept
// between calls, so a configured estimator may be shared by goroutines as
// long as it is not reconfigured concurrently.
type GaussianDensityDerivative struct {
	params  Parameters
	options Options
	logger  *zap.Logger
}

// Diagnostics is the derived state of one fast estimate, in normalized
// coordinates. It is returned for inspection only.
type Diagnostics struct {
	Shift      float64
	Scale      float64
	BandWidth  float64
	ErrorBound float64

	Q              float64
	EpsPrime       float64
	CutoffRadius   float64
	ClusterRadius  float64
	ClusterCutoff  float64
	Truncation     int
	Terms          int
	Centres        []float64
	ClusterIndices []int

	CoefA *CoefficientsA
	CoefB *CoefficientsB
}

func NewGaussianDensityDerivative(options Options) *GaussianDensityDerivative {
	if options.TruncationLimit <= 0 {
		options.TruncationLimit = DefaultTruncationLimit
	}
	logger := options.Logger
	if logger == nil {
		logger = utils.GetLogger(context.Background())
	}
	return &GaussianDensityDerivative{
		options: options,
		logger:  logger,
	}
}

func (g *GaussianDensityDerivative) SetBandWidth(bw float64) {
	g.params.SetBandWidth(bw)
}

func (g *GaussianDensityDerivative) SetDerivOrder(r int) {
	g.params.SetDerivOrder(r)
}

func (g *GaussianDensityDerivative) SetErrorBound(eps float64) {
	g.params.SetErrorBound(eps)
}

// SetParameters copies every value that is set in params.
func (g *GaussianDensityDerivative) SetParameters(params Parameters) {
	if params.BandWidthIsSet() {
		g.params.SetBandWidth(params.BandWidth())
	}
	if params.DerivOrderIsSet() {
		g.params.SetDerivOrder(params.DerivOrder())
	}
	if params.ErrorBoundIsSet() {
		g.params.SetErrorBound(params.ErrorBound())
	}
}

func (g *GaussianDensityDerivative) Parameters() Parameters {
	return g.params
}

func (g *GaussianDensityDerivative) IsConfigured() bool {
	return g.params.Complete()
}

// Estimate picks direct summation for small problems and the fast
// expansion otherwise, see Options.DirectThreshold.
func (g *GaussianDensityDerivative) Estimate(sample, eval []float64) ([]float64, error) {
	if len(sample)*len(eval) <= g.options.DirectThreshold {
		return g.EstimateDirect(sample, eval)
	}
	return g.EstimateApprox(sample, eval)
}

// EstimateApprox returns the estimated derivative at every evaluation point
// with an absolute error of at most the configured error bound. Neither
// input is modified.
func (g *GaussianDensityDerivative) EstimateApprox(sample, eval []float64) ([]float64, error) {
	res, _, err := g.EstimateApproxWithDiagnostics(sample, eval)
	return res, err
}

// EstimateApproxWithDiagnostics is EstimateApprox that also returns the
// derived quantities of the computation.
func (g *GaussianDensityDerivative) EstimateApproxWithDiagnostics(sample, eval []float64) ([]float64, *Diagnostics, error) {
	if err := g.checkInput(sample, eval); err != nil {
		return nil, nil, err
	}
	r := g.params.DerivOrder()

	xs := append([]float64(nil), sample...)
	ys := append([]float64(nil), eval...)
	shift, scale := ShiftScaleParams(xs, ys)
	ShiftAndScale(xs, shift, scale)
	ShiftAndScale(ys, shift, scale)

	// the derivative picks up scale^(r+1) when mapped back, so the
	// tolerance in normalized units shrinks by the same factor
	unscale := math.Pow(scale, float64(r+1))
	diag := &Diagnostics{
		Shift:      shift,
		Scale:      scale,
		BandWidth:  g.params.BandWidth() * scale,
		ErrorBound: g.params.ErrorBound() / unscale,
	}
	if !(diag.BandWidth > 0) || math.IsInf(diag.BandWidth, 0) {
		err := fmt.Errorf("normalized bandwidth %v: %w", diag.BandWidth, common.ErrorInvalidValue)
		g.logger.Error("invalid bandwidth", zap.Float64("bandwidth", g.params.BandWidth()), zap.Error(err))
		return nil, nil, err
	}

	if err := g.setup(diag, xs); err != nil {
		g.logger.Error("fast density derivative setup failed", zap.Error(err),
			zap.Int("derivOrder", r), zap.Float64("bandwidth", diag.BandWidth),
			zap.Float64("errorBound", diag.ErrorBound), zap.Int("sampleSize", len(xs)))
		return nil, nil, err
	}

	g.logger.Debug("fast density derivative setup",
		zap.Int("clusters", len(diag.Centres)),
		zap.Int("truncation", diag.Truncation),
		zap.Float64("cutoffRadius", diag.CutoffRadius),
		zap.Float64("epsPrime", diag.EpsPrime))

	evaluator := &fastEvaluator{
		bw:      diag.BandWidth,
		r:       r,
		ry:      diag.ClusterCutoff,
		width:   diag.ClusterRadius,
		centres: diag.Centres,
		a:       diag.CoefA,
		b:       diag.CoefB,
	}
	res := evaluator.evaluate(ys, g.options.Workers)
	for i := range res {
		res[i] *= unscale
	}
	return res, diag, nil
}

// setup derives the partition, truncation and coefficient tables for the
// normalized sample xs.
func (g *GaussianDensityDerivative) setup(diag *Diagnostics, xs []float64) error {
	r := g.params.DerivOrder()
	n := len(xs)
	h := diag.BandWidth

	diag.Centres = ClusterCentres(h)
	diag.ClusterRadius = ClusterWidth(diag.Centres)
	diag.ClusterIndices = ClusterIndices(xs, diag.Centres)

	diag.Q = CoefQ(n, h, r)
	diag.EpsPrime = ScaledTolerance(n, diag.ErrorBound, diag.Q)
	if !utils.IsFinite(diag.Q) || math.IsNaN(diag.EpsPrime) {
		return fmt.Errorf("q=%v, epsPrime=%v: %w", diag.Q, diag.EpsPrime, common.ErrorNaN)
	}
	diag.CutoffRadius = CutoffRadius(h, r, diag.EpsPrime)
	diag.ClusterCutoff = diag.ClusterRadius + diag.CutoffRadius

	p, err := TruncationNumber(r, h, diag.ClusterRadius, diag.ClusterCutoff,
		diag.EpsPrime, g.options.TruncationLimit)
	if err != nil {
		return err
	}
	diag.Truncation = p
	// the bound covers dropping terms from p on; term p itself is kept
	diag.Terms = p + 1

	diag.CoefA = CoefA(r)
	diag.CoefB, err = CoefB(xs, diag.Centres, diag.ClusterIndices, h, r, diag.Terms, diag.Q)
	return err
}

// EstimateDirect sums the Gaussian derivative over all pairs of sample and
// evaluation points. It is exact up to rounding and costs O(N*M).
func (g *GaussianDensityDerivative) EstimateDirect(sample, eval []float64) ([]float64, error) {
	if err := g.checkInput(sample, eval); err != nil {
		return nil, err
	}
	evaluator := &directEvaluator{
		bw:     g.params.BandWidth(),
		r:      g.params.DerivOrder(),
		q:      CoefQ(len(sample), g.params.BandWidth(), g.params.DerivOrder()),
		sample: sample,
	}
	return evaluator.evaluate(eval, g.options.Workers), nil
}

func (g *GaussianDensityDerivative) checkInput(sample, eval []float64) error {
	if !g.params.Complete() {
		err := fmt.Errorf("bandwidth set: %v, derivative order set: %v, error bound set: %v: %w",
			g.params.BandWidthIsSet(), g.params.DerivOrderIsSet(), g.params.ErrorBoundIsSet(),
			common.ErrorNotConfigured)
		g.logger.Error("estimate requested before configuration", zap.Error(err))
		return err
	}
	if g.params.DerivOrder() < 0 {
		return fmt.Errorf("derivative order %d: %w", g.params.DerivOrder(), common.ErrorInvalidValue)
	}
	if bw := g.params.BandWidth(); !(bw > 0) || math.IsInf(bw, 0) {
		err := fmt.Errorf("bandwidth %v: %w", bw, common.ErrorInvalidValue)
		g.logger.Error("invalid bandwidth", zap.Error(err))
		return err
	}
	if len(sample) == 0 {
		return fmt.Errorf("sample: %w", common.ErrorEmptyInput)
	}
	if len(eval) == 0 {
		return fmt.Errorf("evaluation points: %w", common.ErrorEmptyInput)
	}
	for i, x := range sample {
		if !utils.IsFinite(x) {
			return fmt.Errorf("sample[%d] = %v: %w", i, x, common.ErrorNaN)
		}
	}
	for i, y := range eval {
		if !utils.IsFinite(y) {
			return fmt.Errorf("eval[%d] = %v: %w", i, y, common.ErrorNaN)
		}
	}
	return nil
}
