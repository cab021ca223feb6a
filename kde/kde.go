package kde

import (
	"fmt"
	"sort"

	"github.com/uyouii/density-derivative/common"
	"github.com/uyouii/density-derivative/gdd"
	"github.com/uyouii/density-derivative/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// Attach the density estimate to the KDEUnivariate class.
type KDEUnivariate struct {
	//If gridsize is 0, max(len(x), DefaultGridSize) is used.
	gridSize int

	// An adjustment factor for the bw. Bandwidth becomes bw * adjust.
	bwAdjust float64

	// Defines the length of the grid past the lowest and highest values
	// of x so that the kernel goes to zero. The end points are
	// ``min(x) - cut * bw`` and ``max(x) + cut * bw``.
	cut float64

	// absolute error bound of the grid estimates
	errorBound float64

	bandWidth BandWidth

	// endogenous variable, sorted
	Endog []float64

	density []model.Density
	cdf     []model.Cdf
	grid    []float64
	bw      float64
	fited   bool
	kernel  *GaussianKernel
}

func NewKDEUnivariate(endog []float64, bwAdjust float64, cut float64, clip *model.Clip) (*KDEUnivariate, error) {
	endog = Clip(append([]float64(nil), endog...), clip)
	if len(endog) == 0 {
		return nil, fmt.Errorf("kde sample: %w", common.ErrorEmptyInput)
	}
	sort.Float64s(endog)

	if cut == 0 {
		cut = DefaultCut
	}
	if bwAdjust == 0 {
		bwAdjust = 1
	}

	kde := &KDEUnivariate{
		gridSize:   max(len(endog), DefaultGridSize),
		bwAdjust:   bwAdjust,
		cut:        cut,
		errorBound: DefaultErrorBound,
		bandWidth:  NewNormalReferenceBandWidth(nil),
		Endog:      endog,
	}

	return kde, nil
}

// SetBandWidth replaces the bandwidth selector. Must be called before the
// first estimate.
func (kde *KDEUnivariate) SetBandWidth(bandWidth BandWidth) {
	kde.bandWidth = bandWidth
}

func (kde *KDEUnivariate) SetErrorBound(eps float64) {
	kde.errorBound = eps
}

func (kde *KDEUnivariate) SetGridSize(gridSize int) {
	if gridSize > 0 {
		kde.gridSize = gridSize
	}
}

func (kde *KDEUnivariate) fit() error {
	if kde.fited {
		return nil
	}

	bw := kde.bandWidth.BandWidth(kde.Endog) * kde.bwAdjust
	if !(bw > 0) {
		// a constant sample has no spread to estimate a bandwidth from
		return fmt.Errorf("bandwidth %v: %w", bw, common.ErrorInvalidValue)
	}

	kernel := NewGaussianKernel()
	kernel.SetH(bw)

	a := floats.Min(kde.Endog) - kde.cut*bw
	b := floats.Max(kde.Endog) + kde.cut*bw

	kde.grid = linspace(a, b, kde.gridSize)
	kde.bw = bw
	kde.kernel = kernel
	kde.fited = true
	return nil
}

// Kdensity returns the density on the grid and the bandwidth used.
func (kde *KDEUnivariate) Kdensity() ([]model.Density, float64, error) {
	if len(kde.density) > 0 {
		return kde.density, kde.bw, nil
	}

	res, err := kde.Derivative(0)
	if err != nil {
		return nil, 0, err
	}
	kde.density = res
	return res, kde.bw, nil
}

// Derivative returns the r-th derivative of the density on the grid.
func (kde *KDEUnivariate) Derivative(r int) ([]model.Density, error) {
	if err := kde.fit(); err != nil {
		return nil, err
	}

	estimator := gdd.NewGaussianDensityDerivative(gdd.DefaultOptions())
	estimator.SetBandWidth(kde.bw)
	estimator.SetDerivOrder(r)
	estimator.SetErrorBound(kde.errorBound)

	dens, err := estimator.EstimateApprox(kde.Endog, kde.grid)
	if err != nil {
		return nil, err
	}

	res := make([]model.Density, 0, len(dens))
	for i := 0; i < len(dens); i++ {
		res = append(res, model.Density{
			X:     kde.grid[i],
			Value: dens[i],
		})
	}
	return res, nil
}

func (kde *KDEUnivariate) BandWidth() (float64, error) {
	if err := kde.fit(); err != nil {
		return 0, err
	}
	return kde.bw, nil
}

func (kde *KDEUnivariate) Cdf() ([]model.Cdf, error) {
	if err := kde.fit(); err != nil {
		return nil, err
	}

	if len(kde.cdf) > 0 {
		return kde.cdf, nil
	}

	// the grid starts cut bandwidths below the smallest point, the mass to
	// its left is neglected
	newGrid := []float64{kde.grid[0]}
	newGrid = append(newGrid, kde.grid...)
	gridsize := len(newGrid)

	f := func(x float64) float64 {
		return kde.kernel.Density(kde.Endog, x)
	}

	res := []model.Cdf{}

	var cumSum float64

	for i := 1; i < gridsize; i++ {
		integral := quad.Fixed(f, newGrid[i-1], newGrid[i], 50, nil, 0)
		cumSum += integral
		res = append(res, model.Cdf{
			X:     newGrid[i],
			Value: cumSum,
		})
	}

	kde.cdf = res
	return res, nil
}

func (kde *KDEUnivariate) Quantile(p float64) (*model.QuantileValue, error) {
	cdf, err := kde.Cdf()
	if err != nil {
		return nil, err
	}

	if len(cdf) == 0 {
		return nil, nil
	}
	if p <= cdf[0].Value {
		return &model.QuantileValue{
			Quantile: p,
			Value:    cdf[0].X,
		}, nil
	}

	if p >= cdf[len(cdf)-1].Value {
		return &model.QuantileValue{
			Quantile: p,
			Value:    cdf[len(cdf)-1].X,
		}, nil
	}

	for i := 1; i < len(cdf); i++ {
		if cdf[i].Value > p {
			lowerX, lowerP := cdf[i-1].X, cdf[i-1].Value
			upperX, upperP := cdf[i].X, cdf[i].Value
			value := lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP)
			return &model.QuantileValue{
				Quantile: p,
				Value:    value,
			}, nil
		}
	}
	return &model.QuantileValue{
		Quantile: p,
		Value:    cdf[len(cdf)-1].X,
	}, nil
}
