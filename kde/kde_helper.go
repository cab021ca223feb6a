package kde

import (
	"context"
	"fmt"
	"math"

	"github.com/uyouii/density-derivative/common"
	"github.com/uyouii/density-derivative/gdd"
	"github.com/uyouii/density-derivative/model"
	"github.com/uyouii/density-derivative/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// ProfileConfig describes what CalculateDensityProfile computes.
type ProfileConfig struct {
	// BandWidth of the kernel; zero selects the AMISE optimal bandwidth.
	BandWidth float64
	// ErrorBound is the absolute error of every estimate; zero means
	// DefaultErrorBound.
	ErrorBound float64
	// DerivOrders lists the derivative orders computed besides the density.
	DerivOrders []int
	// Workers is the number of goroutines per estimate.
	Workers int
}

// CalculateDensityProfile estimates the density of samples and the
// requested derivatives at every evaluation point. Results keep the order of
// evalPoints.
func CalculateDensityProfile(ctx context.Context, samples []float64, evalPoints []float64,
	cfg ProfileConfig) (profile *model.DensityProfile, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if e := recover(); e != nil {
			logger.Error("CalculateDensityProfile recover panic error!", zap.Any("err", e),
				zap.String("panic info", utils.GetPanicInfo()), zap.Int("sampleSize", len(samples)),
				zap.Int("evalCount", len(evalPoints)))
			profile, err = nil, fmt.Errorf("density profile panic %v: %w", e, common.ErrorInvalidValue)
		}
	}()

	if len(samples) == 0 || len(evalPoints) == 0 {
		logger.Error("empty input, skip calculate", zap.Int("sampleSize", len(samples)),
			zap.Int("evalCount", len(evalPoints)))
		return nil, common.ErrorEmptyInput
	}

	bw := cfg.BandWidth
	if bw == 0 {
		selector := NewAmiseOptimalBandWidth(ctx)
		selector.SetWorkers(cfg.Workers)
		bw = selector.BandWidth(samples)
	}
	eps := cfg.ErrorBound
	if eps == 0 {
		eps = DefaultErrorBound
	}

	options := gdd.DefaultOptions()
	options.Workers = cfg.Workers
	options.Logger = logger
	estimator := gdd.NewGaussianDensityDerivative(options)
	estimator.SetBandWidth(bw)
	estimator.SetErrorBound(eps)

	estimate := func(r int) ([]model.Density, error) {
		estimator.SetDerivOrder(r)
		values, err := estimator.EstimateApprox(samples, evalPoints)
		if err != nil {
			logger.Error("density derivative estimate failed", zap.Error(err),
				zap.Int("derivOrder", r), zap.Float64("bw", bw))
			return nil, err
		}
		res := make([]model.Density, len(values))
		for i := range values {
			res[i] = model.Density{X: evalPoints[i], Value: values[i]}
		}
		return res, nil
	}

	density, err := estimate(0)
	if err != nil {
		return nil, err
	}
	profile = &model.DensityProfile{
		BandWidth:  bw,
		ErrorBound: eps,
		SampleSize: len(samples),
		Density:    density,
	}

	for _, r := range cfg.DerivOrders {
		values, err := estimate(r)
		if err != nil {
			return nil, err
		}
		profile.Derivatives = append(profile.Derivatives, &model.DerivativeProfile{
			Order:  r,
			Values: values,
		})
	}

	logger.Debug("density profile calculated", zap.String("profile", profile.DebugString()))
	return profile, nil
}

// CalculateQuantiles clips values to ClipLowerZScore/ClipUpperZScore standard
// deviations around their mean, fits a KDE and returns its quantiles, rounded
// to three decimals. Nil quantiles means AllCalculateQuantiles.
func CalculateQuantiles(ctx context.Context, values []float64,
	quantiles []float64) (confidence *model.KdeConfidence, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if e := recover(); e != nil {
			logger.Error("CalculateQuantiles recover panic error!", zap.Any("err", e),
				zap.String("panic info", utils.GetPanicInfo()), zap.Int("valueCount", len(values)))
			confidence, err = nil, fmt.Errorf("quantiles panic %v: %w", e, common.ErrorInvalidValue)
		}
	}()

	if len(values) < MinCalculatePointCnt {
		logger.Error("point too little, skip calculate", zap.Int("cnt", len(values)))
		return nil, common.ErrorInvalidValue
	}
	if quantiles == nil {
		quantiles = AllCalculateQuantiles
	}

	mean := stat.Mean(values, nil)
	stddev := stat.StdDev(values, nil)
	clip := &model.Clip{
		Upper: mean + stddev*ClipUpperZScore,
		Lower: mean - stddev*ClipLowerZScore,
	}

	k, err := NewKDEUnivariate(values, 1.0, DefaultCut, clip)
	if err != nil {
		logger.Error("NewKDEUnivariate failed", zap.Error(err))
		return nil, err
	}

	calculatedQuantiles := map[string]*model.QuantileValue{}

	for _, value := range quantiles {
		quantile, err := k.Quantile(value)
		if err != nil {
			logger.Error("kde Quantile failed", zap.Error(err), zap.Float64("value", value))
			continue
		}
		if quantile == nil || math.IsNaN(quantile.Value) {
			continue
		}
		quantile.Value = utils.FormatFloat(quantile.Value, 3)
		calculatedQuantiles[fmt.Sprintf("%v", value)] = quantile
	}

	if len(calculatedQuantiles) == 0 {
		return nil, common.ErrorInvalidValue
	}
	return &model.KdeConfidence{
		QuantileValues: calculatedQuantiles,
	}, nil
}
