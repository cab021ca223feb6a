package gdd

import "go.uber.org/zap"

const (
	// DefaultTruncationLimit caps the truncation number search.
	DefaultTruncationLimit = 500
)

// Parameters collects the estimator configuration as it comes out of a
// config file or command line. Each value records whether it has been set;
// no range checks are performed here.
type Parameters struct {
	bandWidth      float64
	bandWidthIsSet bool

	derivOrder      int
	derivOrderIsSet bool

	errorBound      float64
	errorBoundIsSet bool
}

func (p *Parameters) SetBandWidth(bw float64) {
	p.bandWidth = bw
	p.bandWidthIsSet = true
}

func (p *Parameters) SetDerivOrder(r int) {
	p.derivOrder = r
	p.derivOrderIsSet = true
}

func (p *Parameters) SetErrorBound(eps float64) {
	p.errorBound = eps
	p.errorBoundIsSet = true
}

func (p *Parameters) BandWidth() float64 {
	return p.bandWidth
}

func (p *Parameters) BandWidthIsSet() bool {
	return p.bandWidthIsSet
}

func (p *Parameters) DerivOrder() int {
	return p.derivOrder
}

func (p *Parameters) DerivOrderIsSet() bool {
	return p.derivOrderIsSet
}

func (p *Parameters) ErrorBound() float64 {
	return p.errorBound
}

func (p *Parameters) ErrorBoundIsSet() bool {
	return p.errorBoundIsSet
}

// Complete reports whether all three values have been set.
func (p *Parameters) Complete() bool {
	return p.bandWidthIsSet && p.derivOrderIsSet && p.errorBoundIsSet
}

// Options tune how an estimate is computed, not what is estimated.
type Options struct {
	// TruncationLimit is the largest truncation number tried before the
	// fast estimate gives up with common.ErrorTruncationDiverged.
	TruncationLimit int

	// Workers is the number of goroutines sharing the evaluation points.
	// Values below 2 evaluate sequentially.
	Workers int

	// DirectThreshold makes Estimate use direct summation when
	// len(sample)*len(eval) does not exceed it.
	DirectThreshold int

	// Logger defaults to the global zap logger.
	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		TruncationLimit: DefaultTruncationLimit,
		Workers:         1,
		DirectThreshold: 0,
	}
}
