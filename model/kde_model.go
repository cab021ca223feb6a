package model

import "fmt"

type Clip struct {
	Lower float64
	Upper float64
}

type Density struct {
	X     float64
	Value float64
}

type Cdf struct {
	X     float64
	Value float64
}

type QuantileValue struct {
	Value    float64 `json:"v,omitempty"`
	Quantile float64 `json:"q,omitempty"`
}

type KdeConfidence struct {
	QuantileValues map[string]*QuantileValue `json:"quantiles,omitempty"`
}

func (c *KdeConfidence) GetQuantileValue(value float64) (*QuantileValue, bool) {
	if c == nil || c.QuantileValues == nil {
		return nil, false
	}
	valueStr := fmt.Sprintf("%v", value)
	quantile, ok := c.QuantileValues[valueStr]
	return quantile, ok
}

// DerivativeProfile holds the r-th density derivative at every evaluation
// point, in evaluation order.
type DerivativeProfile struct {
	Order  int       `json:"order"`
	Values []Density `json:"values,omitempty"`
}

// DensityProfile is the density of a sample and some of its derivatives
// along a set of evaluation points.
type DensityProfile struct {
	BandWidth   float64              `json:"bw"`
	ErrorBound  float64              `json:"eps"`
	SampleSize  int                  `json:"n"`
	Density     []Density            `json:"density,omitempty"`
	Derivatives []*DerivativeProfile `json:"derivatives,omitempty"`
}

func (p *DensityProfile) DebugString() string {
	return fmt.Sprintf("bw: %v, eps: %v, sampleSize: %v, evalCount: %v, derivatives: %v",
		p.BandWidth, p.ErrorBound, p.SampleSize, len(p.Density), len(p.Derivatives))
}

// GetDerivative returns the profile of derivative order r, if computed.
func (p *DensityProfile) GetDerivative(r int) (*DerivativeProfile, bool) {
	if p == nil {
		return nil, false
	}
	for _, d := range p.Derivatives {
		if d.Order == r {
			return d, true
		}
	}
	return nil, false
}
