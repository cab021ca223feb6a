package gdd

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// machine epsilon for float64
const epsilon = 2.220446049250313e-16

// ShiftScaleParams returns shift and scale such that (x+shift)*scale maps the
// union of sample and eval onto the unit interval. If all values coincide the
// scale is one and the common value is shifted onto 0.5.
func ShiftScaleParams(sample, eval []float64) (shift float64, scale float64) {
	lo := math.Min(floats.Min(sample), floats.Min(eval))
	hi := math.Max(floats.Max(sample), floats.Max(eval))

	if hi-lo <= epsilon*math.Max(1, math.Abs(hi)) {
		return 0.5 - lo, 1.0
	}
	return -lo, 1.0 / (hi - lo)
}

// ShiftAndScale maps vec onto the unit interval in place.
func ShiftAndScale(vec []float64, shift, scale float64) {
	floats.AddConst(shift, vec)
	floats.Scale(scale, vec)
}

// ShiftAndScaleInverse undoes ShiftAndScale in place.
func ShiftAndScaleInverse(vec []float64, shift, scale float64) {
	for i := range vec {
		vec[i] = vec[i]/scale - shift
	}
}
