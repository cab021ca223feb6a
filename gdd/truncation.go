package gdd

import (
	"fmt"
	"math"

	"github.com/uyouii/density-derivative/common"
)

var sqrt2Pi = math.Sqrt(2.0 * math.Pi)

// CoefQ is the constant in front of the r-th derivative of a Gaussian KDE
// with n points and bandwidth bw, sign included:
//
//	q = (-1)^r / (sqrt(2*pi) * n * bw^(r+1))
func CoefQ(n int, bw float64, r int) float64 {
	q := 1.0 / (sqrt2Pi * float64(n) * math.Pow(bw, float64(r+1)))
	if r%2 == 1 {
		return -q
	}
	return q
}

// ScaledTolerance converts the absolute error bound eps of the estimate into
// the tolerance allowed for the contribution of a single sample point.
func ScaledTolerance(n int, eps float64, q float64) float64 {
	return eps / (float64(n) * math.Abs(q))
}

// CutoffRadius returns the distance beyond which a single Gaussian derivative
// term is below epsPrime, using |He_r(u)| exp(-u^2/2) <= sqrt(r!) exp(-u^2/4).
// The result never exceeds the diameter of the unit interval.
func CutoffRadius(bw float64, r int, epsPrime float64) float64 {
	ratio := math.Sqrt(factorial(r)) / epsPrime
	if ratio <= 1 {
		return 1.0
	}
	return math.Min(1.0, 2.0*bw*math.Sqrt(math.Log(ratio)))
}

// TruncationError bounds the error of dropping series terms p and above for
// a source within ri of its centre and a target within rc of it.
func TruncationError(r int, bw, ri, rc float64, p int) float64 {
	hSquare := bw * bw
	b := math.Min(rc, 0.5*(ri+math.Sqrt(ri*ri+8.0*float64(p)*hSquare)))

	// (ri*b/h^2)^p / p! as a running product keeps large p finite
	term := 1.0
	base := ri * b / hSquare
	for k := 1; k <= p; k++ {
		term *= base / float64(k)
	}
	return math.Sqrt(factorial(r)) * term * math.Exp(-(ri-b)*(ri-b)/hSquare)
}

// TruncationNumber returns the smallest p >= 0 for which TruncationError is
// within epsPrime. It fails with common.ErrorTruncationDiverged when p would
// have to exceed limit.
func TruncationNumber(r int, bw, ri, rc, epsPrime float64, limit int) (int, error) {
	for p := 0; p <= limit; p++ {
		e := TruncationError(r, bw, ri, rc, p)
		if math.IsNaN(e) {
			return 0, fmt.Errorf("truncation error at p=%d: %w", p, common.ErrorNaN)
		}
		if e <= epsPrime {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no truncation number up to %d reaches tolerance %g: %w",
		limit, epsPrime, common.ErrorTruncationDiverged)
}
