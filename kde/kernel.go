package kde

import (
	"math"

	"github.com/uyouii/density-derivative/gdd"
)

type Kernel interface {
	NormalReferenceConstant() float64
	L2Norm() float64
	Moments(n int) float64
}

type GaussianKernel struct {
	l2Norm                  float64
	kernelVar               float64
	order                   int
	normalReferenceConstant float64
	h                       float64
}

func NewGaussianKernel() *GaussianKernel {
	return &GaussianKernel{
		l2Norm:                  1.0 / (2.0 * math.Sqrt(math.Pi)),
		kernelVar:               1.0,
		order:                   2,
		normalReferenceConstant: 0,
		h:                       1.0,
	}
}

func (k *GaussianKernel) SetH(h float64) {
	k.h = h
}

func (k *GaussianKernel) H() float64 {
	return k.h
}

func (k *GaussianKernel) Shape(x float64) float64 {
	return 0.3989422804014327 * math.Exp(-x*x/2.0)
}

// ShapeDerivative is the r-th derivative of Shape, (-1)^r He_r(x) Shape(x).
func (k *GaussianKernel) ShapeDerivative(x float64, r int) float64 {
	v := gdd.Hermite(x, r) * k.Shape(x)
	if r%2 == 1 {
		return -v
	}
	return v
}

// R(K), the integral of the squared kernel.
func (k *GaussianKernel) L2Norm() float64 {
	return k.l2Norm
}

func (k *GaussianKernel) NormalReferenceConstant() float64 {
	nu := k.order
	if k.normalReferenceConstant == 0 {
		numerator := math.Pow(math.Pi, 0.5) * math.Pow(factorial(nu), 3) * k.l2Norm
		denom := 2.0 * float64(nu) * factorial(2*nu) * math.Pow(k.Moments(nu), 2)
		C := 2 * math.Pow(numerator/denom, 1.0/float64(2*nu+1))
		k.normalReferenceConstant = C
	}
	return k.normalReferenceConstant
}

func (k *GaussianKernel) Moments(n int) float64 {
	if n == 1 {
		return 0
	}
	if n == 2 {
		return k.kernelVar
	}
	return 1.0
}

// Density evaluates the KDE of xs at x by direct summation.
func (k *GaussianKernel) Density(xs []float64, x float64) float64 {
	return k.Derivative(xs, x, 0)
}

// Derivative evaluates the r-th derivative of the KDE of xs at x by direct
// summation.
func (k *GaussianKernel) Derivative(xs []float64, x float64, r int) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}

	h := k.h
	var sum float64 = 0.0
	for _, xi := range xs {
		u := (x - xi) / h
		sum += k.ShapeDerivative(u, r)
	}
	return sum / (float64(n) * math.Pow(h, float64(r+1)))
}
