package gdd

import (
	"fmt"
	"math"

	"github.com/uyouii/density-derivative/common"
	"github.com/uyouii/density-derivative/utils"
)

// CoefficientsA holds the data independent coefficients of the expansion of
// He_r(u - v) into powers of u and v. Row l (0 <= l <= r/2) has r-2l+1
// entries; entry m multiplies u^(r-2l-m) * v^m.
type CoefficientsA struct {
	order int
	rows  [][]float64
}

// CoefA builds the coefficient table for derivative order r:
//
//	a[l][m] = (-1)^(l+m) r! / (2^l l! m! (r-2l-m)!)
//
// Row l reuses the running 2^l l! of row l-1.
func CoefA(r int) *CoefficientsA {
	rFac := factorial(r)
	rows := make([][]float64, r/2+1)

	lDenom := 1.0
	for l := range rows {
		if l > 0 {
			lDenom *= 2.0 * float64(l)
		}
		row := make([]float64, r-2*l+1)
		mDenom := 1.0
		for m := range row {
			if m > 0 {
				mDenom *= float64(m)
			}
			v := rFac / (lDenom * mDenom * factorial(r-2*l-m))
			if (l+m)%2 == 1 {
				v = -v
			}
			row[m] = v
		}
		rows[l] = row
	}
	return &CoefficientsA{order: r, rows: rows}
}

func (a *CoefficientsA) Order() int {
	return a.order
}

func (a *CoefficientsA) NumRows() int {
	return len(a.rows)
}

func (a *CoefficientsA) Row(l int) []float64 {
	return a.rows[l]
}

func (a *CoefficientsA) At(l, m int) float64 {
	return a.rows[l][m]
}

// Flat returns all entries row after row.
func (a *CoefficientsA) Flat() []float64 {
	res := []float64{}
	for _, row := range a.rows {
		res = append(res, row...)
	}
	return res
}

// CoefficientsB is a dense numClusters x terms x (order+1) table.
type CoefficientsB struct {
	numClusters int
	terms       int
	order       int
	data        []float64
}

func (b *CoefficientsB) index(k, j, m int) int {
	return (k*b.terms+j)*(b.order+1) + m
}

func (b *CoefficientsB) At(k, j, m int) float64 {
	return b.data[b.index(k, j, m)]
}

func (b *CoefficientsB) NumClusters() int {
	return b.numClusters
}

func (b *CoefficientsB) Terms() int {
	return b.terms
}

func (b *CoefficientsB) Order() int {
	return b.order
}

// Data exposes the flat table; callers must not modify it.
func (b *CoefficientsB) Data() []float64 {
	return b.data
}

// CoefB aggregates the data dependent coefficients of every cluster:
//
//	B[k][j][m] = q * sum over x in cluster k of exp(-t^2/2) t^(j+m) / j!,  t = (x-c_k)/bw
//
// Every sample contributes to exactly one cluster, so the cost is linear in
// the sample size. A non-finite entry is reported as common.ErrorNaN.
func CoefB(sample []float64, centres []float64, idx []int, bw float64,
	r int, terms int, q float64) (*CoefficientsB, error) {
	if len(sample) != len(idx) {
		return nil, fmt.Errorf("sample has %d points but %d cluster indices: %w",
			len(sample), len(idx), common.ErrorInvalidValue)
	}

	b := &CoefficientsB{
		numClusters: len(centres),
		terms:       terms,
		order:       r,
		data:        make([]float64, len(centres)*terms*(r+1)),
	}

	invFac := make([]float64, terms)
	invFac[0] = 1
	for j := 1; j < terms; j++ {
		invFac[j] = invFac[j-1] / float64(j)
	}

	powers := make([]float64, terms+r)
	for i, x := range sample {
		k := idx[i]
		t := (x - centres[k]) / bw
		weight := math.Exp(-t * t / 2.0)

		powers[0] = 1
		for j := 1; j < len(powers); j++ {
			powers[j] = powers[j-1] * t
		}

		base := b.index(k, 0, 0)
		for j := 0; j < terms; j++ {
			wj := weight * invFac[j]
			row := b.data[base+j*(r+1) : base+(j+1)*(r+1)]
			for m := range row {
				row[m] += wj * powers[j+m]
			}
		}
	}

	for i := range b.data {
		b.data[i] *= q
		if !utils.IsFinite(b.data[i]) {
			k := i / (terms * (r + 1))
			return nil, fmt.Errorf("coefficient %d of cluster %d is %v: %w",
				i%(terms*(r+1)), k, b.data[i], common.ErrorNaN)
		}
	}
	return b, nil
}
