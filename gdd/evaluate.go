package gdd

import (
	"math"
	"sync"
)

// fastEvaluator sums the truncated expansions of all clusters whose centre
// lies within ry of an evaluation point. All coordinates are normalized.
type fastEvaluator struct {
	bw      float64
	r       int
	ry      float64
	width   float64
	centres []float64
	a       *CoefficientsA
	b       *CoefficientsB
}

func (e *fastEvaluator) evaluate(eval []float64, workers int) []float64 {
	res := make([]float64, len(eval))
	parallelFor(len(eval), workers, func(lo, hi int) {
		powers := make([]float64, e.b.terms+e.r)
		for i := lo; i < hi; i++ {
			res[i] = e.at(eval[i], powers)
		}
	})
	return res
}

func (e *fastEvaluator) at(y float64, powers []float64) float64 {
	numClusters := len(e.centres)
	start := clusterOf(y, numClusters, e.width)

	sum := 0.0
	for k := start; k < numClusters; k++ {
		d := y - e.centres[k]
		if math.Abs(d) > e.ry {
			break
		}
		sum += e.cluster(k, d, powers)
	}
	for k := start - 1; k >= 0; k-- {
		d := y - e.centres[k]
		if math.Abs(d) > e.ry {
			break
		}
		sum += e.cluster(k, d, powers)
	}
	return sum
}

// cluster evaluates the expansion of cluster k at distance d from its centre.
func (e *fastEvaluator) cluster(k int, d float64, powers []float64) float64 {
	u := d / e.bw
	weight := math.Exp(-u * u / 2.0)

	powers[0] = 1
	for i := 1; i < len(powers); i++ {
		powers[i] = powers[i-1] * u
	}

	r := e.r
	stride := r + 1
	coefs := e.b.data[e.b.index(k, 0, 0) : e.b.index(k, 0, 0)+e.b.terms*stride]

	sum := 0.0
	for j := 0; j < e.b.terms; j++ {
		bj := coefs[j*stride : (j+1)*stride]
		for l, row := range e.a.rows {
			for m, a := range row {
				sum += a * bj[m] * powers[j+r-2*l-m]
			}
		}
	}
	return weight * sum
}

// directEvaluator sums the r-th Gaussian derivative over every sample point.
type directEvaluator struct {
	bw     float64
	r      int
	q      float64
	sample []float64
}

func (e *directEvaluator) evaluate(eval []float64, workers int) []float64 {
	res := make([]float64, len(eval))
	parallelFor(len(eval), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			res[i] = e.at(eval[i])
		}
	})
	return res
}

func (e *directEvaluator) at(y float64) float64 {
	sum := 0.0
	for _, x := range e.sample {
		u := (y - x) / e.bw
		sum += Hermite(u, e.r) * math.Exp(-u*u/2.0)
	}
	return e.q * sum
}

// parallelFor splits [0, n) into contiguous chunks, one per worker. Chunks
// never overlap so body may write to its own index range without locking.
func parallelFor(n int, workers int, body func(lo, hi int)) {
	if workers < 2 || n < 2 {
		body(0, n)
		return
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			body(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
