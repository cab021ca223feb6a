package gdd

import "math"

// ClusterCentres splits the unit interval into K = ceil(2/bw) intervals of
// equal width and returns their midpoints. The spacing of adjacent centres is
// therefore at most bw/2.
func ClusterCentres(bw float64) []float64 {
	k := int(math.Ceil(1.0 / (bw / 2.0)))
	if k < 1 {
		k = 1
	}
	width := 1.0 / float64(k)

	centres := make([]float64, k)
	for i := range centres {
		centres[i] = float64(i)*width + width/2.0
	}
	return centres
}

// ClusterWidth is the width of the intervals behind centres. No sample is
// further than half of it from its own centre.
func ClusterWidth(centres []float64) float64 {
	return 1.0 / float64(len(centres))
}

// ClusterIndices returns the index of the nearest centre for each sample
// point. Equidistant points go to the lower index.
func ClusterIndices(sample []float64, centres []float64) []int {
	width := ClusterWidth(centres)
	idx := make([]int, len(sample))
	for i, x := range sample {
		idx[i] = nearestCentre(x, centres, width)
	}
	return idx
}

func nearestCentre(x float64, centres []float64, width float64) int {
	last := len(centres) - 1
	k := int(math.Floor(x / width))
	if k < 0 {
		k = 0
	} else if k > last {
		k = last
	}

	// the interval guess can be off by one near boundaries
	for k > 0 && math.Abs(x-centres[k-1]) <= math.Abs(x-centres[k]) {
		k--
	}
	for k < last && math.Abs(x-centres[k+1]) < math.Abs(x-centres[k]) {
		k++
	}
	return k
}

// clusterOf is the interval that contains y, clamped to the valid range.
func clusterOf(y float64, numClusters int, width float64) int {
	k := int(math.Floor(y / width))
	if k < 0 {
		return 0
	}
	if k > numClusters-1 {
		return numClusters - 1
	}
	return k
}
