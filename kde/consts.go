package kde

const (
	// absolute error bound handed to the density derivative estimator
	DefaultErrorBound = 1e-3

	DefaultCut      = 3.0
	DefaultGridSize = 100

	ClipUpperZScore = 3.0
	ClipLowerZScore = 3.0

	MinCalculatePointCnt = 5

	// error of the density functionals relative to their normal scale value
	AmiseRelativeError = 1e-3
	// relative width of the bracket at which the bandwidth search stops
	AmiseTolerance     = 1e-4
	AmiseMaxIterations = 100
	// sample sizes up to sqrt of this use direct summation
	AmiseDirectThreshold = 250000
)

var (
	AllCalculateQuantiles = []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.1, 0.11,
		0.12, 0.9, 0.91, 0.92, 0.93, 0.94, 0.95, 0.96, 0.97, 0.98, 0.99}
)
