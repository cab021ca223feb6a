package gdd

// Hermite evaluates the probabilists' Hermite polynomial He_r at x using
// He_{k+1}(x) = x*He_k(x) - k*He_{k-1}(x).
func Hermite(x float64, r int) float64 {
	if r <= 0 {
		return 1
	}
	prev, cur := 1.0, x
	for k := 1; k < r; k++ {
		prev, cur = cur, x*cur-float64(k)*prev
	}
	return cur
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}
