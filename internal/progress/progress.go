package progress

import "math"

// Percentage returns completed/total as an integer percent in [0,100].
// A non-positive total means there is nothing to do and yields 0.
// Rounding is half-up on the percent value; over-completion clamps to 100.
func Percentage(total, completed int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	pct := roundHalfUp(float64(completed) * 100 / float64(total))
	if pct > 100 {
		return 100
	}
	return pct
}

// Mean is the unweighted integer average of values, rounded half-up.
// An empty input yields 0.
func Mean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return clamp(roundHalfUp(float64(sum) / float64(len(values))))
}

func roundHalfUp(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
