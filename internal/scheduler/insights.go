package scheduler

import "math"

// outlierFilteredMean averages values after discarding those at or beyond
// two population standard deviations from the unfiltered mean. When the
// filter removes everything (including the all-equal case, where the
// deviation is zero), the unfiltered mean is returned instead.
func outlierFilteredMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	stddev := math.Sqrt(variance)

	filteredSum := 0.0
	filteredCount := 0
	for _, v := range values {
		if math.Abs(v-mean) < 2*stddev {
			filteredSum += v
			filteredCount++
		}
	}
	if filteredCount == 0 {
		return mean
	}
	return filteredSum / float64(filteredCount)
}
