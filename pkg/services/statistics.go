package services

import "math"

// ProbabilityStats describes the spread of churn probabilities in a batch.
type ProbabilityStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// describeProbabilities returns nil when nothing was scored.
func describeProbabilities(values []float64) *ProbabilityStats {
	if len(values) == 0 {
		return nil
	}
	stats := &ProbabilityStats{
		Count:  len(values),
		Mean:   calculateMean(values),
		StdDev: calculateStandardDeviation(values),
		Min:    values[0],
		Max:    values[0],
	}
	for _, v := range values[1:] {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	return stats
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStandardDeviation is the population standard deviation.
func calculateStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := calculateMean(values)
	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}
