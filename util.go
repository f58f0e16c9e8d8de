package main

import "math"

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// round2 rounds to two decimals for the wire
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Distance returns the planar distance between two points
func Distance(x1, z1, x2, z2 float64) float64 {
	return math.Hypot(x2-x1, z2-z1)
}
