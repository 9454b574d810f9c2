package vmath

import "math"

// Lerp linearly interpolates a→b by t without clamping
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp restricts v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SmoothFactor returns the blend weight for exponential approach at rate over dt
// Two steps of dt/2 compose to one step of dt, keeping smoothing frame-rate independent
func SmoothFactor(rate, dt float64) float64 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt)
}

// Smooth moves current toward target by the exponential blend for rate and dt
func Smooth(current, target, rate, dt float64) float64 {
	return Lerp(current, target, SmoothFactor(rate, dt))
}

// IsFinite reports whether f is neither NaN nor ±Inf
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Sign returns -1, 0 or 1
func Sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}

// WrapAngle folds an angle into [-π, π)
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
