// Package ramp advances a value linearly toward a target at a fixed rate.
//
// Unlike a caller-driven, blocking step sequence, Advance is a single pure
// call: give it how much time elapsed and how fast the quantity moves, and
// it returns the new value, never overshooting the target.
package ramp

import "github.com/jangala-dev/nodecore/x/mathx"

// Advance moves cur toward target at rate units per millisecond over
// elapsedMs, clamped so it never overshoots target and never leaves [lo,hi].
// rate <= 0 or elapsedMs <= 0 returns cur unchanged.
func Advance(cur, target, rate, elapsedMs, lo, hi float32) float32 {
	if rate <= 0 || elapsedMs <= 0 || cur == target {
		return mathx.Clamp(cur, lo, hi)
	}
	delta := rate * elapsedMs
	if cur < target {
		cur += delta
		if cur > target {
			cur = target
		}
	} else {
		cur -= delta
		if cur < target {
			cur = target
		}
	}
	return mathx.Clamp(cur, lo, hi)
}

// Consumed returns the elapsed time actually spent moving cur to target at
// the given rate, and the remainder left over once the target is reached
// (zero if the whole budget was needed). Used to split a motion tick's
// elapsed time between two sequential phases (e.g. tilt then height).
func Consumed(cur, target, rate, elapsedMs float32) (used, residue float32) {
	if rate <= 0 || cur == target {
		return 0, elapsedMs
	}
	dist := target - cur
	if dist < 0 {
		dist = -dist
	}
	need := dist / rate
	if need >= elapsedMs {
		return elapsedMs, 0
	}
	return need, elapsedMs - need
}
