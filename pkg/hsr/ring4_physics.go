package hsr

import (
	"math"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

// DefaultMaxSpeedMPS bounds implied ball/player speed between consecutive
// positions. 12 m/s comfortably exceeds elite sprint speed while still
// catching teleporting-position data errors.
const DefaultMaxSpeedMPS = 12.0

// Ring4 is HSR Ring 4, the stateful physics/kinematics validator. It holds
// (prev_t, prev_x, prev_y) across calls; the first valid call seeds the
// ring without a violation check, since there is no prior position to
// compare against.
type Ring4 struct {
	maxSpeedMPS float64
	seeded      bool
	prevT       float64
	prevX       float64
	prevY       float64
}

// NewRing4 constructs an unseeded ring with the given speed bound.
func NewRing4(maxSpeedMPS float64) *Ring4 {
	if maxSpeedMPS <= 0 {
		maxSpeedMPS = DefaultMaxSpeedMPS
	}
	return &Ring4{maxSpeedMPS: maxSpeedMPS}
}

// Check validates the position (x, y) at time t against the ring's stored
// previous position. present must reflect whether x/y/t were actually
// supplied by the caller, not merely whether they are non-zero. Only after
// a pass does the ring update its stored coordinates.
func (r *Ring4) Check(t, x, y float64, present bool) error {
	if !present {
		return pipeerr.New(pipeerr.HSRFailClosed, "HSR_FAIL_CLOSED:ring4 missing position")
	}

	if !r.seeded {
		r.seeded = true
		r.prevT, r.prevX, r.prevY = t, x, y
		return nil
	}

	dt := t - r.prevT
	if dt <= 0 {
		return pipeerr.New(pipeerr.HSRPhysicsViolation, "HSR_PHYSICS_VIOLATION: nonpositive_dt").
			With("dt", dt)
	}

	dx := x - r.prevX
	dy := y - r.prevY
	speed := math.Sqrt(dx*dx+dy*dy) / dt

	if speed > r.maxSpeedMPS {
		return pipeerr.New(pipeerr.HSRPhysicsViolation, "HSR_PHYSICS_VIOLATION: implied speed exceeds limit").
			With("speed_mps", speed).
			With("max_speed_mps", r.maxSpeedMPS)
	}

	r.prevT, r.prevX, r.prevY = t, x, y
	return nil
}
