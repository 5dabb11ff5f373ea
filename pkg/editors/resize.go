package editors

import "math"

// Resizer tracks a drag on a resize handle. Moves only change the live
// height; the height is committed on mouse-up.
type Resizer struct {
	body    *Body
	floor   int
	height  int
	commit  func(int)
	gesture *gesture
}

func newResizer(body *Body, floor int, commit func(int)) *Resizer {
	return &Resizer{body: body, floor: floor, commit: commit}
}

// Begin starts a drag at y with the element at height.
func (r *Resizer) Begin(y float64, height int) {
	r.gesture.stop()
	start := height
	r.height = height
	r.gesture = startGesture(r.body,
		func(ev MouseEvent) {
			r.height = r.clamp(start, ev.Y-y)
		},
		func(ev MouseEvent) {
			r.height = r.clamp(start, ev.Y-y)
			r.gesture = nil
			r.commit(r.height)
		},
	)
}

func (r *Resizer) clamp(start int, delta float64) int {
	h := int(math.Round(float64(start) + delta))
	if h < r.floor {
		return r.floor
	}
	return h
}

// Active reports whether a drag is in progress.
func (r *Resizer) Active() bool { return r.gesture != nil }

// Height is the live height of the current or last drag.
func (r *Resizer) Height() int { return r.height }

func (r *Resizer) Cancel() {
	r.gesture.stop()
	r.gesture = nil
}
