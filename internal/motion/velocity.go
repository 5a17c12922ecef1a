package motion

// VelocityEstimator differentiates consecutive smoothed positions and
// averages the result over a rolling window.
//
// Raw velocity is prev - current on each axis. The tracked image is
// mirrored for display, so a positive X velocity means the wand moved
// right and a positive Y velocity means it moved up.
type VelocityEstimator struct {
	xs *Window
	ys *Window
}

// NewVelocityEstimator creates a VelocityEstimator with the given window size.
func NewVelocityEstimator(size int) *VelocityEstimator {
	return &VelocityEstimator{
		xs: NewWindow(size),
		ys: NewWindow(size),
	}
}

// Update pushes the velocity between prev and cur and returns the averaged velocity.
func (v *VelocityEstimator) Update(cur, prev Point) Point {
	v.xs.Push(prev.X - cur.X)
	v.ys.Push(prev.Y - cur.Y)
	return Point{X: v.xs.Mean(), Y: v.ys.Mean()}
}

// Size returns the velocity window size.
func (v *VelocityEstimator) Size() int {
	return v.xs.Size()
}

// Reset zero-fills both velocity windows.
func (v *VelocityEstimator) Reset() {
	v.xs.Reset()
	v.ys.Reset()
}
