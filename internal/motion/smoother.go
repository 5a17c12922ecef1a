package motion

// Point is a smoothed 2D position or a 2D velocity.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Smoother averages the last N raw positions on each axis.
// Both axes share one write cursor, so slot i of each window always
// belongs to the same sample.
type Smoother struct {
	xs     *Window
	ys     *Window
	cursor int
}

// NewSmoother creates a Smoother with the given window size.
func NewSmoother(size int) *Smoother {
	return &Smoother{
		xs: NewWindow(size),
		ys: NewWindow(size),
	}
}

// Update records a raw sample and returns the averaged position.
func (s *Smoother) Update(rawX, rawY float64) Point {
	s.xs.Set(s.cursor, rawX)
	s.ys.Set(s.cursor, rawY)

	s.cursor++
	if s.cursor >= s.xs.Size() {
		s.cursor = 0
	}

	return Point{X: s.xs.Mean(), Y: s.ys.Mean()}
}

// Size returns the smoothing window size.
func (s *Smoother) Size() int {
	return s.xs.Size()
}

// Reset zero-fills both windows.
func (s *Smoother) Reset() {
	s.xs.Reset()
	s.ys.Reset()
	s.cursor = 0
}
