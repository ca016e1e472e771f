package invasion

import "testing"

// stubRand replays scripted values so shooter and UFO choices are fixed
type stubRand struct {
	ints   []int
	floats []float64
	i, f   int
}

func (s *stubRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.i%len(s.ints)]
	s.i++
	return v % n
}

func (s *stubRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.f%len(s.floats)]
	s.f++
	return v
}

func TestOverlapPartial(t *testing.T) {
	invader := Rect{X: 48, Y: 48, W: 11, H: 8}

	if !Overlap(Rect{X: 50, Y: 48, W: 1, H: 4}, invader) {
		t.Error("projectile at x=50 should overlap the hit-box")
	}
	if Overlap(Rect{X: 60, Y: 48, W: 1, H: 4}, invader) {
		t.Error("projectile at x=60 should miss the hit-box")
	}
}

func TestOverlapFlushEdgeDoesNotCount(t *testing.T) {
	b := Rect{X: 48, Y: 48, W: 11, H: 8}

	// right edge of b
	if Overlap(Rect{X: 59, Y: 50, W: 1, H: 4}, b) {
		t.Error("projectile flush with the right edge should not register")
	}
	// left edge: a ends exactly where b starts
	if Overlap(Rect{X: 47, Y: 50, W: 1, H: 4}, b) {
		t.Error("projectile flush with the left edge should not register")
	}
	// bottom edge
	if Overlap(Rect{X: 50, Y: 56, W: 1, H: 4}, b) {
		t.Error("projectile flush with the bottom edge should not register")
	}
}

func TestOverlapContainingBoxMisses(t *testing.T) {
	small := Rect{X: 48, Y: 48, W: 11, H: 8}
	big := Rect{X: 40, Y: 40, W: 40, H: 40}

	if Overlap(big, small) {
		t.Error("a box containing b has no edge inside b and should not register")
	}
	if !Overlap(Rect{X: 50, Y: 50, W: 2, H: 2}, big) {
		t.Error("a box inside b should register")
	}
}

func TestOverlapSameBoxMisses(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 5, H: 5}
	if Overlap(r, r) {
		t.Error("identical boxes have flush edges only and should not register")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-3, 0, 10) != 0 {
		t.Error("should clamp to min")
	}
	if Clamp(11, 0, 10) != 10 {
		t.Error("should clamp to max")
	}
	if Clamp(4, 0, 10) != 4 {
		t.Error("should pass through in range")
	}
}
