package invasion

const (
	FieldWidth  = 224.0
	FieldHeight = 256.0
	CellPitch   = 16.0
)

// Rect is an axis-aligned box in field units
type Rect struct {
	X, Y float64
	W, H float64
}

// Boxed is anything that can be tested for overlap
type Boxed interface {
	Bounds() Rect
}

// Bounds lets a bare Rect take part in overlap tests
func (r Rect) Bounds() Rect {
	return r
}

// overlapX reports whether a's left or right edge lies strictly inside b
func overlapX(a, b Rect) bool {
	return (a.X > b.X && a.X < b.X+b.W) ||
		(a.X+a.W > b.X && a.X+a.W < b.X+b.W)
}

func overlapY(a, b Rect) bool {
	return (a.Y > b.Y && a.Y < b.Y+b.H) ||
		(a.Y+a.H > b.Y && a.Y+a.H < b.Y+b.H)
}

// Overlap reports whether a partially penetrates b on both axes.
// Edges that only touch do not count, and a box that fully contains b
// never registers because neither of its edges lies inside b.
func Overlap(a, b Boxed) bool {
	ra, rb := a.Bounds(), b.Bounds()
	return overlapX(ra, rb) && overlapY(ra, rb)
}

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
