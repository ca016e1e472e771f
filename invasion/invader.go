package invasion

import "math"

const (
	InvaderHeight = 8.0
	GridRows      = 5
	GridCols      = 11
	GridCells     = GridRows * GridCols

	formationStartX = 16.0
	formationStartY = 32.0
)

// Invader occupies one cell of the formation grid
type Invader struct {
	X, Y float64 // top-left of the 16-wide cell
	W, H float64 // hit-box size
}

// WidthForRow returns the hit-box width of invaders in a row band
func WidthForRow(row int) float64 {
	switch {
	case row == 0:
		return 8
	case row < 3:
		return 11
	default:
		return 12
	}
}

// NewInvader creates the invader for grid cell (row, col) with the
// formation's top edge at startY
func NewInvader(row, col int, startY float64) *Invader {
	return &Invader{
		X: formationStartX + CellPitch*float64(col),
		Y: startY + CellPitch*float64(row),
		W: WidthForRow(row),
		H: InvaderHeight,
	}
}

// HitBox centers the invader's width inside its cell
func (inv *Invader) HitBox() Rect {
	return Rect{
		X: inv.X + math.Floor((CellPitch-inv.W)/2),
		Y: inv.Y,
		W: inv.W,
		H: inv.H,
	}
}

// Bounds returns the hit-box
func (inv *Invader) Bounds() Rect {
	return inv.HitBox()
}

// Move nudges the invader by (dx, dy)
func (inv *Invader) Move(dx, dy float64) {
	inv.X += dx
	inv.Y += dy
}
