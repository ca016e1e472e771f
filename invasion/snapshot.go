package invasion

// DrawKind tells a renderer what a rectangle is
type DrawKind uint8

const (
	DrawShip DrawKind = iota
	DrawInvader
	DrawShipMissile
	DrawInvaderMissile
	DrawUFO
)

// Drawable is an axis-aligned rectangle in field units. Row is the grid
// row for invaders so renderers can pick a sprite per band.
type Drawable struct {
	Kind DrawKind `msgpack:"k" json:"k"`
	X    float64  `msgpack:"x" json:"x"`
	Y    float64  `msgpack:"y" json:"y"`
	W    float64  `msgpack:"w" json:"w"`
	H    float64  `msgpack:"h" json:"h"`
	Row  int8     `msgpack:"r,omitempty" json:"r,omitempty"`
}

func drawRect(kind DrawKind, r Rect) Drawable {
	return Drawable{Kind: kind, X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// Drawables lists everything visible this tick
func (w *World) Drawables() []Drawable {
	f := w.Formation
	out := make([]Drawable, 0, 1+GridCells+4)

	out = append(out, Drawable{Kind: DrawShip, X: w.Ship.X, Y: w.Ship.Y, W: ShipWidth, H: ShipHeight})
	for r := 0; r < GridRows; r++ {
		for c := 0; c < GridCols; c++ {
			if inv := f.At(r, c); inv != nil {
				d := drawRect(DrawInvader, inv.HitBox())
				d.Row = int8(r)
				out = append(out, d)
			}
		}
	}
	for _, p := range w.Ship.Missiles.Live() {
		out = append(out, drawRect(DrawShipMissile, p.Bounds()))
	}
	for _, p := range f.Missiles.Live() {
		out = append(out, drawRect(DrawInvaderMissile, p.Bounds()))
	}
	if u := w.UFOs.UFO; u != nil {
		out = append(out, drawRect(DrawUFO, u.Bounds()))
	}
	return out
}
