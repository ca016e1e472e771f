package invasion

const (
	lastCursor = GridCells - 1

	marchStep         = 2.0
	descentStep       = 8.0
	boundaryMargin    = CellPitch
	FormationShotVY   = 2.0
	formationShotOffX = 8.0
	formationShotOffY = 8.0
)

// Mode is what the formation does with each invader it visits
type Mode uint8

const (
	Advancing Mode = iota
	Descending
)

func (m Mode) String() string {
	if m == Descending {
		return "descending"
	}
	return "advancing"
}

// Kill describes an invader destroyed by a projectile
type Kill struct {
	Row, Col int
	X, Y     float64
	Points   int
}

// Formation is the 5x11 invader grid and its movement/targeting state.
// Exactly one invader moves per Step, chosen by a cursor that sweeps
// the grid from cell 54 down to 0.
type Formation struct {
	grid     [GridRows][GridCols]*Invader // nil marks a destroyed cell
	cursor   int                          // -1 once a sweep is exhausted
	mode     Mode
	dir      Direction
	sweeps   int
	Missiles *Pool
	rng      Rand
}

// NewFormation fills the grid with its top edge at startY, marching right
func NewFormation(startY float64, rng Rand) *Formation {
	f := &Formation{
		cursor:   lastCursor,
		mode:     Advancing,
		dir:      Right,
		Missiles: NewPool(),
		rng:      rng,
	}
	for r := 0; r < GridRows; r++ {
		for c := 0; c < GridCols; c++ {
			f.grid[r][c] = NewInvader(r, c, startY)
		}
	}
	return f
}

// Cursor returns the turn pointer
func (f *Formation) Cursor() int { return f.cursor }

// Mode returns whether the formation is advancing or descending
func (f *Formation) Mode() Mode { return f.mode }

// Direction returns the horizontal heading
func (f *Formation) Direction() Direction { return f.dir }

// Sweeps returns how many full sweeps have completed
func (f *Formation) Sweeps() int { return f.sweeps }

// At returns the invader in a cell, or nil if destroyed
func (f *Formation) At(row, col int) *Invader {
	return f.grid[row][col]
}

// Destroy empties a cell
func (f *Formation) Destroy(row, col int) {
	f.grid[row][col] = nil
}

// cell maps a cursor value to grid coordinates for the current heading
func (f *Formation) cell(cursor int) (row, col int) {
	row = cursor / GridCols
	col = cursor % GridCols
	if f.dir == Left {
		col = GridCols - 1 - col
	}
	return row, col
}

// NextInvader walks the cursor down past destroyed cells and returns the
// first live invader, or nil when the sweep is exhausted
func (f *Formation) NextInvader() *Invader {
	for probes := 0; probes < GridCells && f.cursor >= 0; probes++ {
		row, col := f.cell(f.cursor)
		if inv := f.grid[row][col]; inv != nil {
			return inv
		}
		f.cursor--
	}
	return nil
}

// Step runs one formation tick: fire if the pool is empty, then move one
// invader. It returns the invader that moved, nil once cleared.
func (f *Formation) Step() *Invader {
	if f.Cleared() {
		return nil
	}
	if f.Missiles.Len() == 0 {
		f.Fire()
	}
	// A second pass is only needed after a rollover; a non-empty grid
	// always yields an invader on a fresh sweep.
	for pass := 0; pass < 2; pass++ {
		if inv := f.NextInvader(); inv != nil {
			if f.mode == Descending {
				inv.Move(0, descentStep)
			} else {
				inv.Move(float64(f.dir)*marchStep, 0)
			}
			f.cursor--
			return inv
		}
		f.rollover()
	}
	return nil
}

// rollover ends a sweep and decides the next one's mode
func (f *Formation) rollover() {
	if f.mode == Advancing {
		if f.AtBoundary() {
			f.mode = Descending
		}
	} else {
		f.mode = Advancing
		f.dir = f.dir.Flip()
	}
	f.sweeps++
	f.cursor = lastCursor
}

// column returns the live invaders of a column, back rank first
func (f *Formation) column(col int) []*Invader {
	var out []*Invader
	for r := 0; r < GridRows; r++ {
		if inv := f.grid[r][col]; inv != nil {
			out = append(out, inv)
		}
	}
	return out
}

// AtBoundary reports whether the leading live column has reached the
// field edge in the direction of travel
func (f *Formation) AtBoundary() bool {
	start, end, step := GridCols-1, -1, -1
	if f.dir == Left {
		start, end, step = 0, GridCols, 1
	}
	for c := start; c != end; c += step {
		col := f.column(c)
		if len(col) == 0 {
			continue
		}
		for _, inv := range col {
			if f.dir == Right && inv.X < FieldWidth-boundaryMargin {
				return false
			}
			if f.dir == Left && inv.X > 0 {
				return false
			}
		}
		return true
	}
	return false
}

// Shooter picks a random non-empty column and returns its frontmost
// invader, or nil if the formation is empty
func (f *Formation) Shooter() *Invader {
	var cols [][]*Invader
	for c := GridCols - 1; c >= 0; c-- {
		if col := f.column(c); len(col) > 0 {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	col := cols[f.rng.Intn(len(cols))]
	return col[len(col)-1]
}

// Fire launches a downward shot from a random shooter
func (f *Formation) Fire() *Projectile {
	shooter := f.Shooter()
	if shooter == nil {
		return nil
	}
	return f.Missiles.Spawn(shooter.X+formationShotOffX, shooter.Y+formationShotOffY, FormationShotVY)
}

// PointsForRow is the score for destroying an invader in row
func PointsForRow(row int) int {
	points := 10
	if row < 3 {
		points += 10
	}
	if row < 1 {
		points += 10
	}
	return points
}

// CheckForCollisions resolves incoming projectiles against the grid,
// scanning from the front rank backward. A projectile destroys every
// live invader it overlaps and is consumed once.
func (f *Formation) CheckForCollisions(incoming *Pool) []Kill {
	var kills []Kill
	for _, p := range incoming.Live() {
		for r := GridRows - 1; r >= 0; r-- {
			for c := GridCols - 1; c >= 0; c-- {
				inv := f.grid[r][c]
				if inv == nil || !Overlap(p, inv) {
					continue
				}
				incoming.Consume(p)
				f.grid[r][c] = nil
				kills = append(kills, Kill{Row: r, Col: c, X: inv.X, Y: inv.Y, Points: PointsForRow(r)})
			}
		}
	}
	return kills
}

// Remaining counts live invaders
func (f *Formation) Remaining() int {
	n := 0
	for r := range f.grid {
		for _, inv := range f.grid[r] {
			if inv != nil {
				n++
			}
		}
	}
	return n
}

// Cleared reports whether every cell is destroyed
func (f *Formation) Cleared() bool {
	return f.Remaining() == 0
}

// Invaders returns the live invaders in grid order
func (f *Formation) Invaders() []*Invader {
	out := make([]*Invader, 0, GridCells)
	for r := range f.grid {
		for _, inv := range f.grid[r] {
			if inv != nil {
				out = append(out, inv)
			}
		}
	}
	return out
}
