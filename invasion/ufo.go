package invasion

const (
	UFOWidth  = 16.0
	UFOHeight = 7.0
	UFOY      = 16.0
	UFOSpeed  = 1.0

	UFOMinInterval = 25000.0 // ms
	UFOMaxInterval = 30000.0 // ms, exclusive
)

// UFOValues are the possible awards for shooting down a UFO
var UFOValues = [...]int{50, 100, 150, 200}

// UFO is the bonus flyer crossing the top of the field
type UFO struct {
	X, Y  float64
	Dir   Direction
	Speed float64
}

// Bounds returns the UFO's box
func (u *UFO) Bounds() Rect {
	return Rect{X: u.X, Y: u.Y, W: UFOWidth, H: UFOHeight}
}

// Update moves the UFO one tick
func (u *UFO) Update() {
	u.X += float64(u.Dir) * u.Speed
}

// Gone reports whether the UFO has fully left the field
func (u *UFO) Gone() bool {
	return u.X+UFOWidth < 0 || u.X > FieldWidth
}

// UFOSpawner owns the spawn timer and the single live UFO
type UFOSpawner struct {
	UFO      *UFO    // nil while none is in flight
	Elapsed  float64 // ms accumulated since the last UFO disappeared
	Interval float64 // ms to wait before the next spawn
	rng      Rand
}

// NewUFOSpawner arms the first spawn timer
func NewUFOSpawner(rng Rand) *UFOSpawner {
	s := &UFOSpawner{rng: rng}
	s.Interval = s.NextInterval()
	return s
}

// NextInterval draws a spawn delay in [UFOMinInterval, UFOMaxInterval)
func (s *UFOSpawner) NextInterval() float64 {
	return UFOMinInterval + s.rng.Float64()*(UFOMaxInterval-UFOMinInterval)
}

// Result of one spawner tick
type UFOTick int

const (
	UFOIdle UFOTick = iota
	UFOSpawned
	UFOMoved
	UFOEscaped
)

// Update advances the live UFO or, if none is in flight, the timer.
// The timer restarts only after a UFO disappears.
func (s *UFOSpawner) Update(dtMillis float64) UFOTick {
	if s.UFO != nil {
		s.UFO.Update()
		if s.UFO.Gone() {
			s.reset()
			return UFOEscaped
		}
		return UFOMoved
	}
	s.Elapsed += dtMillis
	if s.Elapsed < s.Interval {
		return UFOIdle
	}
	s.spawn()
	return UFOSpawned
}

func (s *UFOSpawner) spawn() {
	u := &UFO{Y: UFOY, Speed: UFOSpeed, Dir: Right, X: -UFOWidth}
	if s.rng.Intn(2) == 1 {
		u.Dir = Left
		u.X = FieldWidth
	}
	s.UFO = u
	s.Elapsed = 0
}

func (s *UFOSpawner) reset() {
	s.UFO = nil
	s.Elapsed = 0
	s.Interval = s.NextInterval()
}

// CheckForCollisions shoots down the UFO if a projectile overlaps it and
// returns the value drawn at the moment of the hit
func (s *UFOSpawner) CheckForCollisions(incoming *Pool) (points int, hit bool) {
	if s.UFO == nil {
		return 0, false
	}
	for _, p := range incoming.Live() {
		if Overlap(p, s.UFO) && incoming.Consume(p) {
			points = UFOValues[s.rng.Intn(len(UFOValues))]
			s.reset()
			return points, true
		}
	}
	return 0, false
}
