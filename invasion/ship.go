package invasion

const (
	ShipStartX   = 105.0
	ShipY        = 208.0
	ShipWidth    = 15.0 // drawn width, also the right-edge clamp
	ShipHitWidth = 16.0
	ShipHeight   = 8.0
	ShipHealth   = 3

	muzzleOffsetX = 7.0
	muzzleOffsetY = -4.0
)

// Direction is a horizontal heading
type Direction int8

const (
	Left  Direction = -1
	Right Direction = 1
)

// Flip returns the opposite heading
func (d Direction) Flip() Direction {
	return -d
}

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// Ship is the player's cannon
type Ship struct {
	X, Y     float64
	Health   int
	Cooldown int // frames until the next shot is allowed; fires at <= 0
	Config   ShipConfig
	Missiles *Pool
}

// NewShip places a ship at x on the firing line
func NewShip(x float64, cfg ShipConfig) *Ship {
	return &Ship{
		X:        x,
		Y:        ShipY,
		Health:   ShipHealth,
		Config:   cfg,
		Missiles: NewPool(),
	}
}

// Apply swaps in new stats; live missiles keep their speed
func (s *Ship) Apply(cfg ShipConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.Config = cfg
	return nil
}

// Bounds returns the ship's hit-box
func (s *Ship) Bounds() Rect {
	return Rect{X: s.X, Y: s.Y, W: ShipHitWidth, H: ShipHeight}
}

// Move shifts the ship by its speed and clamps it to the field
func (s *Ship) Move(dir Direction) {
	s.X = Clamp(s.X+float64(dir)*s.Config.Speed, 0, FieldWidth-ShipWidth)
}

// Recharge counts the cooldown down by one frame
func (s *Ship) Recharge() {
	s.Cooldown--
}

// Shoot fires a missile if capacity and cooldown allow. A refused shot
// is not an error.
func (s *Ship) Shoot() *Projectile {
	if s.Missiles.Len() >= s.Config.MissileCapacity || s.Cooldown > 0 {
		return nil
	}
	s.Cooldown = s.Config.RateOfFire
	return s.Missiles.Spawn(s.X+muzzleOffsetX, s.Y+muzzleOffsetY, -s.Config.MissileSpeed)
}

// CheckForCollisions consumes every enemy projectile touching the ship
// and returns how many did
func (s *Ship) CheckForCollisions(enemy *Pool) int {
	hits := 0
	for _, p := range enemy.Live() {
		if Overlap(p, s) && enemy.Consume(p) {
			hits++
		}
	}
	return hits
}

// TakeDamage removes health and reports whether the ship is destroyed
func (s *Ship) TakeDamage(n int) bool {
	if s.Health <= 0 {
		return false
	}
	s.Health -= n
	if s.Health <= 0 {
		s.Health = 0
		return true
	}
	return false
}
