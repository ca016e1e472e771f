package invasion

const (
	ProjectileWidth  = 1.0
	ProjectileHeight = 4.0
)

// Projectile is a missile travelling straight up or down the field.
// It belongs to the pool that spawned it for its whole life.
type Projectile struct {
	X, Y  float64
	VY    float64 // field units per tick, negative is upward
	Alive bool
	pool  *Pool
}

// Bounds returns the projectile's box
func (p *Projectile) Bounds() Rect {
	return Rect{X: p.X, Y: p.Y, W: ProjectileWidth, H: ProjectileHeight}
}

// Owner returns the pool the projectile was spawned into
func (p *Projectile) Owner() *Pool {
	return p.pool
}

// Update moves the projectile one tick and retires it once it leaves
// the vertical bounds of the field
func (p *Projectile) Update() {
	if !p.Alive {
		return
	}
	p.Y += p.VY
	if p.Y < 0 || p.Y > FieldHeight {
		p.Alive = false
	}
}

// Pool holds the live projectiles of one shooter. Removal is deferred:
// Consume and Update only clear Alive, and Sweep drops dead entries, so
// a pool can be scanned by a collision check in the same tick its owner
// advances it.
type Pool struct {
	items []*Projectile
}

// NewPool creates an empty pool
func NewPool() *Pool {
	return &Pool{items: make([]*Projectile, 0, 4)}
}

// Spawn appends a new live projectile
func (pl *Pool) Spawn(x, y, vy float64) *Projectile {
	p := &Projectile{X: x, Y: y, VY: vy, Alive: true, pool: pl}
	pl.items = append(pl.items, p)
	return p
}

// Advance moves every live projectile and drops the ones that died
func (pl *Pool) Advance() {
	for _, p := range pl.items {
		p.Update()
	}
	pl.Sweep()
}

// Consume retires p if it belongs to this pool. It reports whether p was
// live before the call, so a projectile can only ever be consumed once.
func (pl *Pool) Consume(p *Projectile) bool {
	if p == nil || p.pool != pl || !p.Alive {
		return false
	}
	p.Alive = false
	return true
}

// Sweep compacts the pool in place, keeping order
func (pl *Pool) Sweep() {
	n := 0
	for _, p := range pl.items {
		if p.Alive {
			pl.items[n] = p
			n++
		}
	}
	for i := n; i < len(pl.items); i++ {
		pl.items[i] = nil
	}
	pl.items = pl.items[:n]
}

// Len returns the number of live projectiles
func (pl *Pool) Len() int {
	n := 0
	for _, p := range pl.items {
		if p.Alive {
			n++
		}
	}
	return n
}

// Live returns a snapshot of the live projectiles, safe to range over
// while consuming from the pool
func (pl *Pool) Live() []*Projectile {
	out := make([]*Projectile, 0, len(pl.items))
	for _, p := range pl.items {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Clear retires every projectile
func (pl *Pool) Clear() {
	for _, p := range pl.items {
		p.Alive = false
	}
	pl.Sweep()
}
