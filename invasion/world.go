package invasion

// Input is the per-tick control vector
type Input struct {
	Left  bool
	Right bool
	Fire  bool
}

// RunState is managed by whoever drives the world; Step only simulates
// while Running
type RunState uint8

const (
	Running RunState = iota
	Paused
	GameOver
)

func (s RunState) String() string {
	switch s {
	case Paused:
		return "paused"
	case GameOver:
		return "game_over"
	default:
		return "running"
	}
}

// EventKind classifies what happened during a tick
type EventKind uint8

const (
	EventInvaderKilled EventKind = iota + 1
	EventUFOKilled
	EventUFOSpawned
	EventUFOEscaped
	EventShipHit
	EventFormationCleared
	EventGameOver
)

func (k EventKind) String() string {
	switch k {
	case EventInvaderKilled:
		return "invader_killed"
	case EventUFOKilled:
		return "ufo_killed"
	case EventUFOSpawned:
		return "ufo_spawned"
	case EventUFOEscaped:
		return "ufo_escaped"
	case EventShipHit:
		return "ship_hit"
	case EventFormationCleared:
		return "formation_cleared"
	case EventGameOver:
		return "game_over"
	}
	return "unknown"
}

// Event is emitted synchronously by Step. Points is the score delta for
// kill events and zero otherwise.
type Event struct {
	Kind     EventKind
	Points   int
	Row, Col int
	X, Y     float64
}

// World is one game of Space Invasion: a ship, a formation and a UFO
type World struct {
	Ship      *Ship
	Formation *Formation
	UFOs      *UFOSpawner
	Rules     Rules

	state   RunState
	tick    uint64
	cleared bool
}

// NewWorld builds a fresh game. cfg must already be validated.
func NewWorld(cfg ShipConfig, rules Rules, rng Rand) *World {
	if rng == nil {
		rng = NewRand(rules.Seed)
	}
	return &World{
		Ship:      NewShip(ShipStartX, cfg),
		Formation: NewFormation(formationStartY, rng),
		UFOs:      NewUFOSpawner(rng),
		Rules:     rules,
		state:     Running,
	}
}

// State returns the run state
func (w *World) State() RunState { return w.state }

// Tick returns the number of simulated ticks
func (w *World) Tick() uint64 { return w.tick }

// Cleared reports whether the formation has been wiped out
func (w *World) Cleared() bool { return w.cleared }

// Pause suspends simulation
func (w *World) Pause() {
	if w.state == Running {
		w.state = Paused
	}
}

// Resume continues a paused world
func (w *World) Resume() {
	if w.state == Paused {
		w.state = Running
	}
}

// Step advances the world by one frame of dtMillis and returns what
// happened. Order: input, ship, formation, UFO, collisions.
func (w *World) Step(in Input, dtMillis float64) []Event {
	if w.state != Running {
		return nil
	}
	w.tick++
	var events []Event

	ship := w.Ship
	ship.Recharge()
	if in.Left {
		ship.Move(Left)
	}
	if in.Right {
		ship.Move(Right)
	}
	if in.Fire {
		ship.Shoot()
	}
	ship.Missiles.Advance()

	f := w.Formation
	if !w.cleared {
		f.Step()
	}
	f.Missiles.Advance()

	switch w.UFOs.Update(dtMillis) {
	case UFOSpawned:
		u := w.UFOs.UFO
		events = append(events, Event{Kind: EventUFOSpawned, X: u.X, Y: u.Y})
	case UFOEscaped:
		events = append(events, Event{Kind: EventUFOEscaped})
	}

	events = append(events, w.resolveCollisions()...)

	ship.Missiles.Sweep()
	f.Missiles.Sweep()
	return events
}

// resolveCollisions runs every cross-entity check for the tick
func (w *World) resolveCollisions() []Event {
	var events []Event
	ship, f := w.Ship, w.Formation

	hits := ship.CheckForCollisions(f.Missiles)
	for i := 0; i < hits; i++ {
		events = append(events, Event{Kind: EventShipHit, X: ship.X, Y: ship.Y})
		if w.Rules.ShipDamage && ship.TakeDamage(1) {
			w.state = GameOver
			events = append(events, Event{Kind: EventGameOver})
			break
		}
	}

	if !w.cleared {
		for _, k := range f.CheckForCollisions(ship.Missiles) {
			events = append(events, Event{Kind: EventInvaderKilled, Points: k.Points, Row: k.Row, Col: k.Col, X: k.X, Y: k.Y})
		}
		if f.Cleared() {
			w.cleared = true
			events = append(events, Event{Kind: EventFormationCleared})
		}
	}

	if u := w.UFOs.UFO; u != nil {
		x, y := u.X, u.Y
		if points, hit := w.UFOs.CheckForCollisions(ship.Missiles); hit {
			events = append(events, Event{Kind: EventUFOKilled, Points: points, X: x, Y: y})
		}
	}
	return events
}

// Score sums the points carried by events
func Score(events []Event) int {
	total := 0
	for _, e := range events {
		total += e.Points
	}
	return total
}
