package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"space-invasion/invasion"
)

const (
	TickRate       = 60 // simulation ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate

	tickSeconds = 1.0 / TickRate
	tickMillis  = 1000.0 / TickRate
)

const maxPlayersPerSession = 8

// Broadcaster sends messages to one connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// GameConfig is what every run in a session is built from
type GameConfig struct {
	Ship  invasion.ShipConfig
	Rules invasion.Rules
	Match MatchConfig
}

// DefaultGameConfig returns the arcade settings
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Ship:  invasion.DefaultShipConfig(),
		Match: DefaultMatchConfig(),
	}
}

// Game holds the state for one session: a single world flown by one
// pilot and watched by everyone else
type Game struct {
	mu          sync.RWMutex
	cfg         GameConfig
	world       *invasion.World
	match       MatchState
	pilots      map[string]*Pilot
	order       []string // join order, for handing the ship over
	pilotID     string
	clients     map[string]Broadcaster // playerID -> client
	controllers map[string]Broadcaster // pilotID -> phone controller
	input       invasion.Input
	run         RunStats
	tick        uint64
	running     bool
	stop        chan struct{}

	sessionID string
	db        *DB
	analytics *Analytics
}

// NewGame creates a Game waiting in the lobby
func NewGame(cfg GameConfig) *Game {
	g := &Game{
		cfg:         cfg,
		match:       NewMatchState(cfg.Match),
		pilots:      make(map[string]*Pilot),
		clients:     make(map[string]Broadcaster),
		controllers: make(map[string]Broadcaster),
		stop:        make(chan struct{}),
	}
	g.world = invasion.NewWorld(cfg.Ship, cfg.Rules, nil)
	return g
}

// Persist attaches the stores that runs are recorded to. Either may be nil.
func (g *Game) Persist(sessionID string, db *DB, analytics *Analytics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionID = sessionID
	g.db = db
	g.analytics = analytics
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// AddPlayer adds a player, linked to an account when authID is non-zero.
// The first one in flies the ship.
func (g *Game) AddPlayer(name string, authID int64) *Pilot {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.pilots) >= maxPlayersPerSession {
		return nil
	}

	role := RoleSpectator
	if g.pilotID == "" {
		role = RolePilot
	}
	p := NewPilot(GenerateID(4), name, role)
	p.AuthPlayerID = authID
	g.pilots[p.ID] = p
	g.order = append(g.order, p.ID)
	if role == RolePilot {
		g.pilotID = p.ID
	}
	return p
}

// RemovePlayer removes a player. If the pilot leaves, the run in progress
// is abandoned and the longest-waiting spectator takes the ship.
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.pilots[id]; !ok {
		return
	}
	if id == g.pilotID && (g.match.Phase == PhasePlaying || g.match.Phase == PhaseCountdown) {
		if g.match.Phase == PhasePlaying {
			g.endRun("abandoned")
		}
		g.match.Reset()
		g.world = invasion.NewWorld(g.cfg.Ship, g.cfg.Rules, nil)
		g.broadcastPhase()
	}

	delete(g.pilots, id)
	delete(g.clients, id)
	delete(g.controllers, id)
	for i, pid := range g.order {
		if pid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}

	if id == g.pilotID {
		g.pilotID = ""
		g.input = invasion.Input{}
		if len(g.order) > 0 {
			next := g.pilots[g.order[0]]
			next.Role = RolePilot
			g.pilotID = next.ID
			if c, ok := g.clients[next.ID]; ok {
				c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: next.ID, Role: next.Role, Loadout: next.Loadout}})
			}
		}
	}
}

// LinkAuth ties a player to an account after they sign in mid-session
func (g *Game) LinkAuth(playerID string, authID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.pilots[playerID]; ok {
		p.AuthPlayerID = authID
	}
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// SetController attaches a phone controller to the pilot
func (g *Game) SetController(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controllers[playerID] = client
	if c, ok := g.clients[playerID]; ok {
		c.SendJSON(Envelope{T: MsgCtrlOn})
	}
}

// RemoveController detaches the phone controller from a player
func (g *Game) RemoveController(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.controllers[playerID]; !ok {
		return
	}
	delete(g.controllers, playerID)
	if playerID == g.pilotID {
		g.input = invasion.Input{}
	}
	if c, ok := g.clients[playerID]; ok {
		c.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

// HasPlayer reports whether a player is in the session
func (g *Game) HasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.pilots[id]
	return ok
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pilots)
}

// PilotID returns the player flying the ship, "" if nobody is
func (g *Game) PilotID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pilotID
}

// Phase returns the current match phase
func (g *Game) Phase() MatchPhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.match.Phase
}

// HandleInput stores the pilot's held-key vector until it changes.
// Input from anyone but the pilot is ignored.
func (g *Game) HandleInput(playerID string, input ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.pilotID {
		return
	}
	g.input = input.Input()
}

// HandleReady starts the countdown from the lobby
func (g *Game) HandleReady(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.pilotID || g.match.Phase != PhaseLobby {
		return
	}
	if g.match.StartCountdown() {
		g.broadcastPhase()
	}
}

// HandleRematch starts a fresh run after a result
func (g *Game) HandleRematch(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.pilotID || g.match.Phase != PhaseResult {
		return
	}
	g.world = invasion.NewWorld(g.shipConfig(), g.cfg.Rules, nil)
	if g.match.StartCountdown() {
		g.broadcastPhase()
	}
}

// HandlePause suspends a run in progress
func (g *Game) HandlePause(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.pilotID || g.match.Phase != PhasePlaying {
		return
	}
	if g.world.State() == invasion.Running {
		g.world.Pause()
		g.broadcastPhase()
	}
}

// HandleResume continues a paused run
func (g *Game) HandleResume(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.pilotID || g.match.Phase != PhasePlaying {
		return
	}
	if g.world.State() == invasion.Paused {
		g.world.Resume()
		g.broadcastPhase()
	}
}

// SetLoadout picks a ship preset for a player. The pilot's ship takes the
// new stats immediately; a spectator's pick applies once they fly.
func (g *Game) SetLoadout(playerID, name string) (invasion.ShipConfig, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pilots[playerID]
	if !ok {
		return invasion.ShipConfig{}, errNotInSession
	}
	l, err := GetLoadout(name)
	if err != nil {
		return invasion.ShipConfig{}, err
	}
	p.Loadout = l.Name
	cfg := l.Ship
	if l.Name == DefaultLoadout {
		cfg = g.cfg.Ship
	}
	if playerID == g.pilotID {
		if err := g.world.Ship.Apply(cfg); err != nil {
			return invasion.ShipConfig{}, err
		}
	}
	return cfg, nil
}

// shipConfig returns the stats the current pilot flies with. The default
// loadout uses the server's configured ship.
func (g *Game) shipConfig() invasion.ShipConfig {
	p, ok := g.pilots[g.pilotID]
	if !ok || p.Loadout == DefaultLoadout {
		return g.cfg.Ship
	}
	if l, err := GetLoadout(p.Loadout); err == nil {
		return l.Ship
	}
	return g.cfg.Ship
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++

	switch g.match.Phase {
	case PhaseCountdown:
		if g.match.Advance(tickSeconds) {
			g.startRun()
		}
	case PhasePlaying:
		if g.world.State() == invasion.Running {
			g.run.Duration += tickSeconds
		}
		g.handleEvents(g.world.Step(g.input, tickMillis))
		switch {
		case g.world.State() == invasion.GameOver:
			g.endRun("destroyed")
		case g.world.Cleared():
			g.endRun("cleared")
		}
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// startRun begins a fresh run with the pilot's loadout
func (g *Game) startRun() {
	g.world = invasion.NewWorld(g.shipConfig(), g.cfg.Rules, nil)
	g.run = RunStats{Started: time.Now()}
	g.broadcastPhase()
	g.analytics.Track(EvtRunStart, g.pilotAuthID(), g.sessionID, "")
}

// handleEvents folds one tick's events into the run tally and tells clients
func (g *Game) handleEvents(events []invasion.Event) {
	for _, e := range events {
		switch e.Kind {
		case invasion.EventInvaderKilled:
			g.run.Score += e.Points
			g.run.Invaders++
			g.broadcastMsg(Envelope{T: MsgKill, Data: KillMsg{
				Kind: "invader", Row: e.Row, Col: e.Col, X: e.X, Y: e.Y,
				Points: e.Points, Score: g.run.Score,
			}})
			g.analytics.Track(EvtInvaderKill, g.pilotAuthID(), g.sessionID,
				eventData(map[string]int{"row": e.Row, "pts": e.Points}))
		case invasion.EventUFOKilled:
			g.run.Score += e.Points
			g.run.UFOs++
			g.broadcastMsg(Envelope{T: MsgKill, Data: KillMsg{
				Kind: "ufo", X: e.X, Y: e.Y, Points: e.Points, Score: g.run.Score,
			}})
			g.analytics.Track(EvtUFOKill, g.pilotAuthID(), g.sessionID,
				eventData(map[string]int{"pts": e.Points}))
		case invasion.EventUFOSpawned:
			g.broadcastMsg(Envelope{T: MsgUFO, Data: UFOMsg{Event: "spawn", X: e.X}})
		case invasion.EventUFOEscaped:
			g.broadcastMsg(Envelope{T: MsgUFO, Data: UFOMsg{Event: "escape"}})
		case invasion.EventShipHit:
			g.run.HitsTaken++
			g.broadcastMsg(Envelope{T: MsgHit, Data: HitMsg{Health: g.world.Ship.Health}})
			g.analytics.Track(EvtShipHit, g.pilotAuthID(), g.sessionID, "")
		case invasion.EventFormationCleared:
			g.run.Cleared = true
		case invasion.EventGameOver:
			g.run.Destroyed = true
		}
	}
}

// endRun moves to the result phase, records the run and announces it
func (g *Game) endRun(reason string) {
	if !g.match.Finish() {
		return
	}
	run := g.run
	result := ResultMsg{
		Reason:   reason,
		Score:    run.Score,
		Invaders: run.Invaders,
		UFOs:     run.UFOs,
		Hits:     run.HitsTaken,
		Duration: run.Duration,
	}

	authID := g.pilotAuthID()
	g.analytics.Track(EvtRunEnd, authID, g.sessionID, eventData(map[string]interface{}{
		"reason":   reason,
		"score":    run.Score,
		"duration": run.Duration,
	}))

	var unlocked []AchievementDef
	if g.db != nil && authID > 0 {
		xp, level, err := g.db.UpdateStatsAfterRun(authID, run)
		if err != nil {
			log.Printf("stats update error for player %d: %v", authID, err)
		} else {
			result.XP = xp
			result.Level = level
			unlocked = CheckAchievements(g.db, authID, run)
		}
	}

	g.broadcastMsg(Envelope{T: MsgResult, Data: result})
	g.broadcastPhase()

	if c, ok := g.clients[g.pilotID]; ok {
		for _, a := range unlocked {
			c.SendJSON(Envelope{T: MsgAchievement, Data: AchievementMsg{ID: a.ID, Name: a.Name, Description: a.Description}})
			g.analytics.Track(EvtAchievement, authID, g.sessionID, eventData(map[string]string{"id": a.ID}))
		}
	}
}

func (g *Game) pilotAuthID() int64 {
	if p, ok := g.pilots[g.pilotID]; ok {
		return p.AuthPlayerID
	}
	return 0
}

// frame builds the snapshot sent to every client
func (g *Game) frame() StateFrame {
	return StateFrame{
		Tick:      g.tick,
		Phase:     g.match.Phase,
		Run:       g.world.State().String(),
		Score:     g.run.Score,
		Health:    g.world.Ship.Health,
		Countdown: g.match.CountdownT,
		Items:     g.world.Drawables(),
	}
}

// broadcastState sends the current world as a msgpack binary frame
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(g.frame())
	if err != nil {
		log.Printf("state marshal error: %v", err)
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
}

func (g *Game) broadcastPhase() {
	g.broadcastMsg(Envelope{T: MsgPhase, Data: PhaseMsg{
		Phase:     g.match.Phase,
		Name:      g.match.Phase.String(),
		Run:       g.world.State().String(),
		Countdown: g.match.CountdownT,
	}})
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}

// eventData encodes analytics metadata
func eventData(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
