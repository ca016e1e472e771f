package main

import (
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"space-invasion/invasion"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	binary   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary = append(m.binary, data)
}

// find returns the envelopes of type t received so far
func (m *mockBroadcaster) find(t string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == t {
			out = append(out, env)
		}
	}
	return out
}

// newTestGame builds a game with no countdown so one tick starts the run
func newTestGame() *Game {
	cfg := DefaultGameConfig()
	cfg.Match.Countdown = 0
	cfg.Rules.Seed = 1
	return NewGame(cfg)
}

// startRun moves g from the lobby into a run
func startRun(t *testing.T, g *Game, pilotID string) {
	t.Helper()
	g.HandleReady(pilotID)
	if g.Phase() != PhaseCountdown {
		t.Fatalf("expected countdown after ready, got %s", g.Phase())
	}
	g.update()
	if g.Phase() != PhasePlaying {
		t.Fatalf("expected playing after countdown, got %s", g.Phase())
	}
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := newTestGame()
	p := g.AddPlayer("TestPilot", 0)
	if p.Name != "TestPilot" {
		t.Errorf("expected name TestPilot, got %s", p.Name)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
	if g.PilotID() != "" {
		t.Errorf("expected no pilot, got %s", g.PilotID())
	}
}

func TestGameFirstPlayerFlies(t *testing.T) {
	g := newTestGame()
	p1 := g.AddPlayer("A", 0)
	p2 := g.AddPlayer("B", 0)

	if p1.Role != RolePilot {
		t.Errorf("first player should be pilot, got %s", p1.Role)
	}
	if p2.Role != RoleSpectator {
		t.Errorf("second player should be spectator, got %s", p2.Role)
	}
	if g.PilotID() != p1.ID {
		t.Errorf("expected pilot %s, got %s", p1.ID, g.PilotID())
	}
}

func TestGameSessionFull(t *testing.T) {
	g := newTestGame()
	for i := 0; i < maxPlayersPerSession; i++ {
		if g.AddPlayer("P", 0) == nil {
			t.Fatalf("player %d rejected", i)
		}
	}
	if g.AddPlayer("Late", 0) != nil {
		t.Error("expected nil once the session is full")
	}
}

func TestGameHandleInputPilotOnly(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	watcher := g.AddPlayer("Watcher", 0)

	g.HandleInput(watcher.ID, ClientInput{Left: true})
	g.mu.RLock()
	in := g.input
	g.mu.RUnlock()
	if in.Left {
		t.Error("spectator input should be ignored")
	}

	g.HandleInput(pilot.ID, ClientInput{Left: true, Fire: true})
	g.mu.RLock()
	in = g.input
	g.mu.RUnlock()
	if !in.Left || !in.Fire {
		t.Errorf("pilot input not stored: %+v", in)
	}
}

func TestGameReadyStartsRun(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	watcher := g.AddPlayer("Watcher", 0)
	mock := &mockBroadcaster{}
	g.SetClient(watcher.ID, mock)

	g.HandleReady(watcher.ID)
	if g.Phase() != PhaseLobby {
		t.Errorf("spectator should not start the countdown, got %s", g.Phase())
	}

	startRun(t, g, pilot.ID)
	if len(mock.find(MsgPhase)) != 2 {
		t.Errorf("expected countdown and playing phase messages, got %d", len(mock.find(MsgPhase)))
	}
}

func TestGameUpdateMovesShip(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)

	// nothing moves in the lobby
	g.HandleInput(pilot.ID, ClientInput{Left: true})
	g.update()
	if x := g.world.Ship.X; x != invasion.ShipStartX {
		t.Errorf("ship moved in lobby: x=%f", x)
	}

	startRun(t, g, pilot.ID)
	for i := 0; i < 10; i++ {
		g.update()
	}
	if x := g.world.Ship.X; x != invasion.ShipStartX-10 {
		t.Errorf("expected ship at %f, got %f", invasion.ShipStartX-10, x)
	}
	if g.run.Duration <= 0 {
		t.Error("run duration should accumulate while playing")
	}
}

func TestGamePauseResume(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	startRun(t, g, pilot.ID)

	g.HandlePause(pilot.ID)
	if g.world.State() != invasion.Paused {
		t.Fatalf("expected paused, got %s", g.world.State())
	}
	tick := g.world.Tick()
	g.update()
	if g.world.Tick() != tick {
		t.Error("paused world should not advance")
	}

	g.HandleResume(pilot.ID)
	if g.world.State() != invasion.Running {
		t.Fatalf("expected running, got %s", g.world.State())
	}
	g.update()
	if g.world.Tick() != tick+1 {
		t.Errorf("expected tick %d, got %d", tick+1, g.world.Tick())
	}
}

func TestGameSetLoadout(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	watcher := g.AddPlayer("Watcher", 0)

	ship, err := g.SetLoadout(pilot.ID, "gunner")
	if err != nil {
		t.Fatalf("SetLoadout: %v", err)
	}
	if ship.MissileCapacity != 2 {
		t.Errorf("expected capacity 2, got %d", ship.MissileCapacity)
	}
	if g.world.Ship.Config != ship {
		t.Errorf("pilot ship not updated: %+v", g.world.Ship.Config)
	}

	ship, err = g.SetLoadout(watcher.ID, "scout")
	if err != nil {
		t.Fatalf("SetLoadout spectator: %v", err)
	}
	if ship.Speed != 2 {
		t.Errorf("expected scout speed 2, got %f", ship.Speed)
	}
	if g.world.Ship.Config.Speed != 1 {
		t.Error("spectator pick should not change the flying ship")
	}

	if _, err := g.SetLoadout(pilot.ID, "battleship"); err == nil {
		t.Error("expected error for unknown loadout")
	}
	if _, err := g.SetLoadout("nobody", "classic"); err != errNotInSession {
		t.Errorf("expected errNotInSession, got %v", err)
	}
}

func TestGameRunUsesPilotLoadout(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	if _, err := g.SetLoadout(pilot.ID, "lancer"); err != nil {
		t.Fatal(err)
	}
	startRun(t, g, pilot.ID)
	if g.world.Ship.Config.MissileSpeed != 5 {
		t.Errorf("new run should fly the lancer, got %+v", g.world.Ship.Config)
	}
}

func TestGamePilotLeavePromotesSpectator(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	watcher := g.AddPlayer("Watcher", 0)
	mock := &mockBroadcaster{}
	g.SetClient(watcher.ID, mock)

	startRun(t, g, pilot.ID)
	g.RemovePlayer(pilot.ID)

	if g.PilotID() != watcher.ID {
		t.Fatalf("expected %s to take the ship, got %s", watcher.ID, g.PilotID())
	}
	if g.Phase() != PhaseLobby {
		t.Errorf("abandoned run should return to lobby, got %s", g.Phase())
	}
	results := mock.find(MsgResult)
	if len(results) != 1 || results[0].Data.(ResultMsg).Reason != "abandoned" {
		t.Errorf("expected one abandoned result, got %+v", results)
	}
	welcomes := mock.find(MsgWelcome)
	if len(welcomes) != 1 || welcomes[0].Data.(WelcomeMsg).Role != RolePilot {
		t.Errorf("expected a pilot welcome, got %+v", welcomes)
	}
}

func TestGameHandleEventsTallies(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	mock := &mockBroadcaster{}
	g.SetClient(pilot.ID, mock)

	g.mu.Lock()
	g.handleEvents([]invasion.Event{
		{Kind: invasion.EventInvaderKilled, Points: 30, Row: 0, Col: 3},
		{Kind: invasion.EventInvaderKilled, Points: 10, Row: 4, Col: 0},
		{Kind: invasion.EventUFOKilled, Points: 200},
		{Kind: invasion.EventShipHit},
	})
	run := g.run
	g.mu.Unlock()

	if run.Score != 240 {
		t.Errorf("expected score 240, got %d", run.Score)
	}
	if run.Invaders != 2 || run.UFOs != 1 || run.HitsTaken != 1 {
		t.Errorf("unexpected tally: %+v", run)
	}
	kills := mock.find(MsgKill)
	if len(kills) != 3 {
		t.Fatalf("expected 3 kill messages, got %d", len(kills))
	}
	if last := kills[2].Data.(KillMsg); last.Kind != "ufo" || last.Score != 240 {
		t.Errorf("unexpected ufo kill message: %+v", last)
	}
	if len(mock.find(MsgHit)) != 1 {
		t.Error("expected a hit message")
	}
}

func TestGameEndRunAndRematch(t *testing.T) {
	g := newTestGame()
	pilot := g.AddPlayer("Pilot", 0)
	mock := &mockBroadcaster{}
	g.SetClient(pilot.ID, mock)
	startRun(t, g, pilot.ID)

	g.mu.Lock()
	g.run.Score = 500
	g.endRun("cleared")
	g.mu.Unlock()

	if g.Phase() != PhaseResult {
		t.Fatalf("expected result phase, got %s", g.Phase())
	}
	results := mock.find(MsgResult)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if r := results[0].Data.(ResultMsg); r.Reason != "cleared" || r.Score != 500 {
		t.Errorf("unexpected result: %+v", r)
	}

	// a finished run is not ended twice
	g.mu.Lock()
	g.endRun("destroyed")
	g.mu.Unlock()
	if len(mock.find(MsgResult)) != 1 {
		t.Error("endRun should be a no-op outside a run")
	}

	g.HandleRematch(pilot.ID)
	if g.Phase() != PhaseCountdown {
		t.Fatalf("expected countdown after rematch, got %s", g.Phase())
	}
	g.update()
	if g.Phase() != PhasePlaying || g.run.Score != 0 {
		t.Errorf("rematch should start a fresh run: phase=%s score=%d", g.Phase(), g.run.Score)
	}
	if g.match.Runs != 2 {
		t.Errorf("expected 2 runs, got %d", g.match.Runs)
	}
}

func TestGameBroadcastsBinaryState(t *testing.T) {
	g := newTestGame()
	p := g.AddPlayer("Pilot", 0)
	mock := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	for i := 0; i < TickRate; i++ {
		g.update()
	}

	if g.tick != TickRate {
		t.Errorf("expected tick %d, got %d", TickRate, g.tick)
	}
	if len(mock.binary) != BroadcastRate {
		t.Fatalf("expected %d frames, got %d", BroadcastRate, len(mock.binary))
	}

	var frame StateFrame
	if err := msgpack.Unmarshal(mock.binary[len(mock.binary)-1], &frame); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if frame.Tick != TickRate {
		t.Errorf("expected frame tick %d, got %d", TickRate, frame.Tick)
	}
	if frame.Phase != PhaseLobby {
		t.Errorf("expected lobby, got %s", frame.Phase)
	}
	if frame.Health != invasion.ShipHealth {
		t.Errorf("expected health %d, got %d", invasion.ShipHealth, frame.Health)
	}
	if len(frame.Items) != 1+invasion.GridCells {
		t.Fatalf("expected ship and full grid, got %d items", len(frame.Items))
	}
	if frame.Items[0].Kind != invasion.DrawShip {
		t.Errorf("first item should be the ship, got %d", frame.Items[0].Kind)
	}
}

func TestGameControllerAttach(t *testing.T) {
	g := newTestGame()
	p := g.AddPlayer("Pilot", 0)
	mock := &mockBroadcaster{}
	ctrl := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	g.SetController(p.ID, ctrl)
	if len(mock.find(MsgCtrlOn)) != 1 {
		t.Error("pilot should be told a controller attached")
	}

	g.HandleInput(p.ID, ClientInput{Right: true})
	g.RemoveController(p.ID)
	if len(mock.find(MsgCtrlOff)) != 1 {
		t.Error("pilot should be told the controller detached")
	}
	g.mu.RLock()
	in := g.input
	g.mu.RUnlock()
	if in.Right {
		t.Error("detaching the controller should release held keys")
	}
}
