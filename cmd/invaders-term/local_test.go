package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"space-invasion/invasion"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Rules.Seed = 1
	return cfg
}

func TestLocalGameMovesAndPauses(t *testing.T) {
	g := newLocalGame(nil, DefaultKeyMap(), testConfig())
	now := time.Unix(1000, 0)

	g.handleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), now)
	g.step(now)
	if g.world.Ship.X != invasion.ShipStartX-1 {
		t.Errorf("expected ship at %f, got %f", invasion.ShipStartX-1, g.world.Ship.X)
	}

	g.handleKey(runeKey('p'), now)
	if g.world.State() != invasion.Paused {
		t.Fatalf("expected paused, got %s", g.world.State())
	}
	g.step(now)
	if g.banner != "PAUSED" || g.world.Tick() != 1 {
		t.Errorf("paused step: banner=%q tick=%d", g.banner, g.world.Tick())
	}

	g.handleKey(runeKey('p'), now)
	if g.world.State() != invasion.Running {
		t.Errorf("expected running, got %s", g.world.State())
	}
	if g.handleKey(runeKey('q'), now) {
		t.Error("q should quit")
	}
}

func TestLocalGameRestartAfterClear(t *testing.T) {
	g := newLocalGame(nil, DefaultKeyMap(), testConfig())
	now := time.Unix(1000, 0)

	// restart does nothing mid-run
	g.world.Step(invasion.Input{}, frameMillis)
	g.handleKey(runeKey('r'), now)
	if g.world.Tick() != 1 {
		t.Error("restart should be ignored while running")
	}

	for r := 0; r < invasion.GridRows; r++ {
		for c := 0; c < invasion.GridCols; c++ {
			g.world.Formation.Destroy(r, c)
		}
	}
	g.step(now)
	if !g.over() || !strings.Contains(g.banner, "CLEARED") {
		t.Fatalf("expected cleared banner, got %q", g.banner)
	}

	g.handleKey(runeKey('r'), now)
	if g.over() || g.world.Tick() != 0 {
		t.Error("r should start a fresh world")
	}
}

func TestEncodeInput(t *testing.T) {
	tests := []struct {
		in   invasion.Input
		want byte
	}{
		{invasion.Input{}, 0},
		{invasion.Input{Left: true}, 0x01},
		{invasion.Input{Right: true, Fire: true}, 0x06},
	}
	for _, tt := range tests {
		b := encodeInput(tt.in)
		if len(b) != 2 || b[0] != 0x01 || b[1] != tt.want {
			t.Errorf("encodeInput(%+v) = %v", tt.in, b)
		}
	}
}

func TestRemoteHandleMessage(t *testing.T) {
	g := &remoteGame{}
	msg := func(typ string, v interface{}) envelope {
		b, _ := json.Marshal(v)
		return envelope{T: typ, D: b}
	}

	g.handleMessage(msg("welcome", map[string]string{"role": "spectator"}))
	if g.role != "spectator" || g.banner != "spectating" {
		t.Errorf("welcome: role=%q banner=%q", g.role, g.banner)
	}
	g.handleMessage(msg("welcome", map[string]string{"role": "pilot"}))
	if g.role != "pilot" {
		t.Errorf("promotion not applied: %q", g.role)
	}

	g.handleMessage(msg("phase", map[string]string{"name": "playing", "run": "paused"}))
	if g.banner != "PAUSED" {
		t.Errorf("expected PAUSED, got %q", g.banner)
	}
	g.handleMessage(msg("result", map[string]interface{}{"reason": "cleared", "sc": 990}))
	if g.banner != "cleared with 990 points - press r" {
		t.Errorf("unexpected result banner %q", g.banner)
	}
	g.handleMessage(msg("error", map[string]string{"msg": "session full"}))
	if g.banner != "session full" {
		t.Errorf("unexpected error banner %q", g.banner)
	}
}

func TestRemoteHUD(t *testing.T) {
	g := &remoteGame{role: "pilot", frame: stateFrame{Phase: 2, Run: "paused", Score: 50}}
	if hud := g.hud(); hud.State != "pilot paused" || hud.Score != 50 {
		t.Errorf("unexpected hud %+v", hud)
	}
	g.frame = stateFrame{Phase: 1, Countdown: 2.2}
	if hud := g.hud(); hud.State != "pilot countdown 3" {
		t.Errorf("unexpected countdown hud %q", hud.State)
	}
	if phaseName(9) != "unknown" {
		t.Error("out of range phase should be unknown")
	}
}

// endlessKeys never runs dry, like a user holding a key
type endlessKeys struct{}

func (endlessKeys) PollEvent() tcell.Event {
	return tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)
}

func TestPollEventsStopsWhenDone(t *testing.T) {
	done := make(chan struct{})
	events := pollEvents(endlessKeys{}, done)
	if _, ok := <-events; !ok {
		t.Fatal("expected an event before done")
	}
	close(done)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("poller kept running after done was closed")
		}
	}
}

type finishedScreen struct{}

func (finishedScreen) PollEvent() tcell.Event { return nil }

func TestPollEventsClosesOnFinalizedScreen(t *testing.T) {
	events := pollEvents(finishedScreen{}, make(chan struct{}))
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected a closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not exit on a nil event")
	}
}
