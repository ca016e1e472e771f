package main

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"space-invasion/invasion"
)

const (
	fps           = 60
	frameDuration = time.Second / fps
	frameMillis   = 1000.0 / fps
)

// localGame runs a world in-process
type localGame struct {
	screen tcell.Screen
	keys   KeyMap
	cfg    Config
	world  *invasion.World
	held   Held
	score  int
	banner string
}

func newLocalGame(screen tcell.Screen, keys KeyMap, cfg Config) *localGame {
	g := &localGame{screen: screen, keys: keys, cfg: cfg}
	g.restart()
	return g
}

func (g *localGame) restart() {
	g.world = invasion.NewWorld(g.cfg.Ship, g.cfg.Rules, nil)
	g.score = 0
	g.banner = ""
	g.held.Release()
}

// over reports whether the run has finished
func (g *localGame) over() bool {
	return g.world.State() == invasion.GameOver || g.world.Cleared()
}

// handleKey applies one key event; it returns false to quit
func (g *localGame) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch act := g.keys.Lookup(ev); act {
	case ActQuit:
		return false
	case ActPause:
		if g.world.State() == invasion.Running {
			g.world.Pause()
			g.held.Release()
		} else {
			g.world.Resume()
		}
	case ActReady:
		if g.over() {
			g.restart()
		}
	default:
		g.held.Press(act, now)
	}
	return true
}

// step advances one frame and folds in the score
func (g *localGame) step(now time.Time) {
	if g.over() {
		return
	}
	g.score += invasion.Score(g.world.Step(g.held.Input(now), frameMillis))
	switch {
	case g.world.State() == invasion.GameOver:
		g.banner = "GAME OVER - press r"
	case g.world.Cleared():
		g.banner = "FORMATION CLEARED - press r"
	case g.world.State() == invasion.Paused:
		g.banner = "PAUSED"
	default:
		g.banner = ""
	}
}

func (g *localGame) hud() HUD {
	return HUD{
		Score:  g.score,
		Health: g.world.Ship.Health,
		State:  g.world.State().String(),
		Tick:   g.world.Tick(),
		Banner: g.banner,
	}
}

// run is the frame loop: poll keys, step, draw
func (g *localGame) run() {
	done := make(chan struct{})
	defer close(done)
	events := pollEvents(g.screen, done)

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !g.handleKey(ev, time.Now()) {
					return
				}
			case *tcell.EventResize:
				g.screen.Sync()
			}
		case now := <-ticker.C:
			g.step(now)
			drawFrame(g.screen, g.world.Drawables(), g.hud())
			g.screen.Show()
		}
	}
}

// eventSource is the slice of tcell.Screen the poller needs
type eventSource interface {
	PollEvent() tcell.Event
}

// pollEvents feeds screen events into a channel until the screen is
// finalized or done is closed. The channel is closed on exit.
func pollEvents(screen eventSource, done <-chan struct{}) <-chan tcell.Event {
	ch := make(chan tcell.Event, 16)
	go func() {
		defer close(ch)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case ch <- ev:
			case <-done:
				return
			}
		}
	}()
	return ch
}
