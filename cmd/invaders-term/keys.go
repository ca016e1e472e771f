package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"space-invasion/invasion"
)

// Action is what a key does
type Action int

const (
	ActNone Action = iota
	ActLeft
	ActRight
	ActFire
	ActPause
	ActReady // start, or restart after a result
	ActQuit
)

var actionNames = map[string]Action{
	"left":  ActLeft,
	"right": ActRight,
	"fire":  ActFire,
	"pause": ActPause,
	"ready": ActReady,
	"quit":  ActQuit,
}

var namedKeys = map[string]tcell.Key{
	"left":  tcell.KeyLeft,
	"right": tcell.KeyRight,
	"up":    tcell.KeyUp,
	"down":  tcell.KeyDown,
	"enter": tcell.KeyEnter,
	"tab":   tcell.KeyTab,
	"esc":   tcell.KeyEscape,
}

// KeyMap binds runes and special keys to actions
type KeyMap struct {
	runes map[rune]Action
	keys  map[tcell.Key]Action
}

// DefaultKeyMap binds arrows and a/d to move, space to fire
func DefaultKeyMap() KeyMap {
	return KeyMap{
		runes: map[rune]Action{
			'a': ActLeft, 'A': ActLeft,
			'd': ActRight, 'D': ActRight,
			' ': ActFire,
			'p': ActPause, 'P': ActPause,
			'r': ActReady, 'R': ActReady,
			'q': ActQuit, 'Q': ActQuit,
		},
		keys: map[tcell.Key]Action{
			tcell.KeyLeft:   ActLeft,
			tcell.KeyRight:  ActRight,
			tcell.KeyEnter:  ActReady,
			tcell.KeyEscape: ActQuit,
			tcell.KeyCtrlC:  ActQuit,
		},
	}
}

// Bind replaces every binding of action with the key called name: a
// single character, "space", or one of the named keys
func (m KeyMap) Bind(action, name string) error {
	act, ok := actionNames[strings.ToLower(strings.TrimSpace(action))]
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	name = strings.TrimSpace(name)

	var key tcell.Key
	var r rune
	switch {
	case strings.EqualFold(name, "space"):
		r = ' '
	case len([]rune(name)) == 1:
		r = []rune(name)[0]
	default:
		k, ok := namedKeys[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown key %q for %s", name, action)
		}
		key = k
	}

	for k, a := range m.runes {
		if a == act {
			delete(m.runes, k)
		}
	}
	for k, a := range m.keys {
		if a == act && k != tcell.KeyCtrlC {
			delete(m.keys, k)
		}
	}
	if r != 0 {
		m.runes[r] = act
	} else {
		m.keys[key] = act
	}
	return nil
}

// ParseKeys applies a comma separated list like "left=j,right=l,fire=k"
func (m KeyMap) ParseKeys(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, pair := range strings.Split(s, ",") {
		action, name, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("key binding %q: want action=key", pair)
		}
		if err := m.Bind(action, name); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the action bound to a key event
func (m KeyMap) Lookup(ev *tcell.EventKey) Action {
	if ev.Key() == tcell.KeyRune {
		return m.runes[ev.Rune()]
	}
	return m.keys[ev.Key()]
}

// keyHold is how long a key counts as held after its last press or
// repeat. Terminals send no key release.
const keyHold = 150 * time.Millisecond

// Held tracks the movement and fire keys as a held-key vector
type Held struct {
	left, right, fire time.Time
}

// Press records a press or auto-repeat of a held action
func (h *Held) Press(a Action, now time.Time) {
	switch a {
	case ActLeft:
		h.left = now
	case ActRight:
		h.right = now
	case ActFire:
		h.fire = now
	}
}

// Input returns the vector of keys still held at now
func (h *Held) Input(now time.Time) invasion.Input {
	held := func(t time.Time) bool { return !t.IsZero() && now.Sub(t) < keyHold }
	return invasion.Input{Left: held(h.left), Right: held(h.right), Fire: held(h.fire)}
}

// Release forgets every held key
func (h *Held) Release() {
	*h = Held{}
}
