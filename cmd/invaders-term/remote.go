package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"space-invasion/invasion"
)

// stateFrame mirrors the server's msgpack state broadcast
type stateFrame struct {
	Tick      uint64              `msgpack:"tick"`
	Phase     int                 `msgpack:"ph"`
	Run       string              `msgpack:"rs"`
	Score     int                 `msgpack:"sc"`
	Health    int                 `msgpack:"hp"`
	Countdown float64             `msgpack:"cd,omitempty"`
	Items     []invasion.Drawable `msgpack:"d"`
}

type envelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

type outEnvelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

var phaseNames = []string{"lobby", "countdown", "playing", "result"}

func phaseName(p int) string {
	if p < 0 || p >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// encodeInput packs a held-key vector into the server's 2-byte frame
func encodeInput(in invasion.Input) []byte {
	var flags byte
	if in.Left {
		flags |= 0x01
	}
	if in.Right {
		flags |= 0x02
	}
	if in.Fire {
		flags |= 0x04
	}
	return []byte{0x01, flags}
}

// remoteGame flies or watches a ship on a server
type remoteGame struct {
	screen tcell.Screen
	keys   KeyMap
	conn   *websocket.Conn
	held   Held
	sent   invasion.Input
	role   string
	frame  stateFrame
	banner string
	frames chan stateFrame
	msgs   chan envelope
}

// dialRemote connects, creates a session when sid is empty, and joins it
func dialRemote(screen tcell.Screen, keys KeyMap, server, sid, name string) (*remoteGame, error) {
	conn, _, err := websocket.DefaultDialer.Dial(server, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", server, err)
	}
	g := &remoteGame{
		screen: screen,
		keys:   keys,
		conn:   conn,
		frames: make(chan stateFrame, 4),
		msgs:   make(chan envelope, 16),
	}

	if sid == "" {
		if err := g.send("create", map[string]string{"name": name, "sname": name + "'s invasion"}); err != nil {
			conn.Close()
			return nil, err
		}
		env, err := g.readJSON()
		if err != nil {
			conn.Close()
			return nil, err
		}
		if env.T != "created" {
			conn.Close()
			return nil, fmt.Errorf("create session: %s", errorText(env))
		}
		var created struct {
			SID string `json:"sid"`
		}
		json.Unmarshal(env.D, &created)
		sid = created.SID
	}

	if err := g.send("join", map[string]string{"name": name, "sid": sid}); err != nil {
		conn.Close()
		return nil, err
	}
	for g.role == "" {
		env, err := g.readJSON()
		if err != nil {
			conn.Close()
			return nil, err
		}
		switch env.T {
		case "error":
			conn.Close()
			return nil, fmt.Errorf("join %s: %s", sid, errorText(env))
		case "welcome":
			g.handleMessage(env)
		}
	}
	return g, nil
}

func errorText(env envelope) string {
	var e struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(env.D, &e) == nil && e.Msg != "" {
		return e.Msg
	}
	return "unexpected " + env.T
}

func (g *remoteGame) send(t string, data interface{}) error {
	b, err := json.Marshal(outEnvelope{T: t, Data: data})
	if err != nil {
		return err
	}
	g.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return g.conn.WriteMessage(websocket.TextMessage, b)
}

// readJSON reads until a text message arrives, dropping state frames
func (g *remoteGame) readJSON() (envelope, error) {
	for {
		g.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		msgType, raw, err := g.conn.ReadMessage()
		if err != nil {
			return envelope{}, err
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return envelope{}, err
		}
		return env, nil
	}
}

// readPump decodes server traffic into the frame and message channels
func (g *remoteGame) readPump() {
	defer close(g.msgs)
	g.conn.SetReadDeadline(time.Time{})
	for {
		msgType, raw, err := g.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.BinaryMessage {
			var f stateFrame
			if err := msgpack.Unmarshal(raw, &f); err != nil {
				log.Printf("state decode error: %v", err)
				continue
			}
			// keep only the newest frame when the renderer falls behind
			select {
			case g.frames <- f:
			default:
				select {
				case <-g.frames:
				default:
				}
				g.frames <- f
			}
			continue
		}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			g.msgs <- env
		}
	}
}

// handleMessage updates the banner and role from server messages
func (g *remoteGame) handleMessage(env envelope) {
	switch env.T {
	case "welcome":
		var w struct {
			Role string `json:"role"`
		}
		json.Unmarshal(env.D, &w)
		g.role = w.Role
		if g.role == "pilot" {
			g.banner = "press r to start"
		} else {
			g.banner = "spectating"
		}
	case "phase":
		var p struct {
			Name string `json:"name"`
			Run  string `json:"run"`
		}
		json.Unmarshal(env.D, &p)
		switch {
		case p.Name == "playing" && p.Run == "paused":
			g.banner = "PAUSED"
		case p.Name == "playing", p.Name == "countdown":
			g.banner = ""
		case p.Name == "lobby" && g.role == "pilot":
			g.banner = "press r to start"
		}
	case "result":
		var r struct {
			Reason string `json:"reason"`
			Score  int    `json:"sc"`
		}
		json.Unmarshal(env.D, &r)
		g.banner = fmt.Sprintf("%s with %d points", r.Reason, r.Score)
		if g.role == "pilot" {
			g.banner += " - press r"
		}
	case "error":
		g.banner = errorText(env)
	}
}

// handleKey applies one key event; it returns false to quit
func (g *remoteGame) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch act := g.keys.Lookup(ev); act {
	case ActQuit:
		return false
	case ActPause:
		if g.frame.Run == "paused" {
			g.send("resume", nil)
		} else {
			g.send("pause", nil)
		}
	case ActReady:
		if phaseName(g.frame.Phase) == "result" {
			g.send("rematch", nil)
		} else {
			g.send("ready", nil)
		}
	default:
		g.held.Press(act, now)
	}
	return true
}

// flushInput sends the held-key vector when it changed
func (g *remoteGame) flushInput(now time.Time) error {
	in := g.held.Input(now)
	if in == g.sent {
		return nil
	}
	g.sent = in
	g.conn.SetWriteDeadline(now.Add(5 * time.Second))
	return g.conn.WriteMessage(websocket.BinaryMessage, encodeInput(in))
}

func (g *remoteGame) hud() HUD {
	state := phaseName(g.frame.Phase)
	if state == "playing" {
		state = g.frame.Run
	}
	if state == "countdown" {
		state = fmt.Sprintf("countdown %.0f", g.frame.Countdown+0.49)
	}
	return HUD{
		Score:  g.frame.Score,
		Health: g.frame.Health,
		State:  g.role + " " + state,
		Tick:   g.frame.Tick,
		Banner: g.banner,
	}
}

func (g *remoteGame) run() error {
	defer g.conn.Close()
	go g.readPump()
	done := make(chan struct{})
	defer close(done)
	events := pollEvents(g.screen, done)

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !g.handleKey(ev, time.Now()) {
					g.conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				}
			case *tcell.EventResize:
				g.screen.Sync()
			}
		case env, ok := <-g.msgs:
			if !ok {
				return fmt.Errorf("connection closed")
			}
			g.handleMessage(env)
		case f := <-g.frames:
			g.frame = f
		case now := <-ticker.C:
			if g.role == "pilot" {
				if err := g.flushInput(now); err != nil {
					return err
				}
			}
			drawFrame(g.screen, g.frame.Items, g.hud())
			g.screen.Show()
		}
	}
}
