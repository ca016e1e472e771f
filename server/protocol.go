package main

import (
	"encoding/json"

	"space-invasion/invasion"
)

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgInput    = "input"
	MsgCreate   = "create"  // create session
	MsgList     = "list"    // list sessions
	MsgCheck    = "check"   // check if session exists
	MsgControl  = "control" // phone controller attach
	MsgReady    = "ready"   // pilot starts the countdown
	MsgPause    = "pause"
	MsgResume   = "resume"
	MsgLoadout  = "loadout" // pick a ship preset
	MsgRematch  = "rematch"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with a stored token
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgState       = "state"
	MsgWelcome     = "welcome"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created" // session created, client should navigate
	MsgError       = "error"
	MsgChecked     = "checked"    // session check response
	MsgControlOK   = "control_ok" // controller attach confirmed
	MsgCtrlOn      = "ctrl_on"    // notify pilot: controller attached
	MsgCtrlOff     = "ctrl_off"   // notify pilot: controller detached
	MsgPhase       = "phase"      // match phase changed
	MsgKill        = "kill"       // invader or UFO destroyed
	MsgHit         = "hit"        // ship struck by an enemy shot
	MsgUFO         = "ufo"        // UFO appeared or escaped
	MsgResult      = "result"     // run finished
	MsgLoadoutOK   = "loadout_ok"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgAchievement = "achievement"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages, json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Binary input frame: [inputMarker, flags]
const (
	inputMarker  = 0x01
	inputLeft    = 0x01
	inputRight   = 0x02
	inputFire    = 0x04
	inputFrameSz = 2
)

// ClientInput is the held-key vector, sent whenever it changes
type ClientInput struct {
	Left  bool `json:"l"`
	Right bool `json:"r"`
	Fire  bool `json:"f"`
}

// Input converts to the simulation's input vector
func (in ClientInput) Input() invasion.Input {
	return invasion.Input{Left: in.Left, Right: in.Right, Fire: in.Fire}
}

// EncodeInput packs an input vector into a binary frame
func EncodeInput(in ClientInput) []byte {
	var flags byte
	if in.Left {
		flags |= inputLeft
	}
	if in.Right {
		flags |= inputRight
	}
	if in.Fire {
		flags |= inputFire
	}
	return []byte{inputMarker, flags}
}

// DecodeInput unpacks a binary input frame
func DecodeInput(msg []byte) (ClientInput, bool) {
	if len(msg) != inputFrameSz || msg[0] != inputMarker {
		return ClientInput{}, false
	}
	flags := msg[1]
	return ClientInput{
		Left:  flags&inputLeft != 0,
		Right: flags&inputRight != 0,
		Fire:  flags&inputFire != 0,
	}, true
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// StateFrame is the msgpack-encoded snapshot broadcast as a binary frame
type StateFrame struct {
	Tick      uint64              `msgpack:"tick"`
	Phase     MatchPhase          `msgpack:"ph"`
	Run       string              `msgpack:"rs"`
	Score     int                 `msgpack:"sc"`
	Health    int                 `msgpack:"hp"`
	Countdown float64             `msgpack:"cd,omitempty"`
	Items     []invasion.Drawable `msgpack:"d"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Loadout string `json:"loadout"`
}

// PhaseMsg announces a match phase change
type PhaseMsg struct {
	Phase     MatchPhase `json:"phase"`
	Name      string     `json:"name"`
	Run       string     `json:"run"` // running, paused or game_over
	Countdown float64    `json:"cd,omitempty"`
}

// KillMsg is broadcast when the pilot destroys an invader or the UFO
type KillMsg struct {
	Kind   string  `json:"k"` // "invader" or "ufo"
	Row    int     `json:"row,omitempty"`
	Col    int     `json:"col,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Points int     `json:"pts"`
	Score  int     `json:"sc"`
}

// HitMsg is broadcast when an enemy shot reaches the ship
type HitMsg struct {
	Health int `json:"hp"`
}

// UFOMsg is broadcast when the UFO appears or leaves unharmed
type UFOMsg struct {
	Event string  `json:"e"` // "spawn" or "escape"
	X     float64 `json:"x,omitempty"`
}

// ResultMsg summarizes a finished run
type ResultMsg struct {
	Reason   string  `json:"reason"` // "cleared", "destroyed" or "abandoned"
	Score    int     `json:"sc"`
	Invaders int     `json:"inv"`
	UFOs     int     `json:"ufo"`
	Hits     int     `json:"hits"`
	Duration float64 `json:"dur"`
	XP       int     `json:"xp,omitempty"`
	Level    int     `json:"lvl,omitempty"`
}

// LoadoutMsg selects a ship preset by name
type LoadoutMsg struct {
	Name string `json:"name"`
}

// LoadoutOKMsg confirms the stats now applied to the ship
type LoadoutOKMsg struct {
	Name  string              `json:"name"`
	Ship  invasion.ShipConfig `json:"ship"`
	Token string              `json:"token,omitempty"` // reissued pass for signed-in pilots
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Phase   string `json:"phase"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ControlMsg is sent by a phone controller to attach to a pilot
type ControlMsg struct {
	SID      string `json:"sid"`
	PlayerID string `json:"pid"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates with a password
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg authenticates with a previously issued token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg is returned after any successful authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
	Loadout  string `json:"loadout"`
	Level    int    `json:"level"`
}

// ProfileDataMsg carries cumulative pilot stats
type ProfileDataMsg struct {
	Username     string   `json:"username"`
	Level        int      `json:"level"`
	XP           int      `json:"xp"`
	Invaders     int      `json:"invaders"`
	UFOs         int      `json:"ufos"`
	WavesCleared int      `json:"waves"`
	HitsTaken    int      `json:"hits"`
	Runs         int      `json:"runs"`
	Playtime     float64  `json:"playtime"`
	Achievements []string `json:"achievements"`
}

// AchievementMsg notifies a pilot of a newly unlocked achievement
type AchievementMsg struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc"`
}
