package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
	maxNameLen     = 16
	maxSessionName = 30
)

// Client represents a WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	playerID     string
	sessionID    string
	remoteAddr   string
	isController bool
	msgCount     int
	msgResetAt   time.Time
	// Auth state
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
	authLoadout  string // preset from the pilot pass
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > c.hub.limits.MessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage {
			if input, ok := DecodeInput(message); ok {
				c.applyInput(input)
			}
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgControl:
		c.handleControl(env.D)
	case MsgReady, MsgRematch, MsgPause, MsgResume:
		c.handlePhase(env.T)
	case MsgLoadout:
		c.handleLoadout(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	}
}

// session returns the game this client is attached to, if any
func (c *Client) session() *Session {
	if c.sessionID == "" || c.playerID == "" {
		return nil
	}
	return c.hub.sessions.GetSession(c.sessionID)
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := cleanName(msg.SessionName, "Invasion", maxSessionName)

	sess := c.hub.sessions.CreateSession(sname)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}

	c.hub.sessions.MarkActive(sess.ID)
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := cleanName(msg.Name, "Pilot", maxNameLen)
	if msg.Name == "" && c.authUsername != "" {
		name = c.authUsername
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	// switching sessions leaves the old one first
	c.leaveSession()

	player := sess.Game.AddPlayer(name, c.authPlayerID)
	if player == nil {
		c.sendError("session full")
		return
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.playerID = player.ID
	c.sessionID = sess.ID

	sess.Game.SetClient(player.ID, c)

	loadout := player.Loadout
	if c.authLoadout != "" && c.authLoadout != loadout {
		if _, err := sess.Game.SetLoadout(player.ID, c.authLoadout); err == nil {
			loadout = c.authLoadout
		}
	}

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: player.ID, Role: player.Role, Loadout: loadout}})
}

// applyInput forwards a held-key vector to the session
func (c *Client) applyInput(input ClientInput) {
	sess := c.session()
	if sess == nil {
		return
	}
	sess.Game.HandleInput(c.playerID, input)
}

func (c *Client) handleInput(data json.RawMessage) {
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	c.applyInput(input)
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
}

func (c *Client) handleLeave() {
	c.leaveSession()
}

// leaveSession detaches the client from its session, as a player or as a
// phone controller
func (c *Client) leaveSession() {
	if c.sessionID == "" {
		return
	}
	if c.isController {
		if sess := c.hub.sessions.GetSession(c.sessionID); sess != nil {
			sess.Game.RemoveController(c.playerID)
		}
	} else {
		c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
	}
	c.sessionID = ""
	c.playerID = ""
	c.isController = false
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if !sess.Game.HasPlayer(msg.PlayerID) {
		c.sendError("player not found")
		return
	}
	c.leaveSession()

	c.sessionID = msg.SID
	c.playerID = msg.PlayerID
	c.isController = true

	sess.Game.SetController(msg.PlayerID, c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"pid": msg.PlayerID}})
}

// handlePhase routes the pilot's run controls
func (c *Client) handlePhase(t string) {
	sess := c.session()
	if sess == nil {
		return
	}
	switch t {
	case MsgReady:
		sess.Game.HandleReady(c.playerID)
	case MsgRematch:
		sess.Game.HandleRematch(c.playerID)
	case MsgPause:
		sess.Game.HandlePause(c.playerID)
	case MsgResume:
		sess.Game.HandleResume(c.playerID)
	}
}

func (c *Client) handleLoadout(data json.RawMessage) {
	var msg LoadoutMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.session()
	if sess == nil || c.isController {
		c.sendError(errNotInSession.Error())
		return
	}
	ship, err := sess.Game.SetLoadout(c.playerID, msg.Name)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	ok := LoadoutOKMsg{Name: msg.Name, Ship: ship}
	if c.hub.auth != nil && c.authPlayerID != 0 {
		if claims, token, err := c.hub.auth.SaveLoadout(c.authPlayerID, msg.Name); err == nil {
			c.authLoadout = claims.Loadout
			ok.Token = token
		} else {
			log.Printf("save loadout for %d: %v", c.authPlayerID, err)
		}
	}
	c.SendJSON(Envelope{T: MsgLoadoutOK, Data: ok})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(claims, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(claims, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(claims, msg.Token)
}

// authenticated records a successful sign-in on the connection. A pilot
// already in a session switches to the pass's loadout.
func (c *Client) authenticated(claims *PilotClaims, token string) {
	c.authPlayerID = claims.PlayerID
	c.authUsername = claims.Callsign
	c.authLoadout = claims.Loadout
	c.hub.SetOnline(claims.PlayerID, c)
	if sess := c.session(); sess != nil && !c.isController {
		sess.Game.LinkAuth(c.playerID, claims.PlayerID)
		if _, err := sess.Game.SetLoadout(c.playerID, claims.Loadout); err != nil {
			log.Printf("apply pass loadout: %v", err)
		}
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: claims.Callsign,
		PlayerID: claims.PlayerID,
		Loadout:  claims.Loadout,
		Level:    claims.Level,
	}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	achievements, err := c.hub.db.GetAchievements(c.authPlayerID)
	if err != nil {
		log.Printf("achievements lookup error for player %d: %v", c.authPlayerID, err)
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:     c.authUsername,
		Level:        stats.Level,
		XP:           stats.XP,
		Invaders:     stats.Invaders,
		UFOs:         stats.UFOs,
		WavesCleared: stats.WavesCleared,
		HitsTaken:    stats.HitsTaken,
		Runs:         stats.Runs,
		Playtime:     stats.Playtime,
		Achievements: achievements,
	}})
}
