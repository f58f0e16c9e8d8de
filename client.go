package main

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 4096
	sendBufSize         = 256
	maxMessagesPerSec   = 240 // input arrives once per animation frame
	floodMessagesPerSec = 4 * maxMessagesPerSec
	maxNameLen          = 16
	defaultPlayerName   = "Wizard"

	binaryMarker = 0xFF
)

// Client represents a WebSocket connection. Its fields are only touched from
// ReadPump, and by the hub after ReadPump has returned.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string // player id inside rooms
	roomID     string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	log        *zap.SugaredLogger
	// Auth state
	accountID int64  // 0 = guest
	username  string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	id := uuid.NewString()
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         id,
		remoteAddr: remoteAddr,
		log:        hub.log.With("conn", id),
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Infow("ws read error", "err", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > floodMessagesPerSec {
			c.hub.metrics.IncRateLimited()
			c.log.Warnw("message flood, disconnecting", "ip", c.remoteAddr)
			break
		}
		if c.msgCount > maxMessagesPerSec {
			c.hub.metrics.IncRateLimited()
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
			var err error
			if len(message) > 0 && message[0] == binaryMarker {
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
func (c *Client) SendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Errorw("marshal error", "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send on a closed channel after disconnect
	select {
	case c.send <- data:
	default:
		c.hub.metrics.IncDropped()
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with binaryMarker so WritePump can distinguish it from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = binaryMarker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
		c.hub.metrics.IncDropped()
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.hub.metrics.IncBadMessage()
		c.log.Debugw("unmarshal error", "err", err)
		return
	}

	switch env.T {
	case MsgGetRooms:
		c.handleGetRooms()
	case MsgHostGame:
		c.handleHost(env.D)
	case MsgJoinGame:
		c.handleJoin(env.D)
	case MsgLeaveGame:
		c.leaveRoom()
	case MsgInput:
		c.handleInput(env.D)
	case MsgVoiceCast:
		c.handleVoiceCast(env.D)
	case MsgRequestRespawn:
		c.handleRespawn()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	default:
		c.hub.metrics.IncBadMessage()
	}
}

// sanitizeName trims a display name, defaulting blank names
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultPlayerName
	}
	if len(name) > maxNameLen {
		name = strings.ToValidUTF8(name[:maxNameLen], "")
	}
	return name
}

func (c *Client) currentRoom() *Room {
	if c.roomID == "" {
		return nil
	}
	return c.hub.rooms.GetRoom(c.roomID)
}

// leaveRoom removes the client from its room, if any
func (c *Client) leaveRoom() {
	if c.roomID == "" {
		return
	}
	c.hub.rooms.RemovePlayer(c.roomID, c.id)
	c.log.Debugw("left room", "room", c.roomID)
	c.roomID = ""
}

func (c *Client) handleGetRooms() {
	c.SendJSON(Envelope{T: MsgRoomList, Data: c.hub.rooms.ListRooms()})
}

func (c *Client) handleHost(data json.RawMessage) {
	var msg HostGameMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	c.leaveRoom()

	room, p, err := c.hub.rooms.CreateRoom(HostRequest{
		RoomName:   msg.RoomName,
		HostID:     c.id,
		HostName:   sanitizeName(msg.Name),
		Character:  msg.Character,
		AccountID:  c.accountID,
		GameMode:   msg.GameMode,
		KillTarget: msg.KillTarget,
		TimeLimit:  msg.TimeLimit,
	}, c)
	if err != nil {
		c.SendJSON(Envelope{T: MsgHostError, Data: ErrorMsg{Message: err.Error()}})
		return
	}
	c.roomID = room.ID
	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{
		Room:       room.ID,
		ID:         p.ID,
		IsHost:     true,
		GameMode:   room.Match.Mode,
		KillTarget: room.Match.KillTarget,
		TimeLimit:  room.Match.TimeLimit,
	}})
	c.SendJSON(Envelope{T: MsgCharacterList, Data: c.hub.rooms.Catalog().Characters()})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinGameMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	if room := c.currentRoom(); room != nil && room.ID == msg.RoomID && room.HasPlayer(c.id) {
		return
	}
	c.leaveRoom()

	room, p, err := c.hub.rooms.JoinRoom(msg.RoomID, c.id, sanitizeName(msg.Name), msg.Character, c.accountID, c)
	if err != nil {
		c.SendJSON(Envelope{T: MsgJoinError, Data: ErrorMsg{Message: err.Error()}})
		return
	}
	c.roomID = room.ID
	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{
		Room:       room.ID,
		ID:         p.ID,
		IsHost:     room.HostID == p.ID,
		GameMode:   room.Match.Mode,
		KillTarget: room.Match.KillTarget,
		TimeLimit:  room.Match.TimeLimit,
	}})
}

func (c *Client) handleInput(data json.RawMessage) {
	room := c.currentRoom()
	if room == nil {
		return
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	room.SubmitInput(c.id, in)
}

func (c *Client) handleVoiceCast(data json.RawMessage) {
	room := c.currentRoom()
	if room == nil {
		return
	}
	var msg VoiceCastMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	room.SubmitCast(c.id, msg.Transcript)
}

func (c *Client) handleRespawn() {
	if room := c.currentRoom(); room != nil {
		room.RequestRespawn(c.id)
	}
}

func (c *Client) signedIn(id int64, username, token, evt string) {
	if c.accountID != 0 && c.accountID != id {
		c.hub.SetOffline(c.accountID, c)
	}
	if c.accountID != id && c.hub.IsOnline(id) {
		c.log.Infow("account moved to a new connection", "account", id)
	}
	c.accountID = id
	c.username = username
	c.hub.SetOnline(id, c)
	c.hub.journal.Track(evt, c.roomID, id, "")
	c.log.Infow("signed in", "account", id, "username", username)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:     token,
		Username:  username,
		AccountID: id,
	}})
}

func (c *Client) authError(err error) {
	msg := err.Error()
	if errors.Is(err, ErrInvalidToken) {
		msg = ErrInvalidToken.Error()
	}
	c.SendJSON(Envelope{T: MsgAuthError, Data: ErrorMsg{Message: msg}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.SendJSON(Envelope{T: MsgAuthError, Data: ErrorMsg{Message: "accounts are disabled"}})
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.authError(err)
		return
	}
	c.signedIn(id, strings.TrimSpace(msg.Username), token, EvtRegister)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.SendJSON(Envelope{T: MsgAuthError, Data: ErrorMsg{Message: "accounts are disabled"}})
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.authError(err)
		return
	}
	c.signedIn(id, strings.TrimSpace(msg.Username), token, EvtLogin)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.SendJSON(Envelope{T: MsgAuthError, Data: ErrorMsg{Message: "accounts are disabled"}})
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.metrics.IncBadMessage()
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.authError(err)
		return
	}
	c.signedIn(id, username, msg.Token, EvtLogin)
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.accountID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "not authenticated"}})
		return
	}
	stats, err := c.hub.db.GetStats(c.accountID)
	if err != nil || stats == nil {
		if err != nil {
			c.log.Errorw("load profile failed", "account", c.accountID, "err", err)
		}
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "profile not found"}})
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username: c.username,
		Matches:  stats.Matches,
		Wins:     stats.Wins,
		Kills:    stats.Kills,
		Deaths:   stats.Deaths,
		Playtime: stats.Playtime,
	}})
}
