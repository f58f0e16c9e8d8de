package main

import "encoding/json"

// Client -> Server message types
const (
	MsgGetRooms       = "get_rooms"
	MsgHostGame       = "host_game"
	MsgJoinGame       = "join_game"
	MsgLeaveGame      = "leave_game"
	MsgInput          = "input"
	MsgVoiceCast      = "voice_cast"
	MsgRequestRespawn = "request_respawn"
	MsgRegister       = "register"
	MsgLogin          = "login"
	MsgAuth           = "auth"
	MsgProfile        = "profile"
)

// Server -> Client message types
const (
	MsgRoomList      = "room_list"
	MsgJoined        = "joined"
	MsgCharacterList = "character_list"
	MsgHostError     = "host_error"
	MsgJoinError     = "join_error"
	MsgCooldown      = "cooldown"
	MsgCastSuccess   = "cast_success"
	MsgCastFail      = "cast_fail"
	MsgPlayerDied    = "player_died"
	MsgGameOver      = "game_over"
	MsgPlayerJoined  = "player_joined"
	MsgPlayerLeft    = "player_left"
	MsgAuthOK        = "auth_ok"
	MsgAuthError     = "auth_error"
	MsgProfileData   = "profile_data"
	MsgError         = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string `json:"t"`
	Data any    `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages. D stays raw until the type is known.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputKeys is the set of movement keys held by the client
type InputKeys struct {
	W     bool `json:"w"`
	A     bool `json:"a"`
	S     bool `json:"s"`
	D     bool `json:"d"`
	Space bool `json:"space"`
}

// Input is sent by the client every animation frame
type Input struct {
	Keys     InputKeys `json:"keys"`
	Rotation float64   `json:"rotation"`
}

// HostGameMsg creates a room and joins it
type HostGameMsg struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	RoomName   string `json:"roomName"`
	GameMode   string `json:"gameMode"`
	KillTarget int    `json:"killTarget"`
	TimeLimit  int    `json:"timeLimit"` // seconds
}

// JoinGameMsg joins an existing room
type JoinGameMsg struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	RoomID    string `json:"roomId"`
}

// VoiceCastMsg carries a speech transcript
type VoiceCastMsg struct {
	Transcript string `json:"transcript"`
}

// JoinedMsg confirms a host or join
type JoinedMsg struct {
	Room       string   `json:"room"`
	ID         string   `json:"id"`
	IsHost     bool     `json:"isHost"`
	GameMode   GameMode `json:"gameMode"`
	KillTarget int      `json:"killTarget"`
	TimeLimit  int      `json:"timeLimit"`
}

// ErrorMsg reports a rejected request
type ErrorMsg struct {
	Message string `json:"message"`
}

// CooldownMsg tells the caster how long until the next cast
type CooldownMsg struct {
	Spell    string `json:"spell"`
	Duration int64  `json:"duration"` // ms
}

// CastSuccessMsg confirms a cast
type CastSuccessMsg struct {
	Spell string `json:"spell"`
}

// CastFailMsg explains why a cast was rejected
type CastFailMsg struct {
	Message string `json:"message"`
}

// PlayerDiedMsg is sent only to the victim
type PlayerDiedMsg struct {
	Killer    string `json:"killer"`
	RespawnIn int64  `json:"respawnIn"` // ms
}

// GameOverMsg is broadcast once when a match ends
type GameOverMsg struct {
	Winner     string   `json:"winner"`
	WinnerID   string   `json:"winnerId"`
	GameMode   GameMode `json:"gameMode"`
	KillTarget int      `json:"killTarget"`
	TimeLimit  int      `json:"timeLimit"`
}

// PlayerNoticeMsg announces a player entering or leaving
type PlayerNoticeMsg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomInfo is used in the room list
type RoomInfo struct {
	ID            string   `json:"id"`
	Host          string   `json:"host"`
	Players       int      `json:"players"`
	MaxPlayers    int      `json:"maxPlayers"`
	GameMode      GameMode `json:"gameMode"`
	TimeRemaining *float64 `json:"timeRemaining,omitempty"` // seconds, time mode only
	Ended         bool     `json:"ended"`
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	ID            string    `json:"id" msgpack:"id"`
	X             float64   `json:"x" msgpack:"x"`
	Y             float64   `json:"y" msgpack:"y"`
	Z             float64   `json:"z" msgpack:"z"`
	Rot           float64   `json:"rot" msgpack:"rot"`
	State         string    `json:"state" msgpack:"state"`
	Health        float64   `json:"health" msgpack:"health"`
	MaxHealth     float64   `json:"maxHealth" msgpack:"maxHealth"`
	Name          string    `json:"name" msgpack:"name"`
	Character     string    `json:"character" msgpack:"character"`
	CharacterData Character `json:"characterData" msgpack:"characterData"`
	ActiveSpell   string    `json:"activeSpell,omitempty" msgpack:"activeSpell,omitempty"`
	LumosActive   bool      `json:"lumosActive" msgpack:"lumosActive"`
	Kills         int       `json:"kills" msgpack:"kills"`
	Deaths        int       `json:"deaths" msgpack:"deaths"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	ID    uint64  `json:"id" msgpack:"id"`
	Type  string  `json:"type" msgpack:"type"`
	Owner string  `json:"owner" msgpack:"owner"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Z     float64 `json:"z" msgpack:"z"`
	Color uint32  `json:"color" msgpack:"color"`
}

// EffectState is broadcast per visual effect
type EffectState struct {
	ID        uint64  `json:"id" msgpack:"id"`
	Type      string  `json:"type" msgpack:"type"`
	SpellType string  `json:"spellType,omitempty" msgpack:"spellType,omitempty"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Z         float64 `json:"z" msgpack:"z"`
	Color     uint32  `json:"color" msgpack:"color"`
	Life      float64 `json:"lifetime" msgpack:"lifetime"`
}

// Snapshot is the full room state sent as a msgpack binary frame every tick
type Snapshot struct {
	Players     []PlayerState     `json:"players" msgpack:"players"`
	Projectiles []ProjectileState `json:"projectiles" msgpack:"projectiles"`
	Effects     []EffectState     `json:"effects" msgpack:"effects"`
	Tick        uint64            `json:"tick" msgpack:"tick"`
	Timestamp   int64             `json:"timestamp" msgpack:"timestamp"` // unix ms
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg signs in to an account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a signed-in session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg is the response to a successful register/login/auth
type AuthOKMsg struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	AccountID int64  `json:"accountId"`
}

// ProfileDataMsg carries career stats
type ProfileDataMsg struct {
	Username string  `json:"username"`
	Matches  int     `json:"matches"`
	Wins     int     `json:"wins"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
	Playtime float64 `json:"playtime"` // seconds
}
