package main

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxRooms = 100

var (
	ErrRoomExists   = errors.New("Room already exists")
	ErrRoomNotFound = errors.New("Room not found")
	ErrTooManyRooms = errors.New("Too many rooms")
)

// HostRequest describes a room a client wants to host
type HostRequest struct {
	RoomName   string
	HostID     string
	HostName   string
	Character  string
	AccountID  int64
	GameMode   string
	KillTarget int
	TimeLimit  int
}

// RoomManager handles creation, lookup and teardown of rooms.
// Lock order is manager then room; rooms never call back into the manager.
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	maxRooms int
	deps     RoomDeps
	log      *zap.SugaredLogger
}

// NewRoomManager creates a manager whose rooms share deps
func NewRoomManager(deps RoomDeps, maxRooms int) *RoomManager {
	if deps.Catalog == nil {
		deps.Catalog = NewCatalog()
	}
	if deps.Matcher == nil {
		deps.Matcher = NewMatcher(deps.Catalog)
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	if deps.Journal == nil {
		deps.Journal = nopJournal{}
	}
	if maxRooms <= 0 {
		maxRooms = defaultMaxRooms
	}
	return &RoomManager{
		rooms:    make(map[string]*Room),
		maxRooms: maxRooms,
		deps:     deps,
		log:      deps.Log,
	}
}

// Catalog returns the shared spell and character catalog
func (m *RoomManager) Catalog() *Catalog {
	return m.deps.Catalog
}

func defaultRoomID() string {
	return "room_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CreateRoom creates a room, joins the host to it and starts its tick loop
func (m *RoomManager) CreateRoom(req HostRequest, conn Broadcaster) (*Room, *Player, error) {
	return m.createRoom(req, conn, true)
}

// createRoom with start=false leaves driving Step to the caller
func (m *RoomManager) createRoom(req HostRequest, conn Broadcaster, start bool) (*Room, *Player, error) {
	id := strings.TrimSpace(req.RoomName)
	if id == "" {
		id = defaultRoomID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		return nil, nil, ErrRoomExists
	}
	if len(m.rooms) >= m.maxRooms {
		return nil, nil, ErrTooManyRooms
	}

	room := NewRoom(RoomOptions{
		ID:       id,
		HostID:   req.HostID,
		HostName: req.HostName,
		Match:    NewMatchConfig(req.GameMode, req.KillTarget, req.TimeLimit),
	}, m.deps)
	p, err := room.AddPlayer(req.HostID, req.HostName, req.Character, req.AccountID, conn)
	if err != nil {
		return nil, nil, err
	}
	m.rooms[id] = room
	if start {
		go room.Run()
	}
	m.log.Infow("room created", "room", id, "host", req.HostName, "mode", room.Match.Mode,
		"killTarget", room.Match.KillTarget, "timeLimit", room.Match.TimeLimit)
	m.deps.Journal.Track(EvtRoomCreated, id, req.AccountID, eventData(map[string]any{
		"mode":       room.Match.Mode,
		"killTarget": room.Match.KillTarget,
		"timeLimit":  room.Match.TimeLimit,
	}))
	return room, p, nil
}

// JoinRoom adds a player to an existing room
func (m *RoomManager) JoinRoom(roomID, playerID, name, characterID string, accountID int64, conn Broadcaster) (*Room, *Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	p, err := room.AddPlayer(playerID, name, characterID, accountID, conn)
	if err != nil {
		return nil, nil, err
	}
	m.log.Infow("player joined", "room", roomID, "player", p.Name, "character", p.Character.ID)
	return room, p, nil
}

// GetRoom returns a room by ID, or nil
func (m *RoomManager) GetRoom(id string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

// RemovePlayer removes a player and tears the room down when it empties
func (m *RoomManager) RemovePlayer(roomID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return
	}
	if room.RemovePlayer(playerID) > 0 {
		return
	}
	room.Stop()
	delete(m.rooms, roomID)
	m.log.Infow("room closed", "room", roomID)
}

// ListRooms returns info about all active rooms, ordered by ID
func (m *RoomManager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]RoomInfo, 0, len(m.rooms))
	for _, room := range m.rooms {
		list = append(list, room.Info())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Count returns the number of active rooms
func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Metrics returns the counters of every room keyed by room ID
func (m *RoomManager) Metrics() map[string]map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string]any, len(m.rooms))
	for id, room := range m.rooms {
		out[id] = room.Metrics().Snapshot()
	}
	return out
}

// StopAll stops every room tick loop. Used on shutdown.
func (m *RoomManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, room := range m.rooms {
		room.Stop()
		delete(m.rooms, id)
	}
}
