package main

import (
	"sync"

	"go.uber.org/zap"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to rooms
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      *RoomManager
	log        *zap.SugaredLogger
	metrics    *ServerMetrics
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// Accounts; nil when no database is configured
	db      *DB
	auth    *Auth
	journal Journal
	// Online accounts: account id -> *Client
	onlineMu    sync.RWMutex
	onlineUsers map[int64]*Client
}

// NewHub creates a Hub. db and auth may be nil to run guest-only.
func NewHub(rooms *RoomManager, db *DB, auth *Auth, journal Journal, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if journal == nil {
		journal = nopJournal{}
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		done:        make(chan struct{}),
		rooms:       rooms,
		log:         log,
		metrics:     &ServerMetrics{},
		ipConns:     make(map[string]int),
		db:          db,
		auth:        auth,
		journal:     journal,
		onlineUsers: make(map[int64]*Client),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
	h.metrics.IncConnect()
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
	h.metrics.IncDisconnect()
}

// Run processes register/unregister events until Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debugw("client connected", "conn", client.id, "ip", client.remoteAddr)

		case client := <-h.unregister:
			// Leave the room first so the room stops writing to client.send
			client.leaveRoom()
			if client.accountID != 0 {
				h.SetOffline(client.accountID, client)
			}
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debugw("client disconnected", "conn", client.id, "ip", client.remoteAddr)

		case <-h.done:
			return
		}
	}
}

// Stop ends Run
func (h *Hub) Stop() {
	close(h.done)
}

// SetOnline marks an account as online on client
func (h *Hub) SetOnline(accountID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[accountID] = client
}

// SetOffline removes an account from online tracking if client still owns it
func (h *Hub) SetOffline(accountID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if h.onlineUsers[accountID] == client {
		delete(h.onlineUsers, accountID)
	}
}

// IsOnline checks if an account is online
func (h *Hub) IsOnline(accountID int64) bool {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	_, ok := h.onlineUsers[accountID]
	return ok
}

// OnlineCount returns the number of signed-in accounts
func (h *Hub) OnlineCount() int {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	return len(h.onlineUsers)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

// Metrics returns the connection counters
func (h *Hub) Metrics() *ServerMetrics {
	return h.metrics
}
