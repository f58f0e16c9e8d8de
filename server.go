package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/gorilla/websocket"
)

const maxRecentMatches = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, cfg Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(cfg.ClientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(cfg.ClientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warnw("upgrade error", "ip", ip, "err", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.rooms.ListRooms())
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "rooms": hub.rooms.Count()})
	})

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		out := map[string]any{
			"rooms":        hub.rooms.Count(),
			"clients":      hub.ClientCount(),
			"connections":  hub.TotalConns(),
			"online_users": hub.OnlineCount(),
			"server":       hub.metrics.Snapshot(),
			"per_room":     hub.rooms.Metrics(),
		}
		if hub.db != nil {
			if counts, err := hub.db.EventCounts(); err == nil {
				out["events"] = counts
			} else {
				hub.log.Warnw("event counts failed", "err", err)
			}
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("GET /matches", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.NotFound(w, r)
			return
		}
		limit := 20
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
			limit = min(n, maxRecentMatches)
		}
		matches, err := hub.db.RecentMatches(limit)
		if err != nil {
			hub.log.Errorw("recent matches failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, matches)
	})

	mux.HandleFunc("GET /invite/{file}", inviteHandler(hub, cfg.PublicURL))

	return mux
}
