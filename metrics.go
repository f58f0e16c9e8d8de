package main

import "sync/atomic"

// RoomMetrics counts what happens inside one room. Safe for concurrent use.
type RoomMetrics struct {
	TickCount       int64
	TotalTickNs     int64
	CastsAccepted   int64
	CastsRejected   int64
	Unmatched       int64
	ProjectilesShot int64
	Hits            int64
	ShieldBlocks    int64
	Kills           int64
	Panics          int64
}

func (m *RoomMetrics) IncCast()       { atomic.AddInt64(&m.CastsAccepted, 1) }
func (m *RoomMetrics) IncRejected()   { atomic.AddInt64(&m.CastsRejected, 1) }
func (m *RoomMetrics) IncUnmatched()  { atomic.AddInt64(&m.Unmatched, 1) }
func (m *RoomMetrics) IncProjectile() { atomic.AddInt64(&m.ProjectilesShot, 1) }
func (m *RoomMetrics) IncHit()        { atomic.AddInt64(&m.Hits, 1) }
func (m *RoomMetrics) IncBlock()      { atomic.AddInt64(&m.ShieldBlocks, 1) }
func (m *RoomMetrics) IncKill()       { atomic.AddInt64(&m.Kills, 1) }
func (m *RoomMetrics) IncPanic()      { atomic.AddInt64(&m.Panics, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot returns a read-only copy for the HTTP endpoint
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":       tick,
		"avg_tick_ms":      avgMs,
		"casts_accepted":   atomic.LoadInt64(&m.CastsAccepted),
		"casts_rejected":   atomic.LoadInt64(&m.CastsRejected),
		"unmatched":        atomic.LoadInt64(&m.Unmatched),
		"projectiles_shot": atomic.LoadInt64(&m.ProjectilesShot),
		"hits":             atomic.LoadInt64(&m.Hits),
		"shield_blocks":    atomic.LoadInt64(&m.ShieldBlocks),
		"kills":            atomic.LoadInt64(&m.Kills),
		"panics":           atomic.LoadInt64(&m.Panics),
	}
}

// ServerMetrics counts connection-level events across all rooms
type ServerMetrics struct {
	Connections   int64
	Disconnects   int64
	RateLimited   int64
	DroppedFrames int64
	BadMessages   int64
}

func (m *ServerMetrics) IncConnect()     { atomic.AddInt64(&m.Connections, 1) }
func (m *ServerMetrics) IncDisconnect()  { atomic.AddInt64(&m.Disconnects, 1) }
func (m *ServerMetrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *ServerMetrics) IncDropped()     { atomic.AddInt64(&m.DroppedFrames, 1) }
func (m *ServerMetrics) IncBadMessage()  { atomic.AddInt64(&m.BadMessages, 1) }

// Snapshot returns a read-only copy for the HTTP endpoint
func (m *ServerMetrics) Snapshot() map[string]any {
	return map[string]any{
		"connections":    atomic.LoadInt64(&m.Connections),
		"disconnects":    atomic.LoadInt64(&m.Disconnects),
		"rate_limited":   atomic.LoadInt64(&m.RateLimited),
		"dropped_frames": atomic.LoadInt64(&m.DroppedFrames),
		"bad_messages":   atomic.LoadInt64(&m.BadMessages),
	}
}
