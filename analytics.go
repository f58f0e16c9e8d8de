package main

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types for analytics tracking
const (
	EvtRoomCreated = "room_created"
	EvtPlayerJoin  = "player_join"
	EvtPlayerKill  = "player_kill"
	EvtMatchEnd    = "match_end"
	EvtRegister    = "register"
	EvtLogin       = "login"
)

const (
	analyticsBuffer     = 1024
	analyticsBatchSize  = 50
	analyticsFlushEvery = 2 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	AccountID int64
	RoomID    string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics is the database-backed Journal. Events and match results are queued
// without blocking and written by one background goroutine.
type Analytics struct {
	db      *DB
	log     *zap.SugaredLogger
	events  chan AnalyticsEvent
	matches chan MatchResult
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB, log *zap.SugaredLogger) *Analytics {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &Analytics{
		db:      db,
		log:     log,
		events:  make(chan AnalyticsEvent, analyticsBuffer),
		matches: make(chan MatchResult, 64),
		stop:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, roomID string, accountID int64, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		AccountID: accountID,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		a.log.Debugw("analytics queue full, event dropped", "type", evtType, "room", roomID)
	}
}

// RecordMatch enqueues a finished match (non-blocking)
func (a *Analytics) RecordMatch(res MatchResult) {
	select {
	case a.matches <- res:
	default:
		a.log.Warnw("analytics queue full, match dropped", "room", res.RoomID)
	}
}

// Stop drains the queues and waits for the writer. Safe to call more than once.
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				batch = a.flush(batch)
			}
		case res := <-a.matches:
			a.writeMatch(res)
			batch = append(batch, matchEndEvent(res))
		case <-ticker.C:
			batch = a.flush(batch)
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				case res := <-a.matches:
					a.writeMatch(res)
					batch = append(batch, matchEndEvent(res))
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes events and returns the emptied batch
func (a *Analytics) flush(batch []AnalyticsEvent) []AnalyticsEvent {
	if len(batch) == 0 {
		return batch
	}
	if err := a.db.InsertEvents(batch); err != nil {
		a.log.Errorw("analytics flush failed", "events", len(batch), "err", err)
	}
	return batch[:0]
}

func (a *Analytics) writeMatch(res MatchResult) {
	id, err := a.db.RecordMatch(res)
	if err != nil {
		a.log.Errorw("record match failed", "room", res.RoomID, "err", err)
		return
	}
	a.log.Infow("match recorded", "room", res.RoomID, "match", id, "players", len(res.Players))
}

func matchEndEvent(res MatchResult) AnalyticsEvent {
	return AnalyticsEvent{
		Type:   EvtMatchEnd,
		RoomID: res.RoomID,
		Data: eventData(map[string]any{
			"mode":     res.Mode,
			"winner":   res.WinnerName,
			"duration": res.EndedAt.Sub(res.StartedAt).Seconds(),
			"players":  len(res.Players),
		}),
		Timestamp: res.EndedAt.UTC(),
	}
}

// eventData encodes event metadata as JSON, "" on failure
func eventData(fields map[string]any) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(b)
}
