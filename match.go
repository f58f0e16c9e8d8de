package main

import (
	"strings"
	"time"
)

// GameMode defines how a room ends
type GameMode string

const (
	ModeEndless GameMode = "endless"
	ModeKills   GameMode = "kills"
	ModeTime    GameMode = "time"
)

// ParseGameMode accepts the wire name of a mode, defaulting to endless
func ParseGameMode(s string) GameMode {
	switch GameMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeKills:
		return ModeKills
	case ModeTime:
		return ModeTime
	}
	return ModeEndless
}

const (
	maxKillTarget = 100
	maxTimeLimit  = 3600 // seconds
)

// MatchConfig holds the win condition of a room
type MatchConfig struct {
	Mode       GameMode
	KillTarget int // kills mode
	TimeLimit  int // seconds, time mode
}

// NewMatchConfig clamps client-supplied parameters
func NewMatchConfig(mode string, killTarget, timeLimit int) MatchConfig {
	return MatchConfig{
		Mode:       ParseGameMode(mode),
		KillTarget: clampInt(killTarget, 0, maxKillTarget),
		TimeLimit:  clampInt(timeLimit, 0, maxTimeLimit),
	}
}

// Limit returns the time limit as a duration
func (c MatchConfig) Limit() time.Duration {
	return time.Duration(c.TimeLimit) * time.Second
}

// Evaluate decides whether the match is over. players must be in join order.
// The winner is the player with the most kills, earliest join breaking ties,
// and may be nil when a timed match ends with nobody in the room.
func (c MatchConfig) Evaluate(players []*Player, elapsed time.Duration) (winner *Player, over bool) {
	switch c.Mode {
	case ModeKills:
		if c.KillTarget <= 0 {
			return nil, false
		}
		lead := leader(players)
		if lead != nil && lead.Kills >= c.KillTarget {
			return lead, true
		}
	case ModeTime:
		if c.TimeLimit <= 0 {
			return nil, false
		}
		if elapsed >= c.Limit() {
			return leader(players), true
		}
	}
	return nil, false
}

// TimeRemaining returns the seconds left in a timed match
func (c MatchConfig) TimeRemaining(elapsed time.Duration) (float64, bool) {
	if c.Mode != ModeTime || c.TimeLimit <= 0 {
		return 0, false
	}
	left := c.Limit() - elapsed
	if left < 0 {
		left = 0
	}
	return left.Seconds(), true
}

func leader(players []*Player) *Player {
	var best *Player
	for _, p := range players {
		if best == nil || p.Kills > best.Kills {
			best = p
		}
	}
	return best
}

// MatchResult is what the journal stores about a finished match
type MatchResult struct {
	RoomID     string
	Mode       GameMode
	KillTarget int
	TimeLimit  int
	StartedAt  time.Time
	EndedAt    time.Time
	WinnerID   string
	WinnerName string
	Players    []MatchPlayerResult
}

// MatchPlayerResult is one participant's line in a MatchResult
type MatchPlayerResult struct {
	Name      string
	Character string
	AccountID int64
	Kills     int
	Deaths    int
	Won       bool
	Playtime  float64 // seconds spent in the room during the match
}

// Journal receives match results and gameplay events. Implementations must not block.
type Journal interface {
	RecordMatch(res MatchResult)
	Track(evtType, roomID string, accountID int64, data string)
}

type nopJournal struct{}

func (nopJournal) RecordMatch(MatchResult)             {}
func (nopJournal) Track(string, string, int64, string) {}
