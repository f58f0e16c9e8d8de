package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	TickRate          = 60 // simulation steps per second
	TickDuration      = time.Second / TickRate
	MaxPlayersPerRoom = 8
	maxProjectiles    = 256
)

// ErrRoomFull is returned when a room already holds MaxPlayersPerRoom players
var ErrRoomFull = errors.New("Room is full")

// Broadcaster sends messages to one connection without blocking
type Broadcaster interface {
	SendJSON(msg any)
	SendBinary(data []byte)
}

// RoomOptions describes a room to create
type RoomOptions struct {
	ID       string
	HostID   string
	HostName string
	Match    MatchConfig
}

// RoomDeps are the collaborators a room needs. Zero fields get defaults.
type RoomDeps struct {
	Catalog *Catalog
	Matcher *Matcher
	Log     *zap.SugaredLogger
	Journal Journal
	Now     func() time.Time
	Rand    randSource
}

// Room owns one arena: its players, projectiles and effects.
// Every mutation happens under mu, either in the tick or in a message handler.
type Room struct {
	mu       sync.Mutex
	ID       string
	HostID   string
	HostName string
	Match    MatchConfig

	CreatedAt time.Time
	StartedAt time.Time

	ended      bool
	winnerID   string
	winnerName string

	players     []*Player // join order
	byID        map[string]*Player
	clients     map[string]Broadcaster
	projectiles []*Projectile
	effects     []*Effect
	nextProjID  uint64
	nextFxID    uint64
	tick        uint64

	catalog *Catalog
	matcher *Matcher
	log     *zap.SugaredLogger
	journal Journal
	now     func() time.Time
	rng     randSource
	metrics *RoomMetrics

	stop chan struct{}
}

// NewRoom creates a room. Call Run to start its tick loop.
func NewRoom(opts RoomOptions, deps RoomDeps) *Room {
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
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	now := deps.Now()
	return &Room{
		ID:        opts.ID,
		HostID:    opts.HostID,
		HostName:  opts.HostName,
		Match:     opts.Match,
		CreatedAt: now,
		StartedAt: now,
		byID:      make(map[string]*Player),
		clients:   make(map[string]Broadcaster),
		catalog:   deps.Catalog,
		matcher:   deps.Matcher,
		log:       deps.Log,
		journal:   deps.Journal,
		now:       deps.Now,
		rng:       deps.Rand,
		metrics:   &RoomMetrics{},
		stop:      make(chan struct{}),
	}
}

// Run drives the tick loop until Stop is called
func (r *Room) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Step()
		case <-r.stop:
			return
		}
	}
}

// Stop terminates the tick loop. Safe to call more than once.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Step runs one tick. A panic is logged and the room keeps going.
func (r *Room) Step() {
	start := time.Now()
	r.mu.Lock()
	defer func() {
		if v := recover(); v != nil {
			r.metrics.IncPanic()
			r.log.Errorw("tick panic", "room", r.ID, "panic", v, "tick", r.tick)
		}
		r.mu.Unlock()
		r.metrics.AddTick(time.Since(start).Nanoseconds())
	}()
	r.step(r.now(), 1.0/float64(TickRate))
}

func (r *Room) step(now time.Time, dt float64) {
	r.tick++
	if !r.ended {
		r.checkWinConditions(now)
	}
	r.updateProjectiles(dt, now)
	r.updateEffects(dt)
	for _, p := range r.players {
		if p.Update(dt, now, r.rng) {
			r.log.Debugw("player respawned", "room", r.ID, "player", p.Name)
		}
	}
	r.broadcastSnapshot(now)
}

func (r *Room) updateProjectiles(dt float64, now time.Time) {
	live := r.projectiles[:0]
	for _, proj := range r.projectiles {
		proj.Update(dt)
		if proj.Expired() {
			if proj.Explosive {
				r.addEffect(FxExplosion, proj.Type, proj.X, proj.Z, proj.Color)
			}
			continue
		}
		if target := r.firstHit(proj); target != nil {
			r.projectileHit(proj, target, now)
			continue
		}
		live = append(live, proj)
	}
	clear(r.projectiles[len(live):])
	r.projectiles = live
}

// firstHit returns the first player in join order struck by proj
func (r *Room) firstHit(proj *Projectile) *Player {
	for _, p := range r.players {
		if p.ID == proj.OwnerID || p.Dead() {
			continue
		}
		if CheckHit(proj, p) {
			return p
		}
	}
	return nil
}

func (r *Room) updateEffects(dt float64) {
	live := r.effects[:0]
	for _, e := range r.effects {
		if e.Update(dt) {
			live = append(live, e)
		}
	}
	clear(r.effects[len(live):])
	r.effects = live
}

func (r *Room) addEffect(kind, spellType string, x, z float64, color uint32) {
	r.nextFxID++
	r.effects = append(r.effects, &Effect{
		ID:        r.nextFxID,
		Kind:      kind,
		SpellType: spellType,
		X:         x,
		Y:         EffectHeight,
		Z:         z,
		Color:     color,
		Life:      EffectLifetime,
	})
}

func (r *Room) checkWinConditions(now time.Time) {
	winner, over := r.Match.Evaluate(r.players, now.Sub(r.StartedAt))
	if over {
		r.endGame(winner, now)
	}
}

// endGame announces the winner once and hands the result to the journal
func (r *Room) endGame(winner *Player, now time.Time) {
	if r.ended {
		return
	}
	r.ended = true
	r.winnerName = "Nobody"
	if winner != nil {
		r.winnerID = winner.ID
		r.winnerName = winner.Name
	}
	r.broadcastMsg(Envelope{T: MsgGameOver, Data: GameOverMsg{
		Winner:     r.winnerName,
		WinnerID:   r.winnerID,
		GameMode:   r.Match.Mode,
		KillTarget: r.Match.KillTarget,
		TimeLimit:  r.Match.TimeLimit,
	}})
	r.log.Infow("match over", "room", r.ID, "mode", r.Match.Mode, "winner", r.winnerName)

	res := MatchResult{
		RoomID:     r.ID,
		Mode:       r.Match.Mode,
		KillTarget: r.Match.KillTarget,
		TimeLimit:  r.Match.TimeLimit,
		StartedAt:  r.StartedAt,
		EndedAt:    now,
		WinnerID:   r.winnerID,
		WinnerName: r.winnerName,
		Players:    make([]MatchPlayerResult, 0, len(r.players)),
	}
	for _, p := range r.players {
		res.Players = append(res.Players, MatchPlayerResult{
			Name:      p.Name,
			Character: p.Character.ID,
			AccountID: p.AccountID,
			Kills:     p.Kills,
			Deaths:    p.Deaths,
			Won:       p.ID == r.winnerID,
			Playtime:  now.Sub(p.JoinedAt).Seconds(),
		})
	}
	r.journal.RecordMatch(res)
}

// Ended reports whether the match has finished, and who won
func (r *Room) Ended() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended, r.winnerName
}

// AddPlayer adds a player bound to conn
func (r *Room) AddPlayer(id, name, characterID string, accountID int64, conn Broadcaster) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	if len(r.players) >= MaxPlayersPerRoom {
		return nil, ErrRoomFull
	}
	p := NewPlayer(id, name, r.catalog.Character(characterID), r.rng, r.now())
	p.AccountID = accountID
	r.players = append(r.players, p)
	r.byID[id] = p
	if conn != nil {
		r.clients[id] = conn
	}
	r.broadcastMsg(Envelope{T: MsgPlayerJoined, Data: PlayerNoticeMsg{ID: id, Name: p.Name}})
	r.journal.Track(EvtPlayerJoin, r.ID, accountID, "")
	return p, nil
}

// RemovePlayer removes a player and returns how many remain
func (r *Room) RemovePlayer(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return len(r.players)
	}
	delete(r.byID, id)
	delete(r.clients, id)
	for i, q := range r.players {
		if q == p {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	r.broadcastMsg(Envelope{T: MsgPlayerLeft, Data: PlayerNoticeMsg{ID: id, Name: p.Name}})
	return len(r.players)
}

// PlayerCount returns the number of players
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// HasPlayer reports whether id is in the room
func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	return ok
}

func (r *Room) player(id string) *Player {
	return r.byID[id]
}

// SubmitInput applies one movement input. Rejected input is silently dropped.
func (r *Room) SubmitInput(playerID string, in Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.player(playerID); p != nil {
		p.ApplyInput(in)
	}
}

// RequestRespawn respawns a dead player whose respawn delay has elapsed
func (r *Room) RequestRespawn(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.player(playerID)
	if p == nil || !p.CanRespawn(r.now()) {
		return
	}
	p.Respawn(r.rng)
}

// SubmitCast resolves a voice transcript into a spell cast by playerID
func (r *Room) SubmitCast(playerID, transcript string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.player(playerID)
	if p == nil {
		return
	}
	r.cast(p, transcript, r.now())
}

func (r *Room) castFail(p *Player, msg string) {
	r.metrics.IncRejected()
	r.sendTo(p.ID, Envelope{T: MsgCastFail, Data: CastFailMsg{Message: msg}})
}

func (r *Room) cast(p *Player, transcript string, now time.Time) {
	if !p.Status.CanCast() {
		r.castFail(p, fmt.Sprintf("Cannot cast while %s", p.Status))
		return
	}
	spell, ok := r.matcher.Match(transcript)
	if !ok {
		r.metrics.IncUnmatched()
		r.castFail(p, fmt.Sprintf(`Unknown: "%s"`, transcript))
		return
	}
	if spell.OncePerLife && p.AvadaUses >= 1 {
		r.castFail(p, "Avada Kedavra is limited to once per life!")
		return
	}
	if !p.CooledDown(now) {
		r.castFail(p, "Spell on cooldown")
		return
	}
	projectile := !spell.IsShield && !spell.IsUtility && spell.Speed > 0
	if projectile && len(r.projectiles) >= maxProjectiles {
		r.castFail(p, "Too many spells in flight")
		return
	}
	if spell.OncePerLife {
		p.AvadaUses++
	}

	p.LastCast = now
	r.metrics.IncCast()
	r.sendTo(p.ID, Envelope{T: MsgCooldown, Data: CooldownMsg{Spell: spell.Type, Duration: CastCooldown.Milliseconds()}})
	r.sendTo(p.ID, Envelope{T: MsgCastSuccess, Data: CastSuccessMsg{Spell: spell.Type}})

	switch {
	case spell.IsShield, spell.IsUtility:
		r.resolveSpell(p, p, spell, now)
	case projectile:
		r.nextProjID++
		r.projectiles = append(r.projectiles, NewProjectile(r.nextProjID, p, spell))
		r.metrics.IncProjectile()
	}
}

// Info summarizes the room for the lobby list
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := RoomInfo{
		ID:         r.ID,
		Host:       r.HostName,
		Players:    len(r.players),
		MaxPlayers: MaxPlayersPerRoom,
		GameMode:   r.Match.Mode,
		Ended:      r.ended,
	}
	if left, ok := r.Match.TimeRemaining(r.now().Sub(r.StartedAt)); ok {
		info.TimeRemaining = &left
	}
	return info
}

// Metrics returns the room's counters
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// snapshot builds the public view of the room
func (r *Room) snapshot(now time.Time) Snapshot {
	s := Snapshot{
		Players:     make([]PlayerState, 0, len(r.players)),
		Projectiles: make([]ProjectileState, 0, len(r.projectiles)),
		Effects:     make([]EffectState, 0, len(r.effects)),
		Tick:        r.tick,
		Timestamp:   now.UnixMilli(),
	}
	for _, p := range r.players {
		s.Players = append(s.Players, p.ToState())
	}
	for _, proj := range r.projectiles {
		s.Projectiles = append(s.Projectiles, proj.ToState())
	}
	for _, e := range r.effects {
		s.Effects = append(s.Effects, e.ToState())
	}
	return s
}

// broadcastSnapshot encodes once and queues the frame for every connection
func (r *Room) broadcastSnapshot(now time.Time) {
	if len(r.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(r.snapshot(now))
	if err != nil {
		r.log.Warnw("snapshot encode failed", "room", r.ID, "err", err)
		return
	}
	for _, c := range r.clients {
		c.SendBinary(data)
	}
}

// broadcastMsg sends a message to all clients in the room
func (r *Room) broadcastMsg(msg Envelope) {
	for _, c := range r.clients {
		c.SendJSON(msg)
	}
}

func (r *Room) sendTo(playerID string, msg Envelope) {
	if c, ok := r.clients[playerID]; ok {
		c.SendJSON(msg)
	}
}
