package main

import (
	"math"
	"time"
)

const (
	PlayerMaxHealth = 100.0
	PlayerSpeed     = 12.0 // units/s
	JumpImpulse     = 12.0
	RiseImpulse     = 15.0
	Gravity         = 25.0 // units/s²
	ArenaRadius     = 50.0
	RegenRate       = 0.3  // health/s while alive
	SpawnSpread     = 30.0 // spawn square side, centered on origin
	TeleportSpread  = 40.0
	jumpLift        = 0.05

	RespawnDelay   = 5 * time.Second
	CastCooldown   = 800 * time.Millisecond
	ShieldDuration = 4 * time.Second

	slowedSpeedMul  = 0.5
	dancingSpeedMul = 0.3
)

// Status is a player's current condition
type Status int

const (
	StatusIdle Status = iota
	StatusDisarmed
	StatusStunned
	StatusFrozen
	StatusDancing
	StatusSilenced
	StatusConfused
	StatusSlowed
	StatusLevitating
	StatusDead
)

var statusNames = [...]string{
	StatusIdle:       "IDLE",
	StatusDisarmed:   "DISARMED",
	StatusStunned:    "STUNNED",
	StatusFrozen:     "FROZEN",
	StatusDancing:    "DANCING",
	StatusSilenced:   "SILENCED",
	StatusConfused:   "CONFUSED",
	StatusSlowed:     "SLOWED",
	StatusLevitating: "LEVITATING",
	StatusDead:       "DEAD",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// CanMove is false while stunned, frozen or dead
func (s Status) CanMove() bool {
	switch s {
	case StatusStunned, StatusFrozen, StatusDead:
		return false
	}
	return true
}

// CanCast is false while stunned, disarmed, frozen, dead or silenced
func (s Status) CanCast() bool {
	switch s {
	case StatusStunned, StatusDisarmed, StatusFrozen, StatusDead, StatusSilenced:
		return false
	}
	return true
}

// Timed reports whether the status expires on its own
func (s Status) Timed() bool {
	return s != StatusIdle && s != StatusDead
}

func (s Status) speedMul() float64 {
	switch s {
	case StatusSlowed:
		return slowedSpeedMul
	case StatusDancing:
		return dancingSpeedMul
	}
	return 1
}

// randSource is the subset of *rand.Rand the simulation needs
type randSource interface {
	Float64() float64
}

// Player represents a wizard in a room
type Player struct {
	ID        string
	Name      string
	Character Character
	AccountID int64 // 0 = guest

	X, Y, Z  float64 // Y is height above the floor
	VY       float64
	Rotation float64
	Grounded bool

	Status      Status
	StatusUntil time.Time
	Health      float64
	MaxHealth   float64

	ActiveSpell string // shield spell id, "" = none
	ShieldUntil time.Time
	LumosActive bool

	Kills     int
	Deaths    int
	AvadaUses int
	RespawnAt time.Time // zero = not dead
	LastCast  time.Time

	JoinedAt time.Time
}

// NewPlayer creates a player at a random spawn point
func NewPlayer(id, name string, ch Character, rng randSource, now time.Time) *Player {
	p := &Player{
		ID:        id,
		Name:      name,
		Character: ch,
		Health:    PlayerMaxHealth,
		MaxHealth: PlayerMaxHealth,
		Grounded:  true,
		JoinedAt:  now,
	}
	p.X, p.Z = spawnPoint(rng, SpawnSpread)
	return p
}

func spawnPoint(rng randSource, spread float64) (float64, float64) {
	return (rng.Float64() - 0.5) * spread, (rng.Float64() - 0.5) * spread
}

// Dead reports whether the player is waiting to respawn
func (p *Player) Dead() bool {
	return p.Status == StatusDead
}

// SetStatus applies a timed status
func (p *Player) SetStatus(s Status, d time.Duration, now time.Time) {
	p.Status = s
	p.StatusUntil = now.Add(d)
}

// Shielded reports whether a shield is currently up
func (p *Player) Shielded() bool {
	return p.ActiveSpell != ""
}

// RaiseShield puts up a shield until now+ShieldDuration, replacing any current one
func (p *Player) RaiseShield(spellID string, now time.Time) {
	p.ActiveSpell = spellID
	p.ShieldUntil = now.Add(ShieldDuration)
}

// DropShield clears the active shield
func (p *Player) DropShield() {
	p.ActiveSpell = ""
	p.ShieldUntil = time.Time{}
}

// AdjustHealth adds delta and clamps to [0, MaxHealth]
func (p *Player) AdjustHealth(delta float64) {
	p.Health = Clamp(p.Health+delta, 0, p.MaxHealth)
}

// Launch gives the player an upward velocity
func (p *Player) Launch(vy float64) {
	p.VY = vy
	p.Grounded = false
}

// ApplyInput moves the player one input step. Returns false if the input was rejected.
func (p *Player) ApplyInput(in Input) bool {
	if !p.Status.CanMove() {
		return false
	}
	p.Rotation = in.Rotation

	var dx, dz float64
	if in.Keys.W {
		dx += math.Sin(p.Rotation)
		dz += math.Cos(p.Rotation)
	}
	if in.Keys.S {
		dx -= math.Sin(p.Rotation)
		dz -= math.Cos(p.Rotation)
	}
	if in.Keys.A {
		dx += math.Sin(p.Rotation + math.Pi/2)
		dz += math.Cos(p.Rotation + math.Pi/2)
	}
	if in.Keys.D {
		dx += math.Sin(p.Rotation - math.Pi/2)
		dz += math.Cos(p.Rotation - math.Pi/2)
	}
	if p.Status == StatusConfused {
		dx, dz = -dx, -dz
	}

	if in.Keys.Space && p.Grounded && p.Status != StatusLevitating {
		p.Launch(JumpImpulse)
		p.Y += jumpLift
	}

	if dx != 0 || dz != 0 {
		l := math.Hypot(dx, dz)
		step := PlayerSpeed * p.Status.speedMul() / TickRate
		p.X -= dx / l * step
		p.Z -= dz / l * step
		p.ClampToArena()
	}
	return true
}

// ClampToArena pulls the player back inside the arena circle
func (p *Player) ClampToArena() {
	d := math.Hypot(p.X, p.Z)
	if d > ArenaRadius {
		p.X *= ArenaRadius / d
		p.Z *= ArenaRadius / d
	}
}

// Update advances physics and timers one tick (dt in seconds).
// Returns true if the player respawned this tick.
func (p *Player) Update(dt float64, now time.Time, rng randSource) bool {
	respawned := false
	if p.Dead() && !p.RespawnAt.IsZero() && !now.Before(p.RespawnAt) {
		p.Respawn(rng)
		respawned = true
	}

	if !p.Grounded && !p.Dead() {
		p.VY -= Gravity * dt
		p.Y += p.VY * dt
		if p.Y <= 0 {
			p.Y = 0
			p.VY = 0
			p.Grounded = true
		}
	}

	if p.Status.Timed() && now.After(p.StatusUntil) {
		p.Status = StatusIdle
	}

	if p.Shielded() && now.After(p.ShieldUntil) {
		p.DropShield()
	}

	if !p.Dead() {
		p.AdjustHealth(RegenRate * dt)
	}
	return respawned
}

// Kill puts the player into DEAD and schedules the respawn. Returns false if already dead.
func (p *Player) Kill(now time.Time) bool {
	if p.Dead() {
		return false
	}
	p.Health = 0
	p.Status = StatusDead
	p.StatusUntil = time.Time{}
	p.Deaths++
	p.RespawnAt = now.Add(RespawnDelay)
	return true
}

// CanRespawn reports whether a manual respawn request is allowed
func (p *Player) CanRespawn(now time.Time) bool {
	return p.Dead() && !now.Before(p.RespawnAt)
}

// Respawn resets the player after death
func (p *Player) Respawn(rng randSource) {
	p.X, p.Z = spawnPoint(rng, SpawnSpread)
	p.Y = 0
	p.VY = 0
	p.Grounded = true
	p.Health = p.MaxHealth
	p.Status = StatusIdle
	p.StatusUntil = time.Time{}
	p.RespawnAt = time.Time{}
	p.DropShield()
	p.AvadaUses = 0
}

// CooledDown reports whether the cast cooldown has elapsed
func (p *Player) CooledDown(now time.Time) bool {
	return p.LastCast.IsZero() || now.Sub(p.LastCast) >= CastCooldown
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:            p.ID,
		X:             round2(p.X),
		Y:             round2(p.Y),
		Z:             round2(p.Z),
		Rot:           p.Rotation,
		State:         p.Status.String(),
		Health:        round2(p.Health),
		MaxHealth:     p.MaxHealth,
		Name:          p.Name,
		Character:     p.Character.ID,
		CharacterData: p.Character,
		ActiveSpell:   p.ActiveSpell,
		LumosActive:   p.LumosActive,
		Kills:         p.Kills,
		Deaths:        p.Deaths,
	}
}
