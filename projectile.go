package main

import "math"

const (
	ProjectileLifetime = 5.0 // seconds
	ProjectileOffset   = 1.5 // spawn distance in front of the caster
	ProjectileHeight   = 2.0
	ArenaMargin        = 10.0 // projectiles die this far past the arena edge
)

// Projectile is a spell in flight
type Projectile struct {
	ID        uint64
	OwnerID   string
	SpellID   string
	Type      string
	Color     uint32
	X, Y, Z   float64
	VX, VZ    float64
	Life      float64
	Explosive bool
}

// NewProjectile launches a spell from the caster's position along its facing
func NewProjectile(id uint64, owner *Player, spell *Spell) *Projectile {
	sin, cos := math.Sincos(owner.Rotation)
	return &Projectile{
		ID:        id,
		OwnerID:   owner.ID,
		SpellID:   spell.ID,
		Type:      spell.Type,
		Color:     spell.Color,
		X:         owner.X - sin*ProjectileOffset,
		Y:         ProjectileHeight,
		Z:         owner.Z - cos*ProjectileOffset,
		VX:        -sin * spell.Speed,
		VZ:        -cos * spell.Speed,
		Life:      ProjectileLifetime,
		Explosive: spell.Explodes,
	}
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	p.X += p.VX * dt
	p.Z += p.VZ * dt
	p.Life -= dt
}

// Expired reports whether the projectile ran out of time or left the arena
func (p *Projectile) Expired() bool {
	return p.Life <= 0 || math.Hypot(p.X, p.Z) > ArenaRadius+ArenaMargin
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:    p.ID,
		Type:  p.Type,
		Owner: p.OwnerID,
		X:     round2(p.X),
		Y:     round2(p.Y),
		Z:     round2(p.Z),
		Color: p.Color,
	}
}
