package main

// Effect kinds shown by clients. They carry no gameplay state.
const (
	FxExplosion   = "explosion"
	FxHit         = "hit"
	FxShieldBreak = "shield_break"
)

const (
	EffectLifetime = 0.5 // seconds
	EffectHeight   = 2.0
)

// Effect is a short-lived visual marker
type Effect struct {
	ID        uint64
	Kind      string
	SpellType string
	X, Y, Z   float64
	Color     uint32
	Life      float64
}

// Update ticks the effect lifetime, returns false when expired
func (e *Effect) Update(dt float64) bool {
	e.Life -= dt
	return e.Life > 0
}

// ToState converts to protocol state
func (e *Effect) ToState() EffectState {
	return EffectState{
		ID:        e.ID,
		Type:      e.Kind,
		SpellType: e.SpellType,
		X:         round2(e.X),
		Y:         round2(e.Y),
		Z:         round2(e.Z),
		Color:     e.Color,
		Life:      round2(e.Life),
	}
}
