package main

import (
	"fmt"
	"math"
	"time"
)

// Status durations per effect
const (
	disarmDuration  = 3000 * time.Millisecond
	stunDuration    = 2000 * time.Millisecond
	slashDuration   = 500 * time.Millisecond
	tortureDuration = 1500 * time.Millisecond
	freezeDuration  = 3000 * time.Millisecond
	confuseDuration = 4000 * time.Millisecond
	danceDuration   = 5000 * time.Millisecond
	slowDuration    = 3000 * time.Millisecond
	levDuration     = 5000 * time.Millisecond
	forgetDuration  = 3000 * time.Millisecond
)

// Knockback magnitudes and vertical impulses
const (
	waterPush    = 4.0
	forcePush    = 8.0
	patronusPush = 15.0
	blastPush    = 6.0
	pullDistance = 12.0
	knockLift    = 5.0
	levitateLift = 10.0
)

// spellHit is one spell landing on one player
type spellHit struct {
	room   *Room
	target *Player
	caster *Player // nil when the caster has left the room
	spell  *Spell
	now    time.Time
}

type effectHandler func(h *spellHit)

// effectHandlers has exactly one entry per EffectKind, checked in init
var effectHandlers [numEffectKinds]effectHandler

func init() {
	effectHandlers = [numEffectKinds]effectHandler{
		EffectDisarm:    setStatus(StatusDisarmed, disarmDuration),
		EffectStun:      setStatus(StatusStunned, stunDuration),
		EffectTickle:    setStatus(StatusStunned, stunDuration),
		EffectSlash:     setStatus(StatusStunned, slashDuration),
		EffectCut:       setStatus(StatusStunned, slashDuration),
		EffectTorture:   setStatus(StatusStunned, tortureDuration),
		EffectFreeze:    setStatus(StatusFrozen, freezeDuration),
		EffectPetrify:   setStatus(StatusFrozen, freezeDuration),
		EffectBind:      setStatus(StatusFrozen, freezeDuration),
		EffectLeglock:   setStatus(StatusFrozen, freezeDuration),
		EffectConfuse:   setStatus(StatusConfused, confuseDuration),
		EffectControl:   setStatus(StatusConfused, confuseDuration),
		EffectDance:     setStatus(StatusDancing, danceDuration),
		EffectSlow:      setStatus(StatusSlowed, slowDuration),
		EffectForget:    setStatus(StatusSilenced, forgetDuration),
		EffectLevitate:  levitate,
		EffectWater:     knockback(waterPush, 0),
		EffectKnockback: knockback(forcePush, knockLift),
		EffectPush:      knockback(forcePush, knockLift),
		EffectWind:      knockback(forcePush, knockLift),
		EffectPatronus:  knockback(patronusPush, knockLift),
		EffectExplode:   knockback(blastPush, 0),
		EffectBlast:     knockback(blastPush, 0),
		EffectDestroy:   knockback(blastPush, 0),
		EffectHellfire:  knockback(blastPush, 0),
		EffectPull:      pull,
		EffectKill:      kill,
		EffectBurn:      damageOnly,
		EffectAttack:    damageOnly,
		EffectSnake:     damageOnly,
		EffectBoggart:   damageOnly,
		EffectHeal:      damageOnly,
		EffectShield:    raiseShield,
		EffectHexShield: raiseShield,
		EffectLight:     lumos(true),
		EffectDark:      lumos(false),
		EffectTeleport:  teleport,
		EffectRise:      rise,
		EffectUnlock:    cosmetic,
		EffectRepair:    cosmetic,
		EffectDarkMark:  cosmetic,
	}
	for k, h := range effectHandlers {
		if h == nil {
			panic(fmt.Sprintf("no handler for effect %s", EffectKind(k)))
		}
	}
}

func setStatus(s Status, d time.Duration) effectHandler {
	return func(h *spellHit) {
		h.target.SetStatus(s, d, h.now)
	}
}

func levitate(h *spellHit) {
	h.target.SetStatus(StatusLevitating, levDuration, h.now)
	h.target.Launch(levitateLift)
}

// casterPos is the origin of a knockback. A caster who left counts as the arena center.
func (h *spellHit) casterPos() (float64, float64) {
	if h.caster == nil {
		return 0, 0
	}
	return h.caster.X, h.caster.Z
}

// knockback shoves the target away from the caster
func knockback(dist, lift float64) effectHandler {
	return func(h *spellHit) {
		cx, cz := h.casterPos()
		angle := math.Atan2(h.target.X-cx, h.target.Z-cz)
		h.target.X += math.Sin(angle) * dist
		h.target.Z += math.Cos(angle) * dist
		if lift > 0 {
			h.target.Launch(lift)
		}
		h.target.ClampToArena()
	}
}

// pull drags the target toward the caster
func pull(h *spellHit) {
	cx, cz := h.casterPos()
	dx, dz := cx-h.target.X, cz-h.target.Z
	d := math.Hypot(dx, dz)
	if d == 0 {
		return
	}
	h.target.X += dx / d * pullDistance
	h.target.Z += dz / d * pullDistance
	h.target.ClampToArena()
}

func kill(h *spellHit) {
	h.target.Health = 0
}

func damageOnly(*spellHit) {}

// cosmetic spells only matter to clients
func cosmetic(*spellHit) {}

func raiseShield(h *spellHit) {
	h.target.RaiseShield(h.spell.ID, h.now)
}

func lumos(on bool) effectHandler {
	return func(h *spellHit) {
		h.target.LumosActive = on
	}
}

func teleport(h *spellHit) {
	h.target.X, h.target.Z = spawnPoint(h.room.rng, TeleportSpread)
}

func rise(h *spellHit) {
	h.target.Launch(RiseImpulse)
}

// resolveSpell applies damage and the effect of spell to target.
// Self-cast shields and utilities pass the caster as target.
func (r *Room) resolveSpell(target, caster *Player, spell *Spell, now time.Time) {
	if target.Dead() {
		return
	}
	if spell.Damage != 0 {
		target.AdjustHealth(-spell.Damage)
	}
	effectHandlers[spell.Effect](&spellHit{
		room:   r,
		target: target,
		caster: caster,
		spell:  spell,
		now:    now,
	})
	if target.Health <= 0 {
		r.killPlayer(target, caster, spell.ID, now)
	}
}

// projectileHit resolves a projectile that reached target
func (r *Room) projectileHit(proj *Projectile, target *Player, now time.Time) {
	if target.Shielded() {
		target.DropShield()
		r.addEffect(FxShieldBreak, "", target.X, target.Z, 0)
		r.metrics.IncBlock()
		return
	}
	spell, ok := r.catalog.Spell(proj.SpellID)
	if !ok {
		return
	}
	r.metrics.IncHit()
	r.addEffect(FxHit, spell.Type, target.X, target.Z, spell.Color)
	r.resolveSpell(target, r.player(proj.OwnerID), spell, now)
}

// killPlayer handles death bookkeeping and notifies the victim
func (r *Room) killPlayer(victim, killer *Player, spellID string, now time.Time) {
	if !victim.Kill(now) {
		return
	}
	killerName := "Unknown"
	if killer != nil && killer != victim {
		killer.Kills++
		killerName = killer.Name
	}
	r.metrics.IncKill()
	r.sendTo(victim.ID, Envelope{T: MsgPlayerDied, Data: PlayerDiedMsg{
		Killer:    killerName,
		RespawnIn: RespawnDelay.Milliseconds(),
	}})
	r.log.Infow("player died", "room", r.ID, "victim", victim.Name, "killer", killerName, "spell", spellID)
	var accountID int64
	if killer != nil {
		accountID = killer.AccountID
	}
	r.journal.Track(EvtPlayerKill, r.ID, accountID, eventData(map[string]any{
		"killer": killerName,
		"victim": victim.Name,
		"spell":  spellID,
	}))
}
