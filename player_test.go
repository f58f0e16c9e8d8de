package main

import (
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestPlayer() *Player {
	return NewPlayer("test", "Tester", NewCatalog().Character(""), constRand(0.5), testNow)
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer("test1", "Wizard", NewCatalog().Character("snape"), constRand(0.75), testNow)
	if p.ID != "test1" || p.Name != "Wizard" {
		t.Errorf("unexpected identity %s/%s", p.ID, p.Name)
	}
	if p.Character.ID != "snape" {
		t.Errorf("expected snape, got %s", p.Character.ID)
	}
	if p.Health != PlayerMaxHealth || p.MaxHealth != PlayerMaxHealth {
		t.Errorf("expected full health, got %v/%v", p.Health, p.MaxHealth)
	}
	if p.Status != StatusIdle || !p.Grounded {
		t.Errorf("expected idle and grounded, got %s grounded=%v", p.Status, p.Grounded)
	}
	// 0.75 maps to a quarter of the spawn spread from the center
	if p.X != SpawnSpread/4 || p.Z != SpawnSpread/4 {
		t.Errorf("unexpected spawn (%v, %v)", p.X, p.Z)
	}
	if !p.JoinedAt.Equal(testNow) {
		t.Error("JoinedAt should be the creation time")
	}
}

func TestStatusNames(t *testing.T) {
	if StatusDead.String() != "DEAD" || StatusLevitating.String() != "LEVITATING" {
		t.Error("status names mismatch")
	}
	if Status(99).String() != "UNKNOWN" {
		t.Error("out of range status should be UNKNOWN")
	}
}

func TestStatusPermissions(t *testing.T) {
	tests := []struct {
		status  Status
		canMove bool
		canCast bool
	}{
		{StatusIdle, true, true},
		{StatusDisarmed, true, false},
		{StatusStunned, false, false},
		{StatusFrozen, false, false},
		{StatusDancing, true, true},
		{StatusSilenced, true, false},
		{StatusConfused, true, true},
		{StatusSlowed, true, true},
		{StatusLevitating, true, true},
		{StatusDead, false, false},
	}
	for _, tt := range tests {
		if tt.status.CanMove() != tt.canMove {
			t.Errorf("%s: CanMove = %v", tt.status, !tt.canMove)
		}
		if tt.status.CanCast() != tt.canCast {
			t.Errorf("%s: CanCast = %v", tt.status, !tt.canCast)
		}
	}
}

func TestAdjustHealthClamps(t *testing.T) {
	p := newTestPlayer()
	p.AdjustHealth(-30)
	if p.Health != 70 {
		t.Errorf("expected 70, got %v", p.Health)
	}
	p.AdjustHealth(500)
	if p.Health != PlayerMaxHealth {
		t.Errorf("expected clamp to max, got %v", p.Health)
	}
	p.AdjustHealth(-500)
	if p.Health != 0 {
		t.Errorf("expected clamp to 0, got %v", p.Health)
	}
}

func TestApplyInputMovesForward(t *testing.T) {
	p := newTestPlayer()
	if !p.ApplyInput(Input{Keys: InputKeys{W: true}, Rotation: 0}) {
		t.Fatal("input should be accepted")
	}
	want := -PlayerSpeed / TickRate
	if math.Abs(p.Z-want) > 1e-9 || math.Abs(p.X) > 1e-9 {
		t.Errorf("expected (0, %v), got (%v, %v)", want, p.X, p.Z)
	}
}

func TestApplyInputRejectedWhileStunned(t *testing.T) {
	p := newTestPlayer()
	p.SetStatus(StatusStunned, time.Second, testNow)
	if p.ApplyInput(Input{Keys: InputKeys{W: true}, Rotation: 1}) {
		t.Error("stunned input should be rejected")
	}
	if p.Z != 0 || p.Rotation != 0 {
		t.Error("rejected input must not change the player")
	}
}

func TestApplyInputConfusedInverts(t *testing.T) {
	p := newTestPlayer()
	p.SetStatus(StatusConfused, time.Second, testNow)
	p.ApplyInput(Input{Keys: InputKeys{W: true}})
	if p.Z <= 0 {
		t.Errorf("confused forward should move +Z, got %v", p.Z)
	}
}

func TestApplyInputSlowed(t *testing.T) {
	p := newTestPlayer()
	p.SetStatus(StatusSlowed, time.Second, testNow)
	p.ApplyInput(Input{Keys: InputKeys{S: true}})
	want := PlayerSpeed * slowedSpeedMul / TickRate
	if math.Abs(p.Z-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, p.Z)
	}
}

func TestApplyInputDiagonalNormalized(t *testing.T) {
	p := newTestPlayer()
	p.ApplyInput(Input{Keys: InputKeys{W: true, D: true}})
	got := math.Hypot(p.X, p.Z)
	if math.Abs(got-PlayerSpeed/TickRate) > 1e-9 {
		t.Errorf("diagonal step should be normalized, got %v", got)
	}
}

func TestJumpAndGravity(t *testing.T) {
	p := newTestPlayer()
	p.ApplyInput(Input{Keys: InputKeys{Space: true}})
	if p.Grounded || p.VY != JumpImpulse {
		t.Fatalf("expected jump, grounded=%v vy=%v", p.Grounded, p.VY)
	}
	// A second jump in the air does nothing
	p.ApplyInput(Input{Keys: InputKeys{Space: true}})
	if p.VY != JumpImpulse {
		t.Error("mid-air jump should be ignored")
	}

	now := testNow
	for i := 0; i < 2*TickRate && !p.Grounded; i++ {
		now = now.Add(TickDuration)
		p.Update(1.0/TickRate, now, constRand(0.5))
	}
	if !p.Grounded || p.Y != 0 || p.VY != 0 {
		t.Errorf("player should land, y=%v vy=%v", p.Y, p.VY)
	}
}

func TestNoJumpWhileLevitating(t *testing.T) {
	p := newTestPlayer()
	p.SetStatus(StatusLevitating, time.Second, testNow)
	p.ApplyInput(Input{Keys: InputKeys{Space: true}})
	if !p.Grounded {
		t.Error("levitating players cannot jump")
	}
}

func TestClampToArena(t *testing.T) {
	p := newTestPlayer()
	p.X, p.Z = 300, 400
	p.ClampToArena()
	if d := math.Hypot(p.X, p.Z); math.Abs(d-ArenaRadius) > 1e-9 {
		t.Errorf("expected distance %v, got %v", ArenaRadius, d)
	}
	if math.Abs(p.X/p.Z-0.75) > 1e-9 {
		t.Error("clamping should keep the direction")
	}
}

func TestStatusAndShieldExpire(t *testing.T) {
	p := newTestPlayer()
	p.SetStatus(StatusFrozen, time.Second, testNow)
	p.RaiseShield("protego", testNow)

	p.Update(0, testNow.Add(500*time.Millisecond), constRand(0.5))
	if p.Status != StatusFrozen || !p.Shielded() {
		t.Fatal("status and shield should still be active")
	}
	p.Update(0, testNow.Add(2*time.Second), constRand(0.5))
	if p.Status != StatusIdle {
		t.Errorf("status should expire, got %s", p.Status)
	}
	if !p.Shielded() {
		t.Error("shield lasts longer than the status")
	}
	p.Update(0, testNow.Add(ShieldDuration+time.Millisecond), constRand(0.5))
	if p.Shielded() {
		t.Error("shield should expire")
	}
}

func TestRegen(t *testing.T) {
	p := newTestPlayer()
	p.Health = 50
	p.Update(1, testNow, constRand(0.5))
	if math.Abs(p.Health-(50+RegenRate)) > 1e-9 {
		t.Errorf("expected %v, got %v", 50+RegenRate, p.Health)
	}
}

func TestKillAndRespawnTimer(t *testing.T) {
	p := newTestPlayer()
	p.AvadaUses = 1
	p.RaiseShield("salvio", testNow)
	if !p.Kill(testNow) {
		t.Fatal("first kill should succeed")
	}
	if p.Kill(testNow) {
		t.Error("a dead player cannot be killed again")
	}
	if p.Deaths != 1 || p.Health != 0 || !p.Dead() {
		t.Fatalf("unexpected state after kill: deaths=%d health=%v status=%s", p.Deaths, p.Health, p.Status)
	}

	p.Update(1, testNow.Add(RespawnDelay/2), constRand(0.5))
	if !p.Dead() || p.Health != 0 {
		t.Error("dead players stay dead and do not regenerate")
	}
	if p.CanRespawn(testNow.Add(RespawnDelay / 2)) {
		t.Error("respawn should wait for the delay")
	}
	if !p.CanRespawn(testNow.Add(RespawnDelay)) {
		t.Error("respawn should be allowed after the delay")
	}

	if !p.Update(0, testNow.Add(RespawnDelay), constRand(0.5)) {
		t.Fatal("Update should respawn once the delay has passed")
	}
	if p.Dead() || p.Health != p.MaxHealth || p.AvadaUses != 0 || p.Shielded() {
		t.Errorf("respawn should reset the player: %+v", p)
	}
	if p.Deaths != 1 {
		t.Error("respawn keeps the death count")
	}
}

func TestCooledDown(t *testing.T) {
	p := newTestPlayer()
	if !p.CooledDown(testNow) {
		t.Error("a player who never cast is ready")
	}
	p.LastCast = testNow
	if p.CooledDown(testNow.Add(CastCooldown - time.Millisecond)) {
		t.Error("should still be cooling down")
	}
	if !p.CooledDown(testNow.Add(CastCooldown)) {
		t.Error("should be ready after the cooldown")
	}
}

func TestPlayerToState(t *testing.T) {
	p := newTestPlayer()
	p.X, p.Y, p.Z = 1.23456, 0.5, -7.891
	p.Health = 66.666
	p.Kills, p.Deaths = 3, 2
	p.LumosActive = true
	p.SetStatus(StatusSilenced, time.Second, testNow)
	s := p.ToState()
	if s.X != 1.23 || s.Y != 0.5 || s.Z != -7.89 {
		t.Errorf("position should round to 2 places: %v %v %v", s.X, s.Y, s.Z)
	}
	if s.Health != 66.67 || s.MaxHealth != PlayerMaxHealth {
		t.Errorf("health mismatch %v/%v", s.Health, s.MaxHealth)
	}
	if s.State != "SILENCED" || s.Character != DefaultCharacterID || s.CharacterData.ID != DefaultCharacterID {
		t.Error("state field mismatch")
	}
	if s.Kills != 3 || s.Deaths != 2 || !s.LumosActive {
		t.Error("score mismatch")
	}
}
