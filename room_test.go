package main

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []any
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

// envelopes returns every captured envelope of type t
func (m *mockBroadcaster) envelopes(t string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == t {
			out = append(out, env)
		}
	}
	return out
}

func (m *mockBroadcaster) last(t string) (Envelope, bool) {
	envs := m.envelopes(t)
	if len(envs) == 0 {
		return Envelope{}, false
	}
	return envs[len(envs)-1], true
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	t     time.Time
	panic bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	if c.panic {
		panic("clock exploded")
	}
	return c.t
}

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// constRand always returns the same value. 0.5 spawns every player at the origin.
type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

// recordingJournal keeps everything it is given
type recordingJournal struct {
	mu      sync.Mutex
	matches []MatchResult
	events  []string
}

func (j *recordingJournal) RecordMatch(res MatchResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.matches = append(j.matches, res)
}

func (j *recordingJournal) Track(evtType, roomID string, accountID int64, data string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, evtType)
}

func newTestRoom(t *testing.T, match MatchConfig) (*Room, *fakeClock, *recordingJournal) {
	t.Helper()
	clock := newFakeClock()
	journal := &recordingJournal{}
	r := NewRoom(RoomOptions{ID: "test", HostID: "p1", HostName: "Host", Match: match}, RoomDeps{
		Journal: journal,
		Now:     clock.now,
		Rand:    constRand(0.5),
	})
	return r, clock, journal
}

func addTestPlayer(t *testing.T, r *Room, id string) (*Player, *mockBroadcaster) {
	t.Helper()
	conn := &mockBroadcaster{}
	p, err := r.AddPlayer(id, "Name-"+id, "", 0, conn)
	if err != nil {
		t.Fatalf("AddPlayer(%s): %v", id, err)
	}
	return p, conn
}

const testDt = 1.0 / TickRate

// stepFor runs ticks covering d of simulated time
func stepFor(r *Room, clock *fakeClock, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += TickDuration {
		clock.advance(TickDuration)
		r.step(clock.t, testDt)
	}
}

func castFailText(t *testing.T, conn *mockBroadcaster) string {
	t.Helper()
	env, ok := conn.last(MsgCastFail)
	if !ok {
		t.Fatal("expected a cast_fail message")
	}
	return env.Data.(CastFailMsg).Message
}

func TestRoomAddRemovePlayer(t *testing.T) {
	r, _, journal := newTestRoom(t, MatchConfig{Mode: ModeEndless})
	p1, c1 := addTestPlayer(t, r, "p1")
	if p1.Character.ID != DefaultCharacterID {
		t.Errorf("blank character should fall back to %s, got %s", DefaultCharacterID, p1.Character.ID)
	}
	addTestPlayer(t, r, "p2")
	if r.PlayerCount() != 2 {
		t.Fatalf("expected 2 players, got %d", r.PlayerCount())
	}

	joined := c1.envelopes(MsgPlayerJoined)
	if len(joined) != 2 {
		t.Errorf("p1 should see 2 player_joined notices, got %d", len(joined))
	}
	if n := len(journal.events); n != 2 || journal.events[0] != EvtPlayerJoin {
		t.Errorf("expected 2 player_join events, got %v", journal.events)
	}

	if left := r.RemovePlayer("p2"); left != 1 {
		t.Errorf("expected 1 player left, got %d", left)
	}
	env, ok := c1.last(MsgPlayerLeft)
	if !ok || env.Data.(PlayerNoticeMsg).ID != "p2" {
		t.Errorf("expected player_left for p2, got %+v", env)
	}
	if r.HasPlayer("p2") {
		t.Error("p2 should be gone")
	}
	if left := r.RemovePlayer("missing"); left != 1 {
		t.Errorf("removing unknown player should be a no-op, got %d", left)
	}
}

func TestRoomAddPlayerTwiceReturnsSamePlayer(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	p1, _ := addTestPlayer(t, r, "p1")
	again, err := r.AddPlayer("p1", "Other", "snape", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again != p1 || r.PlayerCount() != 1 {
		t.Error("re-adding an id should return the existing player")
	}
}

func TestRoomFull(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	for i := 0; i < MaxPlayersPerRoom; i++ {
		addTestPlayer(t, r, fmt.Sprintf("p%d", i))
	}
	_, err := r.AddPlayer("extra", "Extra", "", 0, nil)
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if err.Error() != "Room is full" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCastUnknownTranscript(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	_, conn := addTestPlayer(t, r, "p1")
	r.SubmitCast("p1", "asdkjfh")
	if got := castFailText(t, conn); got != `Unknown: "asdkjfh"` {
		t.Errorf("cast_fail = %q", got)
	}
	if n := r.Metrics().Snapshot()["unmatched"].(int64); n != 1 {
		t.Errorf("expected 1 unmatched, got %d", n)
	}
}

func TestCastWhileStunned(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	p, conn := addTestPlayer(t, r, "p1")
	p.SetStatus(StatusStunned, time.Second, clock.t)
	r.SubmitCast("p1", "stupefy")
	if got := castFailText(t, conn); got != "Cannot cast while STUNNED" {
		t.Errorf("cast_fail = %q", got)
	}
	if len(r.projectiles) != 0 {
		t.Error("no projectile should spawn")
	}
}

func TestCastSpawnsProjectileAndCooldown(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	_, conn := addTestPlayer(t, r, "p1")

	r.SubmitCast("p1", "Stupefy!")
	if len(r.projectiles) != 1 {
		t.Fatalf("expected 1 projectile, got %d", len(r.projectiles))
	}
	if r.projectiles[0].SpellID != "stupefy" || r.projectiles[0].OwnerID != "p1" {
		t.Errorf("unexpected projectile %+v", r.projectiles[0])
	}
	cd, ok := conn.last(MsgCooldown)
	if !ok {
		t.Fatal("expected cooldown message")
	}
	if msg := cd.Data.(CooldownMsg); msg.Spell != "stupefy" || msg.Duration != 800 {
		t.Errorf("unexpected cooldown %+v", msg)
	}
	if _, ok := conn.last(MsgCastSuccess); !ok {
		t.Error("expected cast_success")
	}

	clock.advance(100 * time.Millisecond)
	r.SubmitCast("p1", "stupefy")
	if got := castFailText(t, conn); got != "Spell on cooldown" {
		t.Errorf("cast_fail = %q", got)
	}

	clock.advance(CastCooldown)
	r.SubmitCast("p1", "stupefy")
	if len(r.projectiles) != 2 {
		t.Errorf("cast after cooldown should spawn, have %d projectiles", len(r.projectiles))
	}
}

func TestCastRejectedAtProjectileCap(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	p, conn := addTestPlayer(t, r, "p1")
	stupefy, _ := r.catalog.Spell("stupefy")
	for i := range maxProjectiles {
		r.projectiles = append(r.projectiles, NewProjectile(uint64(i+1), p, stupefy))
	}

	r.SubmitCast("p1", "avada kedavra")
	if got := castFailText(t, conn); got != "Too many spells in flight" {
		t.Errorf("cast_fail = %q", got)
	}
	if len(r.projectiles) != maxProjectiles {
		t.Errorf("projectiles = %d, want %d", len(r.projectiles), maxProjectiles)
	}
	if _, ok := conn.last(MsgCooldown); ok {
		t.Error("rejected cast should not start a cooldown")
	}
	if _, ok := conn.last(MsgCastSuccess); ok {
		t.Error("rejected cast should not report success")
	}
	if !p.LastCast.IsZero() || p.AvadaUses != 0 {
		t.Errorf("rejected cast changed caster: LastCast=%v AvadaUses=%d", p.LastCast, p.AvadaUses)
	}

	r.projectiles = r.projectiles[:0]
	r.SubmitCast("p1", "avada kedavra")
	if len(r.projectiles) != 1 || p.AvadaUses != 1 {
		t.Errorf("cast after the cap cleared: projectiles=%d AvadaUses=%d", len(r.projectiles), p.AvadaUses)
	}
}

func TestCastShieldIsSelfApplied(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	p, _ := addTestPlayer(t, r, "p1")
	r.SubmitCast("p1", "protego")
	if p.ActiveSpell != "protego" {
		t.Errorf("expected protego shield, got %q", p.ActiveSpell)
	}
	if len(r.projectiles) != 0 {
		t.Error("shield should not spawn a projectile")
	}
}

func TestUtilityHealsCaster(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	p, _ := addTestPlayer(t, r, "p1")
	p.Health = 40
	r.SubmitCast("p1", "episkey")
	if p.Health != 70 {
		t.Errorf("expected 70 health, got %v", p.Health)
	}
}

func TestAvadaOncePerLife(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	p, conn := addTestPlayer(t, r, "p1")

	r.SubmitCast("p1", "avada kedavra")
	if len(r.projectiles) != 1 {
		t.Fatalf("first avada should fire, have %d projectiles", len(r.projectiles))
	}

	// Rejected while still on cooldown
	r.SubmitCast("p1", "avada kedavra")
	if got := castFailText(t, conn); got != "Avada Kedavra is limited to once per life!" {
		t.Errorf("cast_fail = %q", got)
	}

	// Rejected after the cooldown too
	clock.advance(10 * time.Second)
	r.SubmitCast("p1", "avada kedavra")
	if got := castFailText(t, conn); got != "Avada Kedavra is limited to once per life!" {
		t.Errorf("cast_fail = %q", got)
	}
	if len(r.projectiles) != 1 {
		t.Errorf("rejected casts must not fire, have %d projectiles", len(r.projectiles))
	}

	// Other spells still work
	r.SubmitCast("p1", "stupefy")
	if len(r.projectiles) != 2 {
		t.Errorf("stupefy should fire, have %d projectiles", len(r.projectiles))
	}

	// A new life resets the limit
	p.Kill(clock.t)
	clock.advance(RespawnDelay)
	r.RequestRespawn("p1")
	if p.Dead() {
		t.Fatal("respawn request after the delay should revive")
	}
	r.SubmitCast("p1", "avada kedavra")
	if len(r.projectiles) != 3 {
		t.Errorf("avada should fire again after respawn, have %d projectiles", len(r.projectiles))
	}
}

func TestRequestRespawnTooEarly(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	p, _ := addTestPlayer(t, r, "p1")
	p.Kill(clock.t)
	clock.advance(RespawnDelay / 2)
	r.RequestRespawn("p1")
	if !p.Dead() {
		t.Error("respawn before the delay should be ignored")
	}
	r.RequestRespawn("missing")
}

func TestProjectileKillsTarget(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	caster, _ := addTestPlayer(t, r, "p1")
	target, targetConn := addTestPlayer(t, r, "p2")
	// caster faces -Z, so place the target there
	caster.X, caster.Z, caster.Rotation = 0, 0, 0
	target.X, target.Z = 0, -10

	r.SubmitCast("p1", "avada kedavra")
	stepFor(r, clock, time.Second)

	if !target.Dead() {
		t.Fatalf("target should be dead, status %s health %v", target.Status, target.Health)
	}
	if caster.Kills != 1 || target.Deaths != 1 {
		t.Errorf("kills=%d deaths=%d", caster.Kills, target.Deaths)
	}
	env, ok := targetConn.last(MsgPlayerDied)
	if !ok {
		t.Fatal("victim should get player_died")
	}
	if msg := env.Data.(PlayerDiedMsg); msg.Killer != caster.Name || msg.RespawnIn != 5000 {
		t.Errorf("unexpected player_died %+v", msg)
	}
	if len(r.projectiles) != 0 {
		t.Error("projectile should be consumed by the hit")
	}
}

func TestKillsModeEndsOnce(t *testing.T) {
	r, clock, journal := newTestRoom(t, NewMatchConfig("kills", 3, 0))
	p1, c1 := addTestPlayer(t, r, "p1")
	addTestPlayer(t, r, "p2")

	p1.Kills = 3
	stepFor(r, clock, TickDuration)

	ended, winner := r.Ended()
	if !ended || winner != p1.Name {
		t.Fatalf("expected match over with %s winning, got ended=%v winner=%q", p1.Name, ended, winner)
	}
	stepFor(r, clock, time.Second)

	overs := c1.envelopes(MsgGameOver)
	if len(overs) != 1 {
		t.Fatalf("game_over should be sent once, got %d", len(overs))
	}
	msg := overs[0].Data.(GameOverMsg)
	if msg.WinnerID != "p1" || msg.GameMode != ModeKills || msg.KillTarget != 3 {
		t.Errorf("unexpected game_over %+v", msg)
	}
	if len(journal.matches) != 1 {
		t.Fatalf("journal should get one match, got %d", len(journal.matches))
	}
	res := journal.matches[0]
	if res.WinnerName != p1.Name || len(res.Players) != 2 || !res.Players[0].Won || res.Players[1].Won {
		t.Errorf("unexpected match result %+v", res)
	}
}

func TestTimeModeEndsWithLeader(t *testing.T) {
	r, clock, _ := newTestRoom(t, NewMatchConfig("time", 0, 2))
	p1, c1 := addTestPlayer(t, r, "p1")
	p2, _ := addTestPlayer(t, r, "p2")
	p1.Kills, p2.Kills = 1, 2

	info := r.Info()
	if info.TimeRemaining == nil || *info.TimeRemaining != 2 {
		t.Fatalf("expected 2s remaining, got %v", info.TimeRemaining)
	}

	stepFor(r, clock, 3*time.Second)
	if _, winner := r.Ended(); winner != p2.Name {
		t.Errorf("expected %s to win, got %q", p2.Name, winner)
	}
	if len(c1.envelopes(MsgGameOver)) != 1 {
		t.Error("expected one game_over")
	}
	if info := r.Info(); !info.Ended || *info.TimeRemaining != 0 {
		t.Errorf("unexpected info after end %+v", info)
	}
}

func TestEndlessModeNeverEnds(t *testing.T) {
	r, clock, _ := newTestRoom(t, NewMatchConfig("endless", 0, 0))
	p1, _ := addTestPlayer(t, r, "p1")
	p1.Kills = 1000
	stepFor(r, clock, time.Second)
	if ended, _ := r.Ended(); ended {
		t.Error("endless rooms never end")
	}
	if r.Info().TimeRemaining != nil {
		t.Error("endless rooms have no time remaining")
	}
}

func TestExplosiveProjectileExpiry(t *testing.T) {
	for _, tc := range []struct {
		spell   string
		effects int
	}{
		{"bombarda", 1},
		{"flipendo", 0},
	} {
		t.Run(tc.spell, func(t *testing.T) {
			r, clock, _ := newTestRoom(t, MatchConfig{})
			caster, _ := addTestPlayer(t, r, "p1")
			spell, _ := r.catalog.Spell(tc.spell)
			proj := NewProjectile(1, caster, spell)
			proj.VX, proj.VZ = 0, 0 // stays in the arena until its lifetime runs out
			proj.X, proj.Z = 30, 30
			proj.Life = testDt / 2
			r.projectiles = append(r.projectiles, proj)

			stepFor(r, clock, TickDuration)
			if len(r.projectiles) != 0 {
				t.Error("expired projectile should be removed")
			}
			if len(r.effects) != tc.effects {
				t.Fatalf("expected %d effects, got %d", tc.effects, len(r.effects))
			}
			if tc.effects > 0 && r.effects[0].Kind != FxExplosion {
				t.Errorf("expected explosion, got %s", r.effects[0].Kind)
			}
		})
	}
}

func TestEffectsExpire(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	r.addEffect(FxHit, "stupefy", 1, 1, 0xff0000)
	stepFor(r, clock, 400*time.Millisecond)
	if len(r.effects) != 1 {
		t.Fatal("effect should still be alive")
	}
	stepFor(r, clock, 200*time.Millisecond)
	if len(r.effects) != 0 {
		t.Error("effect should have expired")
	}
}

func TestSnapshotBroadcast(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	_, conn := addTestPlayer(t, r, "p1")
	p2, _ := addTestPlayer(t, r, "p2")
	p2.X = 20
	r.SubmitCast("p1", "incendio")
	stepFor(r, clock, TickDuration)

	conn.mu.Lock()
	frames := conn.frames
	conn.mu.Unlock()
	if len(frames) != 1 {
		t.Fatalf("expected 1 snapshot frame, got %d", len(frames))
	}
	data := frames[0]

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	if len(snap.Players) != 2 || snap.Players[0].ID != "p1" || snap.Players[1].ID != "p2" {
		t.Errorf("players should be in join order: %+v", snap.Players)
	}
	if len(snap.Projectiles) != 1 || snap.Projectiles[0].Type != "incendio" {
		t.Errorf("unexpected projectiles %+v", snap.Projectiles)
	}
	if snap.Tick != 1 || snap.Timestamp != clock.t.UnixMilli() {
		t.Errorf("tick=%d timestamp=%d", snap.Tick, snap.Timestamp)
	}
	if snap.Players[0].CharacterData.ID != DefaultCharacterID {
		t.Errorf("character data missing: %+v", snap.Players[0].CharacterData)
	}
}

func TestStepRecoversPanic(t *testing.T) {
	r, clock, _ := newTestRoom(t, MatchConfig{})
	addTestPlayer(t, r, "p1")
	clock.panic = true
	r.Step()
	clock.panic = false

	if n := r.Metrics().Snapshot()["panics"].(int64); n != 1 {
		t.Errorf("expected 1 panic, got %d", n)
	}
	// The lock must have been released
	if r.PlayerCount() != 1 {
		t.Error("room should still be usable")
	}
	r.Step()
	if n := r.Metrics().Snapshot()["tick_count"].(int64); n != 2 {
		t.Errorf("expected 2 ticks, got %d", n)
	}
}

func TestRunAndStop(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	r.Stop()
	r.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestInputOnUnknownPlayerIsNoop(t *testing.T) {
	r, _, _ := newTestRoom(t, MatchConfig{})
	r.SubmitInput("ghost", Input{Keys: InputKeys{W: true}})
	r.SubmitCast("ghost", "stupefy")
	if len(r.projectiles) != 0 {
		t.Error("unknown player should not cast")
	}
}
