package main

import "testing"

func TestCatalogCounts(t *testing.T) {
	c := NewCatalog()
	if n := len(c.Spells()); n != 43 {
		t.Errorf("expected 43 spells, got %d", n)
	}
	if n := len(c.Characters()); n != 10 {
		t.Errorf("expected 10 characters, got %d", n)
	}
}

func TestCatalogSpellsValid(t *testing.T) {
	c := NewCatalog()
	seen := make(map[string]bool)
	for _, s := range c.Spells() {
		if seen[s.ID] {
			t.Errorf("duplicate spell %s", s.ID)
		}
		seen[s.ID] = true
		if !s.Effect.Valid() {
			t.Errorf("%s: invalid effect %d", s.ID, s.Effect)
		}
		if s.Type == "" {
			t.Errorf("%s: missing wire type", s.ID)
		}
		if len(s.Patterns) == 0 {
			t.Errorf("%s: no patterns", s.ID)
		}
		if !s.IsShield && !s.IsUtility && s.Speed <= 0 {
			t.Errorf("%s: projectile spell without speed", s.ID)
		}
		if got, ok := c.Spell(s.ID); !ok || got != s {
			t.Errorf("%s: lookup mismatch", s.ID)
		}
	}
}

func TestCatalogSpecialSpells(t *testing.T) {
	c := NewCatalog()
	avada, _ := c.Spell("avadakedavra")
	if !avada.OncePerLife || avada.Damage != 100 {
		t.Errorf("unexpected avada %+v", avada)
	}
	patronus, _ := c.Spell("expectopatronum")
	if patronus.Type != "patronus" {
		t.Errorf("expected patronus wire type, got %s", patronus.Type)
	}
	episkey, _ := c.Spell("episkey")
	if episkey.Damage >= 0 || !episkey.IsUtility {
		t.Error("episkey should be a healing utility")
	}
	for _, id := range []string{"protego", "salvio"} {
		if s, _ := c.Spell(id); !s.IsShield {
			t.Errorf("%s should be a shield", id)
		}
	}
	if _, ok := c.Spell("nope"); ok {
		t.Error("unknown spell should not resolve")
	}
}

func TestCatalogCharacterFallback(t *testing.T) {
	c := NewCatalog()
	if ch := c.Character("snape"); ch.ID != "snape" || ch.House != "slytherin" {
		t.Errorf("unexpected character %+v", ch)
	}
	for _, id := range []string{"", "nobody"} {
		if ch := c.Character(id); ch.ID != DefaultCharacterID {
			t.Errorf("Character(%q) = %s, want %s", id, ch.ID, DefaultCharacterID)
		}
	}
}

func TestCatalogCharactersCopy(t *testing.T) {
	c := NewCatalog()
	list := c.Characters()
	list[0].Name = "changed"
	if c.Characters()[0].Name == "changed" {
		t.Error("Characters should return a copy")
	}
}

func TestEffectKindString(t *testing.T) {
	if EffectKill.String() != "kill" || EffectDarkMark.String() != "darkmark" {
		t.Error("effect names mismatch")
	}
	if EffectKind(-1).Valid() || numEffectKinds.Valid() {
		t.Error("out of range kinds are invalid")
	}
	if s := EffectKind(99).String(); s != "EffectKind(99)" {
		t.Errorf("unexpected name %q", s)
	}
}
