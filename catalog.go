package main

// Spell is one castable spell definition
type Spell struct {
	ID          string
	Type        string // wire type, defaults to ID
	Color       uint32
	Speed       float64 // 0 = no projectile
	Effect      EffectKind
	Damage      float64 // negative heals
	IsShield    bool
	IsUtility   bool
	Explodes    bool // leaves an explosion when it expires in flight
	OncePerLife bool
	Patterns    []string
}

// Character holds the cosmetic data for a playable wizard
type Character struct {
	ID        string `json:"id" msgpack:"id"`
	Name      string `json:"name" msgpack:"name"`
	Color     uint32 `json:"color" msgpack:"color"`
	RobeColor uint32 `json:"robeColor" msgpack:"robeColor"`
	House     string `json:"house" msgpack:"house"`
}

// DefaultCharacterID is used when a client asks for an unknown character
const DefaultCharacterID = "hary"

var characterDefs = []Character{
	{ID: "hary", Name: "Hary Potter", Color: 0xff0000, RobeColor: 0x740001, House: "gryffindor"},
	{ID: "hermine", Name: "Hermine Granger", Color: 0xff6600, RobeColor: 0x740001, House: "gryffindor"},
	{ID: "roon", Name: "Roon Weasley", Color: 0xff9900, RobeColor: 0x740001, House: "gryffindor"},
	{ID: "darco", Name: "Darco Malfoy", Color: 0x00ff00, RobeColor: 0x1a472a, House: "slytherin"},
	{ID: "volmort", Name: "Lord volemort", Color: 0x000000, RobeColor: 0x111111, House: "slytherin"},
	{ID: "snape", Name: "Severus Snape", Color: 0x333333, RobeColor: 0x000000, House: "slytherin"},
	{ID: "humbledore", Name: "Albus Humbledore", Color: 0x9999ff, RobeColor: 0x4444aa, House: "gryffindor"},
	{ID: "cuna", Name: "Cuna Lovegood", Color: 0x0099ff, RobeColor: 0x0e1a40, House: "ravenclaw"},
	{ID: "cedric", Name: "Cedric Diggory", Color: 0xffcc00, RobeColor: 0xecb939, House: "hufflepuff"},
	{ID: "dellatrix", Name: "Dellatrix Lestrange", Color: 0x990099, RobeColor: 0x1a472a, House: "slytherin"},
}

// spellDefs is ordered: the matcher scans spells and their patterns in this order
var spellDefs = []Spell{
	{ID: "expelliarmus", Color: 0xff0000, Speed: 30, Effect: EffectDisarm,
		Patterns: []string{"expelliarmus", "expel", "armus", "expeli", "spell arm", "expelia", "expell", "spell", "disarm"}},
	{ID: "stupefy", Color: 0xff3333, Speed: 28, Effect: EffectStun, Damage: 10,
		Patterns: []string{"stupefy", "stupify", "stupid", "stupe", "stup", "stoopy", "stupi", "stoofy"}},
	{ID: "incendio", Color: 0xff6600, Speed: 25, Effect: EffectBurn, Damage: 20,
		Patterns: []string{"incendio", "incendi", "in send", "insend", "send yo", "cendy", "fire", "incend", "ensen"}},
	{ID: "confringo", Color: 0xff3300, Speed: 22, Effect: EffectExplode, Damage: 35, Explodes: true,
		Patterns: []string{"confringo", "confrin", "con fring", "confr", "fringo", "confer"}},
	{ID: "bombarda", Color: 0xcc0000, Speed: 20, Effect: EffectBlast, Damage: 40, Explodes: true,
		Patterns: []string{"bombarda", "bomb", "barda", "bomber", "bombar", "boom"}},
	{ID: "reducto", Color: 0xff00ff, Speed: 26, Effect: EffectDestroy, Damage: 30, Explodes: true,
		Patterns: []string{"reducto", "reduce", "reduct", "reduc", "duct"}},
	{ID: "sectumsempra", Color: 0x990000, Speed: 35, Effect: EffectSlash, Damage: 50,
		Patterns: []string{"sectumsempra", "sectum", "sempra", "sect", "sectom", "secto", "septra", "sector", "sectem", "cut him", "cut them"}},
	{ID: "flipendo", Color: 0x00ffff, Speed: 28, Effect: EffectKnockback, Damage: 10,
		Patterns: []string{"flipendo", "flip", "flipe", "fli pendo", "flipen", "flipping"}},
	{ID: "depulso", Color: 0x00cccc, Speed: 26, Effect: EffectPush, Damage: 5,
		Patterns: []string{"depulso", "depul", "pulse", "push"}},
	{ID: "diffindo", Color: 0xcc6666, Speed: 30, Effect: EffectCut, Damage: 25,
		Patterns: []string{"diffindo", "diffin", "cut", "difin", "defend"}},
	{ID: "petrificus", Color: 0x888888, Speed: 24, Effect: EffectPetrify,
		Patterns: []string{"petrificus", "petrify", "petri", "terrific", "petrific", "stone", "petra"}},
	{ID: "glacius", Color: 0x66ccff, Speed: 22, Effect: EffectFreeze, Damage: 15,
		Patterns: []string{"glacius", "glace", "glacier", "glaci", "freeze", "ice", "glass"}},
	{ID: "aguamenti", Color: 0x0099ff, Speed: 25, Effect: EffectWater, Damage: 10,
		Patterns: []string{"aguamenti", "agua", "aqua", "aguament", "water", "aquaman"}},
	{ID: "ventus", Color: 0xcccccc, Speed: 35, Effect: EffectWind, Damage: 10,
		Patterns: []string{"ventus", "vent", "wind", "ventos", "venus"}},
	{ID: "levicorpus", Color: 0xcc66ff, Speed: 24, Effect: EffectLevitate,
		Patterns: []string{"levicorpus", "levi corp", "levicor", "levy", "levicore", "levitate body"}},
	{ID: "impedimenta", Color: 0x9999cc, Speed: 26, Effect: EffectSlow, Damage: 5,
		Patterns: []string{"impedimenta", "impedi", "impede", "impedi menta", "slow"}},
	{ID: "incarcerous", Color: 0x996633, Speed: 20, Effect: EffectBind,
		Patterns: []string{"incarcerous", "incarcer", "chain", "incarcera", "carcerous", "bind"}},
	{ID: "oppugno", Color: 0xffcc00, Speed: 25, Effect: EffectAttack, Damage: 20,
		Patterns: []string{"oppugno", "oppu", "attack", "opugno", "pugno"}},
	{ID: "rictusempra", Color: 0xffff99, Speed: 22, Effect: EffectTickle, Damage: 5,
		Patterns: []string{"rictusempra", "rictus", "tickle", "rickto", "recto"}},
	{ID: "tarantallegra", Color: 0xff99ff, Speed: 20, Effect: EffectDance,
		Patterns: []string{"tarantallegra", "tarant", "dance", "tarantula", "allegra", "taran"}},
	{ID: "serpensortia", Color: 0x00ff00, Speed: 18, Effect: EffectSnake, Damage: 20,
		Patterns: []string{"serpensortia", "serpen", "snake", "serpent", "sortia"}},
	{ID: "locomotormortis", Color: 0x666699, Speed: 22, Effect: EffectLeglock,
		Patterns: []string{"locomotormortis", "locomotor", "leg lock", "loco", "mortis"}},
	{ID: "confundus", Color: 0xff99cc, Speed: 24, Effect: EffectConfuse,
		Patterns: []string{"confundus", "confuse", "confund", "confundis", "confused"}},
	{ID: "obliviate", Color: 0xcc99ff, Speed: 22, Effect: EffectForget,
		Patterns: []string{"obliviate", "oblivi", "forget", "oblivion", "olivia"}},
	{ID: "fiendfyre", Color: 0xff0000, Speed: 15, Effect: EffectHellfire, Damage: 80, Explodes: true,
		Patterns: []string{"fiendfyre", "fiend", "hellfire", "fiendfire", "friend fire"}},

	{ID: "protego", Color: 0x0066ff, Effect: EffectShield, IsShield: true,
		Patterns: []string{"protego", "protect", "pro tego", "protec", "protec go", "shield", "proto"}},
	{ID: "salvio", Color: 0x6666ff, Effect: EffectHexShield, IsShield: true,
		Patterns: []string{"salvio", "save", "salv", "salveo", "safety"}},

	{ID: "episkey", Color: 0x00ff99, Effect: EffectHeal, Damage: -30, IsUtility: true,
		Patterns: []string{"episkey", "epis", "heal", "episk", "fix", "epi"}},
	{ID: "vulnera", Color: 0x00ffcc, Effect: EffectHeal, Damage: -50, IsUtility: true,
		Patterns: []string{"vulnera", "vulner", "wound", "heal wounds"}},
	{ID: "lumos", Color: 0xffffcc, Effect: EffectLight, IsUtility: true,
		Patterns: []string{"lumos", "loom", "lomos", "lumis", "light", "luma", "luminous"}},
	{ID: "nox", Color: 0x333333, Effect: EffectDark, IsUtility: true,
		Patterns: []string{"nox", "dark", "nocks", "knox", "knocks", "off"}},
	{ID: "accio", Color: 0x00ff00, Speed: 40, Effect: EffectPull,
		Patterns: []string{"accio", "aki", "axi", "axio", "akio", "asio", "come", "summon", "atio"}},
	{ID: "alohomora", Color: 0xffcc00, Effect: EffectUnlock, IsUtility: true,
		Patterns: []string{"alohomora", "aloho", "unlock", "aloh", "alo", "aloe", "open"}},
	{ID: "reparo", Color: 0x99ccff, Effect: EffectRepair, IsUtility: true,
		Patterns: []string{"reparo", "repair", "repar", "fix", "raparo", "repare"}},
	{ID: "apparate", Color: 0x9966ff, Effect: EffectTeleport, IsUtility: true,
		Patterns: []string{"apparate", "apparat", "teleport", "appear", "blink", "appar"}},
	{ID: "ascendio", Color: 0x99ffff, Effect: EffectRise, IsUtility: true,
		Patterns: []string{"ascendio", "ascend", "rise", "up", "ascend yo", "ascendi"}},
	{ID: "wingardium", Color: 0xffff99, Speed: 25, Effect: EffectLevitate,
		Patterns: []string{"wingardium", "wingar", "winged", "wing guard", "wingardia", "wing", "levitate"}},
	{ID: "expectopatronum", Type: "patronus", Color: 0xffffff, Speed: 20, Effect: EffectPatronus,
		Patterns: []string{"expectopatronum", "expecto", "patronum", "patron", "expect", "patronus", "expec"}},
	{ID: "riddikulus", Color: 0xff99ff, Speed: 22, Effect: EffectBoggart,
		Patterns: []string{"riddikulus", "ridiculous", "ridik", "ridic", "ridicule", "ridd"}},

	{ID: "avadakedavra", Color: 0x00ff00, Speed: 40, Effect: EffectKill, Damage: 100, OncePerLife: true,
		Patterns: []string{"avadakedavra", "avada", "kedavra", "cadaver", "aveda", "abra", "killing", "avada kadabra", "kill"}},
	{ID: "crucio", Color: 0xff0066, Speed: 30, Effect: EffectTorture, Damage: 40,
		Patterns: []string{"crucio", "cruci", "crucible", "crew she", "torture", "cruc", "cruchio", "cruciatus"}},
	{ID: "imperio", Color: 0x9900ff, Speed: 28, Effect: EffectControl,
		Patterns: []string{"imperio", "emperi", "emperor", "in perio", "control", "emporio", "imperius"}},
	{ID: "morsmorde", Color: 0x00ff00, Effect: EffectDarkMark, IsUtility: true,
		Patterns: []string{"morsmorde", "mors", "dark mark", "morse", "mordre", "morsmord"}},
}

// Catalog is the immutable table of spells and characters shared by all rooms
type Catalog struct {
	spells     []*Spell
	spellByID  map[string]*Spell
	characters []Character
	charByID   map[string]int
}

// NewCatalog builds the spell and character tables
func NewCatalog() *Catalog {
	c := &Catalog{
		spells:     make([]*Spell, 0, len(spellDefs)),
		spellByID:  make(map[string]*Spell, len(spellDefs)),
		characters: make([]Character, len(characterDefs)),
		charByID:   make(map[string]int, len(characterDefs)),
	}
	for i := range spellDefs {
		s := spellDefs[i]
		if s.Type == "" {
			s.Type = s.ID
		}
		s.Patterns = append([]string(nil), s.Patterns...)
		c.spells = append(c.spells, &s)
		c.spellByID[s.ID] = &s
	}
	copy(c.characters, characterDefs)
	for i, ch := range c.characters {
		c.charByID[ch.ID] = i
	}
	return c
}

// Spell looks up a spell by identifier
func (c *Catalog) Spell(id string) (*Spell, bool) {
	s, ok := c.spellByID[id]
	return s, ok
}

// Spells returns all spells in catalog order. Callers must not modify them.
func (c *Catalog) Spells() []*Spell {
	return c.spells
}

// Character resolves a character id, falling back to the default character
func (c *Catalog) Character(id string) Character {
	if i, ok := c.charByID[id]; ok {
		return c.characters[i]
	}
	return c.characters[c.charByID[DefaultCharacterID]]
}

// Characters returns a copy of the character list in catalog order
func (c *Catalog) Characters() []Character {
	out := make([]Character, len(c.characters))
	copy(out, c.characters)
	return out
}
