package main

import "fmt"

// EffectKind identifies what a spell does when it resolves
type EffectKind int

const (
	EffectDisarm EffectKind = iota
	EffectStun
	EffectBurn
	EffectExplode
	EffectBlast
	EffectDestroy
	EffectSlash
	EffectKnockback
	EffectPush
	EffectCut
	EffectPetrify
	EffectFreeze
	EffectWater
	EffectWind
	EffectLevitate
	EffectSlow
	EffectBind
	EffectAttack
	EffectTickle
	EffectDance
	EffectSnake
	EffectLeglock
	EffectConfuse
	EffectForget
	EffectHellfire
	EffectShield
	EffectHexShield
	EffectHeal
	EffectLight
	EffectDark
	EffectPull
	EffectUnlock
	EffectRepair
	EffectTeleport
	EffectRise
	EffectPatronus
	EffectBoggart
	EffectKill
	EffectTorture
	EffectControl
	EffectDarkMark

	numEffectKinds
)

var effectKindNames = [numEffectKinds]string{
	EffectDisarm:    "disarm",
	EffectStun:      "stun",
	EffectBurn:      "burn",
	EffectExplode:   "explode",
	EffectBlast:     "blast",
	EffectDestroy:   "destroy",
	EffectSlash:     "slash",
	EffectKnockback: "knockback",
	EffectPush:      "push",
	EffectCut:       "cut",
	EffectPetrify:   "petrify",
	EffectFreeze:    "freeze",
	EffectWater:     "water",
	EffectWind:      "wind",
	EffectLevitate:  "levitate",
	EffectSlow:      "slow",
	EffectBind:      "bind",
	EffectAttack:    "attack",
	EffectTickle:    "tickle",
	EffectDance:     "dance",
	EffectSnake:     "snake",
	EffectLeglock:   "leglock",
	EffectConfuse:   "confuse",
	EffectForget:    "forget",
	EffectHellfire:  "hellfire",
	EffectShield:    "shield",
	EffectHexShield: "hexshield",
	EffectHeal:      "heal",
	EffectLight:     "light",
	EffectDark:      "dark",
	EffectPull:      "pull",
	EffectUnlock:    "unlock",
	EffectRepair:    "repair",
	EffectTeleport:  "teleport",
	EffectRise:      "rise",
	EffectPatronus:  "patronus",
	EffectBoggart:   "boggart",
	EffectKill:      "kill",
	EffectTorture:   "torture",
	EffectControl:   "control",
	EffectDarkMark:  "darkmark",
}

func (k EffectKind) String() string {
	if k < 0 || k >= numEffectKinds {
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
	return effectKindNames[k]
}

// Valid reports whether k is one of the declared kinds
func (k EffectKind) Valid() bool {
	return k >= 0 && k < numEffectKinds
}
