package main

import "math"

const (
	HitRadius     = 2.0 // planar distance for a projectile hit
	HitHeight     = 4.0 // max vertical separation for a hit
	PlayerCenterY = 2.0 // body center above the player's feet
)

// CheckHit tests a projectile against a player's body
func CheckHit(proj *Projectile, p *Player) bool {
	if Distance(proj.X, proj.Z, p.X, p.Z) >= HitRadius {
		return false
	}
	return math.Abs(proj.Y-(p.Y+PlayerCenterY)) < HitHeight
}
