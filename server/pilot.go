package main

import "time"

// Role is what a connected player does in a session
type Role string

const (
	RolePilot     Role = "pilot"     // flies the ship
	RoleSpectator Role = "spectator" // watches, takes over if the pilot leaves
)

// Pilot is a player attached to a session
type Pilot struct {
	ID           string
	Name         string
	Role         Role
	Loadout      string
	AuthPlayerID int64 // 0 = guest
	JoinedAt     time.Time
}

// NewPilot creates a player with the default loadout
func NewPilot(id, name string, role Role) *Pilot {
	return &Pilot{
		ID:       id,
		Name:     name,
		Role:     role,
		Loadout:  DefaultLoadout,
		JoinedAt: time.Now(),
	}
}

// RunStats tallies one run for the pilot's record
type RunStats struct {
	Score     int
	Invaders  int
	UFOs      int
	HitsTaken int
	Cleared   bool
	Destroyed bool
	Started   time.Time
	Duration  float64 // seconds
}

// XP earned for a run: score plus a bonus for clearing the formation
func (r RunStats) XP() int {
	xp := r.Score / 10
	if r.Cleared {
		xp += 100
	}
	return xp
}
