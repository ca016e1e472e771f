package main

import (
	"fmt"
	"sort"

	"space-invasion/invasion"
)

// Loadout is a named set of ship stats a pilot can pick between runs
type Loadout struct {
	Name        string
	Description string
	Ship        invasion.ShipConfig
}

// DefaultLoadout is what a new pilot flies
const DefaultLoadout = "classic"

var Loadouts = map[string]Loadout{
	// Classic: the arcade cannon, one shot on screen
	"classic": {
		Name:        "classic",
		Description: "Arcade stats, one missile at a time",
		Ship:        invasion.ShipConfig{Speed: 1, MissileCapacity: 1, MissileSpeed: 3, RateOfFire: 15},
	},
	// Gunner: two missiles, slower to recharge
	"gunner": {
		Name:        "gunner",
		Description: "Two missiles in the air, slower trigger",
		Ship:        invasion.ShipConfig{Speed: 1, MissileCapacity: 2, MissileSpeed: 3, RateOfFire: 20},
	},
	// Scout: fast hull, quick trigger, slow missiles
	"scout": {
		Name:        "scout",
		Description: "Quick on its feet, light missiles",
		Ship:        invasion.ShipConfig{Speed: 2, MissileCapacity: 1, MissileSpeed: 2.5, RateOfFire: 10},
	},
	// Lancer: fast missiles, sluggish hull
	"lancer": {
		Name:        "lancer",
		Description: "Fast missiles, heavy hull",
		Ship:        invasion.ShipConfig{Speed: 0.75, MissileCapacity: 1, MissileSpeed: 5, RateOfFire: 15},
	},
}

// GetLoadout returns a preset by name
func GetLoadout(name string) (Loadout, error) {
	l, ok := Loadouts[name]
	if !ok {
		return Loadout{}, fmt.Errorf("unknown loadout %q", name)
	}
	return l, nil
}

// LoadoutNames lists the presets in a stable order
func LoadoutNames() []string {
	names := make([]string, 0, len(Loadouts))
	for name := range Loadouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
