package invasion

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a ship configuration cannot be applied
var ErrInvalidConfig = errors.New("invalid ship config")

// ShipConfig holds the player-tunable ship stats
type ShipConfig struct {
	Speed           float64 `toml:"speed" json:"speed"`
	MissileCapacity int     `toml:"missile_capacity" json:"missileCapacity"`
	MissileSpeed    float64 `toml:"missile_speed" json:"missileSpeed"`
	RateOfFire      int     `toml:"rate_of_fire" json:"rateOfFire"` // frames between shots
}

// DefaultShipConfig returns the stock ship stats
func DefaultShipConfig() ShipConfig {
	return ShipConfig{
		Speed:           1,
		MissileCapacity: 1,
		MissileSpeed:    3,
		RateOfFire:      15,
	}
}

// Validate rejects values the simulation has no defined behaviour for
func (c ShipConfig) Validate() error {
	switch {
	case c.Speed <= 0 || c.Speed > FieldWidth:
		return fmt.Errorf("%w: speed must be in (0, %g], got %g", ErrInvalidConfig, FieldWidth, c.Speed)
	case c.MissileCapacity < 1:
		return fmt.Errorf("%w: missile capacity must be at least 1, got %d", ErrInvalidConfig, c.MissileCapacity)
	case c.MissileSpeed <= 0 || c.MissileSpeed > FieldHeight:
		return fmt.Errorf("%w: missile speed must be in (0, %g], got %g", ErrInvalidConfig, FieldHeight, c.MissileSpeed)
	case c.RateOfFire < 0:
		return fmt.Errorf("%w: rate of fire must not be negative, got %d", ErrInvalidConfig, c.RateOfFire)
	}
	return nil
}

// Rules toggles behaviour beyond the classic arcade core
type Rules struct {
	// ShipDamage makes enemy hits cost health and ends the run at zero.
	// Off by default: a hit only consumes the enemy projectile.
	ShipDamage bool `toml:"ship_damage"`
	// Seed for shooter and UFO choices; 0 picks one from the clock
	Seed int64 `toml:"seed"`
}
