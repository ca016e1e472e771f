package invasion

import (
	"errors"
	"testing"
)

func TestShipMoveClamps(t *testing.T) {
	s := NewShip(0.5, DefaultShipConfig())
	s.Move(Left)
	if s.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", s.X)
	}

	s.X = FieldWidth - ShipWidth - 0.5
	s.Move(Right)
	if s.X != FieldWidth-ShipWidth {
		t.Errorf("expected X clamped to %f, got %f", FieldWidth-ShipWidth, s.X)
	}
}

func TestShipMoveUsesSpeed(t *testing.T) {
	cfg := DefaultShipConfig()
	cfg.Speed = 4
	s := NewShip(100, cfg)
	s.Move(Right)
	if s.X != 104 {
		t.Errorf("expected X 104, got %f", s.X)
	}
}

func TestShipFireRate(t *testing.T) {
	cfg := DefaultShipConfig()
	cfg.RateOfFire = 15
	cfg.MissileCapacity = 1
	s := NewShip(100, cfg)

	var fired []int
	for frame := 0; frame < 60; frame++ {
		s.Recharge()
		if s.Shoot() != nil {
			fired = append(fired, frame)
		}
		// keep the single slot free so only the cooldown gates
		s.Missiles.Clear()
	}

	want := []int{0, 15, 30, 45}
	if len(fired) != len(want) {
		t.Fatalf("expected shots at %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("shot %d: expected frame %d, got %d", i, want[i], fired[i])
		}
	}
}

func TestShipCapacityBlocksShot(t *testing.T) {
	s := NewShip(100, DefaultShipConfig())
	if s.Shoot() == nil {
		t.Fatal("first shot should fire")
	}
	s.Cooldown = 0
	if s.Shoot() != nil {
		t.Error("second shot should be refused while the only slot is live")
	}
}

func TestShipMissileSpawnsAtMuzzle(t *testing.T) {
	s := NewShip(100, DefaultShipConfig())
	p := s.Shoot()
	if p.X != 107 || p.Y != ShipY-4 {
		t.Errorf("expected missile at (107, %f), got (%f, %f)", ShipY-4, p.X, p.Y)
	}
	if p.VY != -3 {
		t.Errorf("expected upward speed -3, got %f", p.VY)
	}
	if s.Cooldown != 15 {
		t.Errorf("expected cooldown reset to 15, got %d", s.Cooldown)
	}
}

func TestShipCheckForCollisions(t *testing.T) {
	s := NewShip(100, DefaultShipConfig())
	enemy := NewPool()
	hit := enemy.Spawn(105, ShipY+2, 2)
	miss := enemy.Spawn(50, ShipY+2, 2)

	if n := s.CheckForCollisions(enemy); n != 1 {
		t.Errorf("expected 1 hit, got %d", n)
	}
	if hit.Alive {
		t.Error("hitting projectile should be consumed")
	}
	if !miss.Alive {
		t.Error("missing projectile should survive")
	}
	if s.Health != ShipHealth {
		t.Error("a hit alone does not cost health")
	}
}

func TestShipApplyValidates(t *testing.T) {
	s := NewShip(100, DefaultShipConfig())
	bad := DefaultShipConfig()
	bad.MissileCapacity = 0

	err := s.Apply(bad)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if s.Config.MissileCapacity != 1 {
		t.Error("rejected config must not be applied")
	}

	good := DefaultShipConfig()
	good.MissileCapacity = 3
	if err := s.Apply(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Config.MissileCapacity != 3 {
		t.Error("config should be applied")
	}
}

func TestShipTakeDamage(t *testing.T) {
	s := NewShip(100, DefaultShipConfig())
	if s.TakeDamage(1) || s.TakeDamage(1) {
		t.Error("ship should survive two hits")
	}
	if !s.TakeDamage(1) {
		t.Error("third hit should destroy the ship")
	}
	if s.TakeDamage(1) {
		t.Error("a destroyed ship cannot be destroyed again")
	}
}
