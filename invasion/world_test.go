package invasion

import "testing"

const frameMillis = 1000.0 / 60.0

func newTestWorld(rules Rules) *World {
	return NewWorld(DefaultShipConfig(), rules, &stubRand{})
}

func TestWorldStepMovesShip(t *testing.T) {
	w := newTestWorld(Rules{})
	w.Step(Input{Left: true}, frameMillis)
	if w.Ship.X != ShipStartX-1 {
		t.Errorf("expected X %f, got %f", ShipStartX-1, w.Ship.X)
	}
	w.Step(Input{Left: true, Right: true}, frameMillis)
	if w.Ship.X != ShipStartX-1 {
		t.Error("left and right together should cancel out")
	}
}

func TestWorldStepFiresAndAdvancesMissile(t *testing.T) {
	w := newTestWorld(Rules{})
	w.Step(Input{Fire: true}, frameMillis)

	live := w.Ship.Missiles.Live()
	if len(live) != 1 {
		t.Fatalf("expected 1 ship missile, got %d", len(live))
	}
	// spawned at y-4 then advanced once in the same tick
	if live[0].Y != ShipY-4-3 {
		t.Errorf("expected missile Y %f, got %f", ShipY-4-3, live[0].Y)
	}
}

func TestWorldFormationShoots(t *testing.T) {
	w := newTestWorld(Rules{})
	w.Step(Input{}, frameMillis)
	if w.Formation.Missiles.Len() != 1 {
		t.Errorf("formation should fire on the first tick, got %d shots", w.Formation.Missiles.Len())
	}
}

func TestWorldPauseStopsSimulation(t *testing.T) {
	w := newTestWorld(Rules{})
	w.Pause()
	if w.State() != Paused {
		t.Fatal("expected paused")
	}
	if events := w.Step(Input{Left: true}, frameMillis); events != nil {
		t.Error("a paused world emits nothing")
	}
	if w.Ship.X != ShipStartX || w.Tick() != 0 {
		t.Error("a paused world must not change")
	}
	w.Resume()
	w.Step(Input{Left: true}, frameMillis)
	if w.Tick() != 1 {
		t.Error("resumed world should step")
	}
}

func TestWorldInvaderKillEmitsScore(t *testing.T) {
	w := newTestWorld(Rules{})
	target := w.Formation.At(0, 0)
	hb := target.HitBox()
	// placed so that after this tick's advance it sits inside the hit-box
	w.Ship.Missiles.Spawn(hb.X+1, hb.Y+1+3, -3)

	events := w.Step(Input{}, frameMillis)
	var kill *Event
	for i := range events {
		if events[i].Kind == EventInvaderKilled {
			kill = &events[i]
		}
	}
	if kill == nil {
		t.Fatalf("expected an invader kill, got %v", events)
	}
	if kill.Points != 30 || kill.Row != 0 || kill.Col != 0 {
		t.Errorf("unexpected kill %+v", *kill)
	}
	if Score(events) != 30 {
		t.Errorf("expected score delta 30, got %d", Score(events))
	}
	if w.Ship.Missiles.Len() != 0 {
		t.Error("missile should be gone after the kill")
	}
}

func TestWorldShipHitWithoutDamageRule(t *testing.T) {
	w := newTestWorld(Rules{})
	w.Formation.Missiles.Spawn(w.Ship.X+5, ShipY, 2)
	events := w.Step(Input{}, frameMillis)

	hits := 0
	for _, e := range events {
		if e.Kind == EventShipHit {
			hits++
		}
	}
	if hits != 1 {
		t.Fatalf("expected 1 ship hit, got %d", hits)
	}
	if w.Ship.Health != ShipHealth || w.State() != Running {
		t.Error("without the damage rule a hit only consumes the projectile")
	}
	if w.Formation.Missiles.Len() != 0 {
		t.Error("enemy projectile should be consumed")
	}
}

func TestWorldShipDamageEndsRun(t *testing.T) {
	w := newTestWorld(Rules{ShipDamage: true})
	for i := 0; i < ShipHealth; i++ {
		w.Formation.Missiles.Clear()
		w.Formation.Missiles.Spawn(w.Ship.X+5, ShipY, 2)
		w.Step(Input{}, frameMillis)
	}
	if w.Ship.Health != 0 {
		t.Errorf("expected health 0, got %d", w.Ship.Health)
	}
	if w.State() != GameOver {
		t.Errorf("expected game over, got %s", w.State())
	}
	if w.Step(Input{}, frameMillis) != nil {
		t.Error("a finished world emits nothing")
	}
}

func TestWorldClearedFormationStops(t *testing.T) {
	w := newTestWorld(Rules{})
	clearAllBut(w.Formation, [2]int{2, 2})
	w.Formation.Missiles.Clear()
	target := w.Formation.At(2, 2)
	hb := target.HitBox()
	// [2][2] marches +2 before collisions are resolved
	w.Ship.Missiles.Spawn(hb.X+4, hb.Y+1+3, -3)
	// a live enemy shot keeps the formation from firing
	w.Formation.Missiles.Spawn(0, 100, 2)
	events := w.Step(Input{}, frameMillis)

	cleared := false
	for _, e := range events {
		if e.Kind == EventFormationCleared {
			cleared = true
		}
	}
	if !cleared || !w.Cleared() {
		t.Fatalf("expected the formation to be cleared, events %v", events)
	}

	w.Formation.Missiles.Clear()
	for i := 0; i < 10; i++ {
		w.Step(Input{}, frameMillis)
	}
	if w.Formation.Missiles.Len() != 0 {
		t.Error("a cleared formation must not shoot")
	}
}

func TestWorldUFOSpawnEvent(t *testing.T) {
	w := newTestWorld(Rules{})
	events := w.Step(Input{}, UFOMaxInterval)
	found := false
	for _, e := range events {
		if e.Kind == EventUFOSpawned {
			found = true
		}
	}
	if !found || w.UFOs.UFO == nil {
		t.Error("expected a UFO after the interval elapses")
	}
}

func TestWorldDrawables(t *testing.T) {
	w := newTestWorld(Rules{})
	w.Step(Input{Fire: true}, frameMillis)

	counts := map[DrawKind]int{}
	for _, d := range w.Drawables() {
		counts[d.Kind]++
	}
	if counts[DrawShip] != 1 || counts[DrawInvader] != GridCells ||
		counts[DrawShipMissile] != 1 || counts[DrawInvaderMissile] != 1 || counts[DrawUFO] != 0 {
		t.Errorf("unexpected drawables %v", counts)
	}
}

func TestWorldMissileStraddlingRowsKillsBoth(t *testing.T) {
	w := newTestWorld(Rules{})
	clearAllBut(w.Formation, [2]int{3, 5}, [2]int{4, 5})
	w.Formation.At(3, 5).Move(0, descentStep)
	hb := w.Formation.At(3, 5).HitBox()
	// y range 94-98 after this tick's advance
	w.Ship.Missiles.Spawn(hb.X+5, hb.Y+6+3, -3)

	events := w.Step(Input{}, frameMillis)
	kills := 0
	for _, e := range events {
		if e.Kind == EventInvaderKilled {
			kills++
		}
	}
	if kills != 2 {
		t.Fatalf("expected 2 invader kills, got %d in %v", kills, events)
	}
	if Score(events) != 20 {
		t.Errorf("expected score delta 20, got %d", Score(events))
	}
	if w.Ship.Missiles.Len() != 0 {
		t.Error("missile should be gone after the kills")
	}
}

func TestWorldGridResolvesBeforeUFO(t *testing.T) {
	w := newTestWorld(Rules{})
	hb := w.Formation.At(0, 5).HitBox()
	// moves right by one this tick, still covering the invader
	w.UFOs.UFO = &UFO{X: hb.X - 4, Y: hb.Y, Dir: Right, Speed: UFOSpeed}
	w.Ship.Missiles.Spawn(hb.X+1, hb.Y+1+3, -3)

	events := w.Step(Input{}, frameMillis)
	var invaders, ufos int
	for _, e := range events {
		switch e.Kind {
		case EventInvaderKilled:
			invaders++
		case EventUFOKilled:
			ufos++
		}
	}
	if invaders != 1 || ufos != 0 {
		t.Errorf("expected the invader only, got %d invader and %d UFO kills", invaders, ufos)
	}
	if w.UFOs.UFO == nil {
		t.Error("UFO should still be flying")
	}
	if w.Formation.At(0, 5) != nil {
		t.Error("struck invader should be gone")
	}
}
