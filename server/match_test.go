package main

import "testing"

func TestMatchCountdownToPlaying(t *testing.T) {
	ms := NewMatchState(MatchConfig{Countdown: 1})
	if ms.Phase != PhaseLobby {
		t.Fatalf("expected lobby, got %s", ms.Phase)
	}
	if ms.Advance(1) {
		t.Error("advance in lobby should do nothing")
	}
	if !ms.StartCountdown() {
		t.Fatal("countdown should start from lobby")
	}
	if ms.StartCountdown() {
		t.Error("countdown should not restart while counting")
	}
	if ms.Advance(0.5) {
		t.Error("half the countdown should not start the run")
	}
	if !ms.Advance(0.5) {
		t.Fatal("expected transition to playing")
	}
	if ms.Phase != PhasePlaying || ms.CountdownT != 0 || ms.Runs != 1 {
		t.Errorf("unexpected state: %+v", ms)
	}
}

func TestMatchFinishAndRestart(t *testing.T) {
	ms := NewMatchState(MatchConfig{})
	if ms.Finish() {
		t.Error("finish outside a run should fail")
	}
	ms.StartCountdown()
	ms.Advance(tickSeconds)
	if !ms.Finish() || ms.Phase != PhaseResult {
		t.Fatalf("expected result, got %s", ms.Phase)
	}
	if !ms.StartCountdown() {
		t.Fatal("countdown should start from result")
	}
	ms.Advance(tickSeconds)
	if ms.Runs != 2 {
		t.Errorf("expected 2 runs, got %d", ms.Runs)
	}
	ms.Reset()
	if ms.Phase != PhaseLobby {
		t.Errorf("expected lobby after reset, got %s", ms.Phase)
	}
}

func TestMatchPhaseString(t *testing.T) {
	for phase, want := range map[MatchPhase]string{
		PhaseLobby:     "lobby",
		PhaseCountdown: "countdown",
		PhasePlaying:   "playing",
		PhaseResult:    "result",
	} {
		if phase.String() != want {
			t.Errorf("%d.String() = %q, want %q", phase, phase.String(), want)
		}
	}
}
