package main

// MatchPhase represents the lifecycle of a run inside a session
type MatchPhase int

const (
	PhaseLobby     MatchPhase = 0
	PhaseCountdown MatchPhase = 1
	PhasePlaying   MatchPhase = 2
	PhaseResult    MatchPhase = 3
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseResult:
		return "result"
	default:
		return "lobby"
	}
}

// MatchConfig holds settings for a match
type MatchConfig struct {
	Countdown float64 // seconds between ready and the first tick
}

// DefaultMatchConfig returns the stock match settings
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{Countdown: 3}
}

// MatchState holds the current match phase and its timer
type MatchState struct {
	Phase      MatchPhase
	Config     MatchConfig
	CountdownT float64
	Runs       int
}

// NewMatchState creates a match waiting in the lobby
func NewMatchState(config MatchConfig) MatchState {
	return MatchState{
		Phase:  PhaseLobby,
		Config: config,
	}
}

// StartCountdown arms the countdown from the lobby or after a result.
// It reports whether the phase changed.
func (ms *MatchState) StartCountdown() bool {
	if ms.Phase != PhaseLobby && ms.Phase != PhaseResult {
		return false
	}
	ms.Phase = PhaseCountdown
	ms.CountdownT = ms.Config.Countdown
	return true
}

// Advance runs the countdown timer by dt seconds and reports whether
// the match moved to Playing
func (ms *MatchState) Advance(dt float64) bool {
	if ms.Phase != PhaseCountdown {
		return false
	}
	ms.CountdownT -= dt
	if ms.CountdownT > 0 {
		return false
	}
	ms.CountdownT = 0
	ms.Phase = PhasePlaying
	ms.Runs++
	return true
}

// Finish ends a run in progress
func (ms *MatchState) Finish() bool {
	if ms.Phase != PhasePlaying {
		return false
	}
	ms.Phase = PhaseResult
	return true
}

// Reset drops back to the lobby, used when the pilot leaves mid-run
func (ms *MatchState) Reset() {
	ms.Phase = PhaseLobby
	ms.CountdownT = 0
}
