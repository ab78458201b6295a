package contest

import (
	"testing"
	"time"
)

// TestPhaseGlobalWindow verifies the three phases of a plain
// global-window contest.
func TestPhaseGlobalWindow(t *testing.T) {
	start := time.Unix(1000, 0)
	c := &Contest{Start: start, Stop: start.Add(time.Hour)}
	p := &Participation{}

	if got := c.Phase(p, start.Add(-time.Minute)); got != PhasePre {
		t.Errorf("before start: %d, want %d", got, PhasePre)
	}
	if got := c.Phase(p, start.Add(time.Minute)); got != PhaseRunning {
		t.Errorf("inside window: %d, want %d", got, PhaseRunning)
	}
	if got := c.Phase(p, start.Add(2*time.Hour)); got != PhasePost {
		t.Errorf("after stop: %d, want %d", got, PhasePost)
	}
}

// TestPhasePerUserTime verifies the per-user clock: pre until started,
// running for PerUserTime seconds, post afterwards, clamped to Stop.
func TestPhasePerUserTime(t *testing.T) {
	start := time.Unix(1000, 0)
	c := &Contest{Start: start, Stop: start.Add(4 * time.Hour), PerUserTime: 3600}
	p := &Participation{}

	inWindow := start.Add(time.Hour)
	if got := c.Phase(p, inWindow); got != PhasePre {
		t.Errorf("clock not started: %d, want %d", got, PhasePre)
	}

	p.StartingTime = &inWindow
	if got := c.Phase(p, inWindow.Add(30*time.Minute)); got != PhaseRunning {
		t.Errorf("clock running: %d, want %d", got, PhaseRunning)
	}
	if got := c.Phase(p, inWindow.Add(61*time.Minute)); got != PhasePost {
		t.Errorf("clock expired: %d, want %d", got, PhasePost)
	}
}

// TestPhaseUnrestricted verifies unrestricted participations follow the
// global window even in a per-user-time contest.
func TestPhaseUnrestricted(t *testing.T) {
	start := time.Unix(1000, 0)
	c := &Contest{Start: start, Stop: start.Add(4 * time.Hour), PerUserTime: 3600}
	p := &Participation{Unrestricted: true}

	if got := c.Phase(p, start.Add(3*time.Hour)); got != PhaseRunning {
		t.Errorf("unrestricted: %d, want %d", got, PhaseRunning)
	}
}

// TestEffectivePassword verifies the contest-scoped record wins when set.
func TestEffectivePassword(t *testing.T) {
	u := &User{Password: "bcrypt:global"}

	if got := EffectivePassword(u, &Participation{}); got != "bcrypt:global" {
		t.Errorf("no override: %q", got)
	}
	if got := EffectivePassword(u, &Participation{Password: "bcrypt:scoped"}); got != "bcrypt:scoped" {
		t.Errorf("with override: %q", got)
	}
	if got := EffectivePassword(u, nil); got != "bcrypt:global" {
		t.Errorf("nil participation: %q", got)
	}
}
