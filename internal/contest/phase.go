package contest

import "time"

// Contest phases as seen by one participation.
const (
	PhasePre     = -1 // not yet started (globally, or per-user clock not ticking)
	PhaseRunning = 0
	PhasePost    = 1
)

// Phase computes the phase of p within c at the given instant. For
// per-user-time contests the clock only runs once the participation has a
// StartingTime, and stops PerUserTime seconds later (bounded by Stop).
// Unrestricted participations follow the global window.
func (c *Contest) Phase(p *Participation, now time.Time) int {
	if now.Before(c.Start) {
		return PhasePre
	}
	if !now.Before(c.Stop) {
		return PhasePost
	}
	if c.PerUserTime <= 0 || p.Unrestricted {
		return PhaseRunning
	}
	if p.StartingTime == nil {
		return PhasePre
	}
	end := p.StartingTime.Add(time.Duration(c.PerUserTime) * time.Second)
	if end.After(c.Stop) {
		end = c.Stop
	}
	if !now.Before(end) {
		return PhasePost
	}
	return PhaseRunning
}
