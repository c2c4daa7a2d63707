package models

import "time"

// BumpCooldownPeriod is the minimum time between two bumps of the same clan
const BumpCooldownPeriod = 24 * time.Hour

// BumpResponse is returned after a successful bump
type BumpResponse struct {
	Success           bool      `json:"success"`
	LastBumpedAt      time.Time `json:"lastBumpedAt"`
	NextBumpAvailable time.Time `json:"nextBumpAvailable"`
}

// Cooldown describes how long a clan must wait before its next bump
type Cooldown struct {
	Remaining         time.Duration
	HoursRemaining    int64
	NextBumpAvailable time.Time
}

// Active reports whether bumping is still blocked
func (c Cooldown) Active() bool {
	return c.Remaining > 0
}

// BumpCooldown computes the cooldown for a clan last bumped at lastBumped.
// Exactly BumpCooldownPeriod after lastBumped the clan is eligible again.
func BumpCooldown(lastBumped, now time.Time) Cooldown {
	next := lastBumped.Add(BumpCooldownPeriod)
	remaining := next.Sub(now)
	if remaining <= 0 {
		return Cooldown{NextBumpAvailable: next}
	}
	ms := remaining.Milliseconds()
	if remaining%time.Millisecond != 0 {
		ms++
	}
	hourMs := time.Hour.Milliseconds()
	return Cooldown{
		Remaining:         remaining,
		HoursRemaining:    (ms + hourMs - 1) / hourMs,
		NextBumpAvailable: next,
	}
}

// BumpEligibleBefore is the latest lastBumpedAt that still allows a bump at now
func BumpEligibleBefore(now time.Time) time.Time {
	return now.Add(-BumpCooldownPeriod)
}
