package services

import (
	"math"
	"sync"
	"time"
)

const ThrottleCooldownCapSeconds = 30

type throttleEntry struct {
	failCount     int
	cooldownUntil time.Time
}

// LoginThrottle tracks failed logins per (role, identity) and imposes a
// growing cooldown between attempts.
type LoginThrottle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	now     func() time.Time
}

func NewLoginThrottle() *LoginThrottle {
	return &LoginThrottle{entries: make(map[string]*throttleEntry), now: time.Now}
}

func throttleKey(role, identity string) string {
	return role + "|" + identity
}

// WaitSeconds returns how many seconds the caller must wait before trying again (0 if no cooldown).
func (t *LoginThrottle) WaitSeconds(role, identity string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[throttleKey(role, identity)]
	if !ok {
		return 0
	}
	now := t.now()
	if now.Before(e.cooldownUntil) {
		return int(e.cooldownUntil.Sub(now).Seconds()) + 1 // round up
	}
	return 0
}

// RecordFailed increments the fail count and sets cooldown = min(30, 2^failCount) seconds.
func (t *LoginThrottle) RecordFailed(role, identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := throttleKey(role, identity)
	e, ok := t.entries[key]
	if !ok {
		e = &throttleEntry{}
		t.entries[key] = e
	}
	e.failCount++
	e.cooldownUntil = t.now().Add(time.Duration(CooldownSecondsForFailCount(e.failCount)) * time.Second)
}

// RecordSuccess forgets previous failures.
func (t *LoginThrottle) RecordSuccess(role, identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, throttleKey(role, identity))
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}
