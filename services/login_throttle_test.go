package services

import (
	"testing"
	"time"
)

func TestCooldownSecondsForFailCount(t *testing.T) {
	tests := []struct {
		failCount int
		want      int
	}{
		{0, 1},   // 2^0=1
		{1, 2},   // 2^1=2
		{2, 4},   // 2^2=4
		{3, 8},   // 2^3=8
		{4, 16},  // 2^4=16
		{5, 30},  // 2^5=32 -> cap 30
		{6, 30},  // 2^6=64 -> cap 30
		{10, 30}, // cap 30
	}
	for _, tt := range tests {
		got := CooldownSecondsForFailCount(tt.failCount)
		if got != tt.want {
			t.Errorf("CooldownSecondsForFailCount(%d) = %d, want %d", tt.failCount, got, tt.want)
		}
	}
}

func TestLoginThrottle(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	th := NewLoginThrottle()
	th.now = func() time.Time { return now }

	if w := th.WaitSeconds(RoleCourier, "a@x.com"); w != 0 {
		t.Fatalf("fresh identity: wait = %d, want 0", w)
	}

	th.RecordFailed(RoleCourier, "a@x.com")
	if w := th.WaitSeconds(RoleCourier, "a@x.com"); w != 3 {
		t.Errorf("after one fail: wait = %d, want 3 (2s rounded up)", w)
	}
	if w := th.WaitSeconds(RoleClient, "a@x.com"); w != 0 {
		t.Errorf("other role must not be throttled, wait = %d", w)
	}

	now = now.Add(3 * time.Second)
	if w := th.WaitSeconds(RoleCourier, "a@x.com"); w != 0 {
		t.Errorf("after cooldown expired: wait = %d, want 0", w)
	}

	for i := 0; i < 8; i++ {
		th.RecordFailed(RoleCourier, "a@x.com")
	}
	if w := th.WaitSeconds(RoleCourier, "a@x.com"); w > 31 {
		t.Errorf("after many fails: wait = %d, want <= 31 (cap)", w)
	}

	th.RecordSuccess(RoleCourier, "a@x.com")
	if w := th.WaitSeconds(RoleCourier, "a@x.com"); w != 0 {
		t.Errorf("after success: wait = %d, want 0", w)
	}
}
