package ratelimit

import (
	"testing"
	"time"
)

func TestCheck_WithinBurst(t *testing.T) {
	l := NewToolLimiters()
	l.Set("tool", 1.0, 3)

	for i := 0; i < 3; i++ {
		if err := l.Check("tool"); err != nil {
			t.Errorf("call %d: Check() = %v, want allowed within burst", i+1, err)
		}
	}
}

func TestCheck_ExceedsBurst(t *testing.T) {
	now := time.Now()
	l := NewToolLimiters()
	l.nowFunc = func() time.Time { return now }
	l.Set("tool", 1.0, 2)

	l.Check("tool")
	l.Check("tool")
	if err := l.Check("tool"); err == nil {
		t.Error("Check() after burst exhaustion should fail")
	}
}

func TestCheck_RefillAfterWait(t *testing.T) {
	now := time.Now()
	l := NewToolLimiters()
	l.nowFunc = func() time.Time { return now }
	l.Set("tool", 10.0, 1)

	if err := l.Check("tool"); err != nil {
		t.Fatalf("first Check() = %v", err)
	}
	if err := l.Check("tool"); err == nil {
		t.Fatal("second Check() at the same instant should fail")
	}

	now = now.Add(200 * time.Millisecond)
	if err := l.Check("tool"); err != nil {
		t.Errorf("Check() after refill = %v, want allowed", err)
	}
}

func TestCheck_IndependentTools(t *testing.T) {
	now := time.Now()
	l := NewToolLimiters()
	l.nowFunc = func() time.Time { return now }
	l.Set("a", 1.0, 1)
	l.Set("b", 1.0, 1)

	l.Check("a")
	if err := l.Check("b"); err != nil {
		t.Errorf("exhausting tool a blocked tool b: %v", err)
	}
}

func TestCheck_Unconfigured(t *testing.T) {
	l := NewToolLimiters()
	for i := 0; i < 100; i++ {
		if err := l.Check("unknown_tool"); err != nil {
			t.Fatalf("unconfigured tool was limited: %v", err)
		}
	}

	var nilLimiters *ToolLimiters
	if err := nilLimiters.Check("tank_ranking"); err != nil {
		t.Errorf("nil limiters Check() = %v", err)
	}
}

func TestDefaultLimits(t *testing.T) {
	l := NewToolLimiters()
	for _, tool := range []string{"tank_register", "tank_login", "tank_run_experiment", "tank_latest_result", "tank_history", "tank_ranking", "tank_backup", "tank_restore"} {
		if _, ok := l.limiters[tool]; !ok {
			t.Errorf("no default limit for %s", tool)
		}
	}
}
