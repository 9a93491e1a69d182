package form

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newTestGuard(now *time.Time) *Guard {
	g := NewGuard(bytes.Repeat([]byte("k"), 32), 2*time.Second, time.Hour)
	g.now = func() time.Time { return *now }
	return g
}

func TestGuardAgeWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGuard(&now)

	tok, err := g.Issue()
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Verify(tok); !errors.Is(err, ErrTooFast) {
		t.Fatalf("immediate verify: %v", err)
	}
	now = now.Add(3 * time.Second)
	if err := g.Verify(tok); err != nil {
		t.Fatalf("verify in window: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if err := g.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("late verify: %v", err)
	}
}

func TestGuardRejectsTampering(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	tok, _ := g.Issue()

	other := NewGuard(bytes.Repeat([]byte("x"), 32), 0, 0)
	if err := other.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("foreign key: %v", err)
	}
	for _, bad := range []string{"", "not-base64!", tok[:len(tok)-2]} {
		if err := g.Verify(bad); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q) = %v", bad, err)
		}
	}
}

func TestGuardFutureStamp(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	tok, _ := g.Issue()
	now = now.Add(-5 * time.Minute)
	if err := g.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("future token: %v", err)
	}
}
