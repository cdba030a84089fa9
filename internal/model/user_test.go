package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSession_IsExpired_PastExpiry_ReturnsTrue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(-1 * time.Second)}

	if !s.IsExpired(now) {
		t.Error("expected session with past expiry to be expired")
	}
}

func TestSession_IsExpired_FutureExpiry_ReturnsFalse(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(1 * time.Hour)}

	if s.IsExpired(now) {
		t.Error("expected session with future expiry not to be expired")
	}
}

// 有効期限と同時刻は期限切れではない（厳密な大小比較）
func TestSession_IsExpired_ExactBoundary_ReturnsFalse(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}

	if s.IsExpired(now) {
		t.Error("expected session at exact expiry instant not to be expired")
	}
}

func TestSession_IsExpired_OneNanosecondAfter_ReturnsTrue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}

	if !s.IsExpired(now.Add(time.Nanosecond)) {
		t.Error("expected session to be expired one nanosecond after expiry")
	}
}

func TestAPIError_Error_IncludesCodeAndMessage(t *testing.T) {
	err := NewUnauthenticatedError()
	if err.Error() != "[UNAUTHORIZED] Unauthorized" {
		t.Errorf("Error() = %q, want %q", err.Error(), "[UNAUTHORIZED] Unauthorized")
	}
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to upsert session: %w", ErrPersistence)
	if !errors.Is(wrapped, ErrPersistence) {
		t.Error("expected wrapped error to match ErrPersistence")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Error("expected wrapped error not to match ErrConflict")
	}
}
