package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("accept: %w", coreError(ErrCodeUserConnected, "user already connected", ErrUserConnected))

	if got := ErrorCode(wrapped); got != ErrCodeUserConnected {
		t.Fatalf("expected %q, got %q", ErrCodeUserConnected, got)
	}
	if !errors.Is(wrapped, ErrUserConnected) {
		t.Fatalf("sentinel lost through CoreError")
	}
	if got := ErrorCode(errors.New("plain")); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}
