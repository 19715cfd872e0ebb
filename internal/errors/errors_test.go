package errors

import (
	"fmt"
	"testing"
)

func TestExitCodeUnwrapsTypedErrors(t *testing.T) {
	base := New(CodeInvalidDeadline, "ttl must be positive")
	wrapped := fmt.Errorf("build swap: %w", base)
	if got := ExitCode(wrapped); got != int(CodeInvalidDeadline) {
		t.Fatalf("expected exit code %d, got %d", CodeInvalidDeadline, got)
	}
	if !HasCode(wrapped, CodeInvalidDeadline) {
		t.Fatal("expected HasCode to see through fmt wrapping")
	}
	if HasCode(wrapped, CodeInvalidAddress) {
		t.Fatal("did not expect a different code to match")
	}
}

func TestExitCodeDefaults(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatal("expected nil error to map to success")
	}
	if ExitCode(fmt.Errorf("plain")) != int(CodeInternal) {
		t.Fatal("expected untyped error to map to internal")
	}
}

func TestWrapMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeUnavailable, "route request failed", fmt.Errorf("dial tcp: refused"))
	if err.Error() != "route request failed: dial tcp: refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if TypeName(err.Code) != "provider_unavailable" {
		t.Fatalf("unexpected type name: %s", TypeName(err.Code))
	}
}
