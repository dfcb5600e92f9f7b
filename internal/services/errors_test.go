package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"sagelink/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "sagex", "fetch page", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"sagex", "fetch page", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{nil, false},
		{services.Wrap(services.ErrStateCorrupt, "state", "load", "bad row", nil), true},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrCollisionPersistence, "collision", "commit", "", nil)), true},
		{services.Wrap(services.ErrStatePersist, "state", "flush", "", nil), true},
		{services.Wrap(services.ErrSourceUnavailable, "locate", "", "", nil), false},
		{services.Wrap(services.ErrPermissionDenied, "project", "symlink", "", nil), false},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.fatal {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}

func TestOutcomeLabels(t *testing.T) {
	if got := services.Outcome(nil); got != "ok" {
		t.Fatalf("unexpected outcome for nil: %q", got)
	}
	if got := services.Outcome(services.Wrap(services.ErrSourceUnavailable, "", "", "", nil)); got != "missing" {
		t.Fatalf("unexpected outcome: %q", got)
	}
	if got := services.Outcome(services.Wrap(services.ErrPermissionDenied, "", "", "", nil)); got != "permission_denied" {
		t.Fatalf("unexpected outcome: %q", got)
	}
	if got := services.Outcome(errors.New("other")); got != "failed" {
		t.Fatalf("unexpected outcome: %q", got)
	}
}
