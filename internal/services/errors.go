package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks a record whose media file (reported path and
	// every alternate extension) is absent. Per-record skip.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrPermissionDenied marks artifact writes blocked by the OS. Per-record
	// skip, but usually systemic.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStateCorrupt marks an unreadable or malformed state store. Fatal.
	ErrStateCorrupt = errors.New("state corrupt")
	// ErrCollisionPersistence marks a collision decision that could not be
	// journaled. Fatal.
	ErrCollisionPersistence = errors.New("collision persistence failure")
	// ErrStatePersist marks an end-of-run flush that could not be committed.
	// Fatal.
	ErrStatePersist = errors.New("state persistence failure")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrExternal      = errors.New("external service error")
	ErrConflict      = errors.New("target conflict")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole run rather than a single
// record.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrStateCorrupt), errors.Is(err, ErrCollisionPersistence), errors.Is(err, ErrStatePersist):
		return true
	default:
		return false
	}
}

// Outcome maps a per-record error to the short label used in logs and run
// reports.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSourceUnavailable):
		return "missing"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case IsFatal(err):
		return "fatal"
	default:
		return "failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
