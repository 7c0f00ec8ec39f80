package optimize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clop/internal/request"
)

// Sentinel markers for failure classification. Optimisers tag errors with
// one of these via Wrap; the coordinator maps them onto terminal statuses.
var (
	ErrUnsupported    = errors.New("unsupported input")
	ErrNotFound       = errors.New("source not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrProcessFailure = errors.New("external tool failure")
	ErrInternal       = errors.New("internal error")
)

// Wrap builds an error that carries component context while tagging it with
// the provided marker. The marker should be one of the exported sentinels.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusFor maps an optimiser error onto the terminal status the coordinator
// records. Cancellation is distinct from failure so callers can retry.
func StatusFor(err error) request.Status {
	switch {
	case err == nil:
		return request.StatusSucceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return request.StatusCancelled
	case errors.Is(err, ErrUnsupported):
		return request.StatusUnsupported
	default:
		return request.StatusFailed
	}
}

// Message extracts a human-readable message from an optimiser error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "optimiser failure"
	}
	return strings.Join(parts, ": ")
}
