package request

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ItemType is the coarse media category used to route a request to its
// optimiser.
type ItemType string

const (
	ItemImage ItemType = "image"
	ItemVideo ItemType = "video"
	ItemPDF   ItemType = "pdf"
)

var itemTypes = map[ItemType]struct{}{
	ItemImage: {},
	ItemVideo: {},
	ItemPDF:   {},
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	_, ok := itemTypes[t]
	return ok
}

// Status represents the lifecycle of an optimisation request.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusUnsupported Status = "unsupported"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether s is one of the four final statuses. A request
// reaches exactly one terminal status and never leaves it.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusUnsupported, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Request describes a single optimisation job. Immutable once created.
type Request struct {
	ID         string
	Type       ItemType
	SourcePath string
	Metadata   Metadata
}

// New validates inputs and constructs a request with a fresh unique ID.
// Construction errors indicate caller bugs, not runtime failures.
func New(itemType ItemType, sourcePath string, meta Metadata) (*Request, error) {
	if !itemType.Valid() {
		return nil, errors.New("request: unknown item type")
	}
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, errors.New("request: source path required")
	}
	return &Request{
		ID:         uuid.NewString(),
		Type:       itemType,
		SourcePath: sourcePath,
		Metadata:   meta.Clone(),
	}, nil
}

// Result is the terminal outcome of a request. OutputPath is set if and only
// if Status is StatusSucceeded.
type Result struct {
	RequestID  string
	Status     Status
	OutputPath string
	Message    string
}

// Progress reports optimiser advancement for one request. Percent is in
// [0, 100] and non-decreasing within a request.
type Progress struct {
	RequestID string
	Percent   float64
	Phase     string
}
