package shopify

import (
	"fmt"
	"strings"
)

// ObjectStatus is the publishable lifecycle state of a metaobject
type ObjectStatus int

const (
	// StatusUnknown covers a missing capability or an unrecognised value
	StatusUnknown ObjectStatus = iota
	StatusDraft
	StatusActive
)

const (
	rawStatusActive = "ACTIVE"
	rawStatusDraft  = "DRAFT"
)

// ParseObjectStatus maps the API value onto ObjectStatus. Only the exact
// strings ACTIVE and DRAFT are recognised.
func ParseObjectStatus(raw string) ObjectStatus {
	switch raw {
	case rawStatusActive:
		return StatusActive
	case rawStatusDraft:
		return StatusDraft
	default:
		return StatusUnknown
	}
}

// ParseStatusInput parses a client-supplied status, case-insensitively
func ParseStatusInput(raw string) (ObjectStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case rawStatusActive:
		return StatusActive, nil
	case rawStatusDraft:
		return StatusDraft, nil
	default:
		return StatusUnknown, fmt.Errorf("unsupported status %q", raw)
	}
}

// IsActive reports whether the object is published
func (s ObjectStatus) IsActive() bool {
	return s == StatusActive
}

// NeedsPublish reports whether the object should be republished. Anything
// that is not positively ACTIVE counts as a draft.
func (s ObjectStatus) NeedsPublish() bool {
	return s != StatusActive
}

// String returns the API representation; StatusUnknown yields ""
func (s ObjectStatus) String() string {
	switch s {
	case StatusActive:
		return rawStatusActive
	case StatusDraft:
		return rawStatusDraft
	default:
		return ""
	}
}
