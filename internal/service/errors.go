package service

import (
	"strings"

	"github.com/carebase/carebase/internal/domain"
)

// ValidationError collects every field problem found in a request so the
// caller can fix them all in one round trip.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// AuditEntry is the service-level view of an audit record.
type AuditEntry struct {
	Action       domain.AuditAction
	ResourceType string
	ResourceID   uint
	RequestID    string
	ClientIP     string
}
