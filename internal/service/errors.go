package service

import (
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

var (
	ErrForbidden       = errors.New("forbidden: insufficient permissions")
	ErrUnauthenticated = errors.New("only valid for authenticated users")
)

// ValidationError lists every rejected field of a request body.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// AuditEntry is one clinical access or change, attributed to a caller.
type AuditEntry struct {
	Caller       *domain.Caller
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	StatusCode   int
	Changes      string
}

func auditEntry(caller *domain.Caller, action domain.AuditAction, resourceType, resourceID string) AuditEntry {
	return AuditEntry{
		Caller:       caller,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

func (e AuditEntry) row() *domain.AuditLog {
	row := &domain.AuditLog{
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		StatusCode:   e.StatusCode,
		Changes:      e.Changes,
	}
	if c := e.Caller; c != nil {
		row.UserID = c.ID()
		row.UserRole = c.Role
		row.IPAddress = c.IP
		row.RequestID = c.RequestID
	}
	return row
}
