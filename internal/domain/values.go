package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout        = "2006-01-02"
	displayDateLayout = "02/01/2006"
	displayDateTime   = "02/01/2006 15:04:05"
)

var errNotString = errors.New("expected a string")

// NewConsistencyToken returns a fresh 8 character hex token.
func NewConsistencyToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY. Nil and "" clear the value.
func ParseDate(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errNotString
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{DateLayout, displayDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

// ParseDateTime accepts RFC3339 or DD/MM/YYYY HH:MM:SS. Nil and "" clear the value.
func ParseDateTime(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errNotString
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(displayDateTime, s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("unrecognised datetime %q", s)
}

func FormatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

func FormatDateTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// Truthy mirrors how the client encodes booleans in tag maps.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}
