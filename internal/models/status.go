package models

import (
	"fmt"
	"strings"
)

// ProcessingStatus is the lifecycle state shared by datasets, models and tasks.
type ProcessingStatus string

const (
	StatusCreated    ProcessingStatus = "Created"
	StatusProcessing ProcessingStatus = "Processing"
	StatusCompleted  ProcessingStatus = "Completed"
	StatusFailed     ProcessingStatus = "Failed"
)

var allStatuses = []ProcessingStatus{StatusCreated, StatusProcessing, StatusCompleted, StatusFailed}

// ParseStatus matches a status name case-insensitively.
func ParseStatus(s string) (ProcessingStatus, error) {
	for _, st := range allStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsTerminal reports whether no further transition is allowed.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
// Repeating the current status is always accepted so callbacks can be retried.
func (s ProcessingStatus) CanTransition(next ProcessingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusCreated:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}
