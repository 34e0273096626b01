package projects

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the manager-driven lifecycle of a project.
type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

var allStatuses = []Status{StatusOngoing, StatusDone, StatusArchived}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// legalTransitions encodes the status cycle. Archiving always passes
// through done, so ongoing → archived is absent on purpose.
var legalTransitions = map[Status][]Status{
	StatusOngoing:  {StatusDone},
	StatusDone:     {StatusOngoing, StatusArchived},
	StatusArchived: {StatusDone},
}

// ErrIllegalTransition is returned when a requested status change is not in
// the lifecycle cycle.
var ErrIllegalTransition = errors.New("illegal status transition")

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a lifecycle step, wrapping ErrIllegalTransition
// with the offending pair.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// Project is one audiobook title moving through editor, master, and QC.
type Project struct {
	ID               int64
	Title            string
	Status           Status
	DueDate          string // canonical YYYY-MM-DD, empty when unset
	OriginalDueDate  string // first due date recorded, for change tracking
	Notes            string
	Editor           string
	Master           string
	QC               string
	EstimatedRunTime float64 // hours, non-negative
	TotalEdited      float64 // manual figure; superseded by log aggregation
	RemainingRaw     float64
	OnHold           bool
	NewEdit          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasDueDate reports whether a due date is set.
func (p Project) HasDueDate() bool {
	return strings.TrimSpace(p.DueDate) != ""
}

// DueDateChanged reports whether the due date moved after being first set.
func (p Project) DueDateChanged() bool {
	return p.OriginalDueDate != "" && p.DueDate != p.OriginalDueDate
}

// Active reports whether the project shows up in working views.
func (p Project) Active() bool {
	return p.Status == StatusOngoing
}
