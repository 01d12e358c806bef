package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskState is the completion state of a task.
type TaskState string

const (
	StateDone    TaskState = "Done"
	StateNotDone TaskState = "Not done"
	StateDoing   TaskState = "Doing right now"
)

// AllStates lists every TaskState in display order.
var AllStates = []TaskState{StateNotDone, StateDoing, StateDone}

// Valid reports whether s is one of the known states.
func (s TaskState) Valid() bool {
	switch s {
	case StateDone, StateNotDone, StateDoing:
		return true
	}
	return false
}

// ParseTaskState accepts the display values case-insensitively plus the short
// aliases used on the command line (done, todo, doing).
func ParseTaskState(raw string) (TaskState, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "done":
		return StateDone, nil
	case "not done", "not-done", "notdone", "todo", "pending":
		return StateNotDone, nil
	case "doing right now", "doing", "in-progress", "now":
		return StateDoing, nil
	}
	return "", fmt.Errorf("unknown task state %q: must be one of %q, %q, %q", raw, StateNotDone, StateDoing, StateDone)
}

// Placeholders rendered for empty optional fields.
const (
	SummaryPlaceholder  = "No summary was provided for this task"
	DeadlinePlaceholder = "N/A"
)

// DeadlineLayout is the date format written for deadlines.
const DeadlineLayout = "2006-01-02"

// Task is a single to-do item. Deadline is kept as text and only parsed when
// ordering by date.
type Task struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	State    TaskState `json:"state"`
	Deadline string    `json:"deadline"`
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.State == StateDone
}

// DisplaySummary returns the summary or its placeholder.
func (t Task) DisplaySummary() string {
	if strings.TrimSpace(t.Summary) == "" {
		return SummaryPlaceholder
	}
	return t.Summary
}

// DisplayDeadline returns the deadline or "N/A".
func (t Task) DisplayDeadline() string {
	if strings.TrimSpace(t.Deadline) == "" {
		return DeadlinePlaceholder
	}
	return t.Deadline
}

// ParsedDeadline parses the deadline as a plain date or an RFC 3339 timestamp.
// ok is false for empty or unparsable values.
func (t Task) ParsedDeadline() (deadline time.Time, ok bool) {
	raw := strings.TrimSpace(t.Deadline)
	if raw == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(DeadlineLayout, raw); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, raw); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// Theme is the persisted color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether th is light or dark.
func (th Theme) Valid() bool {
	return th == ThemeLight || th == ThemeDark
}

// Toggled returns the opposite theme. Unknown values toggle to dark, matching
// a light default.
func (th Theme) Toggled() Theme {
	if th == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
