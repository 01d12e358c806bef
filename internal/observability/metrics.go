package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/mytasks/pkg/models"
)

// Metrics aggregates task store activity over a time window.
type Metrics struct {
	TasksCreated   int `json:"tasks_created"`
	TasksCompleted int `json:"tasks_completed"`
	TasksReopened  int `json:"tasks_reopened"`
	TasksUpdated   int `json:"tasks_updated"`
	TasksDeleted   int `json:"tasks_deleted"`

	// StateChanges counts transitions into each state, keyed by state name.
	// Toggles count as transitions into Done and Not done.
	StateChanges map[string]int `json:"state_changes"`

	LoadFailures int        `json:"load_failures"`
	EventCount   int        `json:"event_count"`
	OldestEvent  *time.Time `json:"oldest_event,omitempty"`
	NewestEvent  *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{StateChanges: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			m.TasksCreated++
		case "task.completed":
			m.TasksCompleted++
			m.StateChanges[string(models.StateDone)]++
		case "task.reopened":
			m.TasksReopened++
			m.StateChanges[string(models.StateNotDone)]++
		case "task.updated":
			m.TasksUpdated++
			if _, changed := event.Data["old_state"]; changed {
				if state, ok := event.Data["state"].(string); ok {
					m.StateChanges[state]++
				}
			}
		case "task.deleted":
			m.TasksDeleted++
		case "store.load_failed":
			m.LoadFailures++
		}
	}

	return m, nil
}
