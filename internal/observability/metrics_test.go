package observability

import (
	"testing"
	"time"
)

func TestMetricsCalculator_Calculate(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Level: LevelInfo, Type: "task.created", Data: map[string]any{"task_id": "TASK-00001", "state": "Not done"}},
		{Time: base.Add(time.Hour), Level: LevelInfo, Type: "task.created", Data: map[string]any{"task_id": "TASK-00002", "state": "Not done"}},
		{Time: base.Add(2 * time.Hour), Level: LevelInfo, Type: "task.updated", Data: map[string]any{"task_id": "TASK-00001", "state": "Doing right now", "old_state": "Not done"}},
		{Time: base.Add(3 * time.Hour), Level: LevelInfo, Type: "task.updated", Data: map[string]any{"task_id": "TASK-00002", "state": "Not done"}},
		{Time: base.Add(4 * time.Hour), Level: LevelInfo, Type: "task.completed", Data: map[string]any{"task_id": "TASK-00001"}},
		{Time: base.Add(5 * time.Hour), Level: LevelInfo, Type: "task.reopened", Data: map[string]any{"task_id": "TASK-00001"}},
		{Time: base.Add(6 * time.Hour), Level: LevelInfo, Type: "task.deleted", Data: map[string]any{"task_id": "TASK-00002"}},
		{Time: base.Add(7 * time.Hour), Level: LevelWarn, Type: "store.load_failed", Data: map[string]any{"error": "malformed"}},
	})

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}

	checks := []struct {
		name string
		got  int
		want int
	}{
		{"TasksCreated", m.TasksCreated, 2},
		{"TasksUpdated", m.TasksUpdated, 2},
		{"TasksCompleted", m.TasksCompleted, 1},
		{"TasksReopened", m.TasksReopened, 1},
		{"TasksDeleted", m.TasksDeleted, 1},
		{"LoadFailures", m.LoadFailures, 1},
		{"EventCount", m.EventCount, 8},
		{"StateChanges[Doing right now]", m.StateChanges["Doing right now"], 1},
		{"StateChanges[Done]", m.StateChanges["Done"], 1},
		{"StateChanges[Not done]", m.StateChanges["Not done"], 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("expected oldest event at %v, got %v", base, m.OldestEvent)
	}
	if want := base.Add(7 * time.Hour); m.NewestEvent == nil || !m.NewestEvent.Equal(want) {
		t.Errorf("expected newest event at %v, got %v", want, m.NewestEvent)
	}
}

func TestMetricsCalculator_EmptyLog(t *testing.T) {
	log, _ := newTestLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.TasksCreated != 0 || m.EventCount != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
	if m.OldestEvent != nil {
		t.Errorf("expected nil oldest event, got %v", m.OldestEvent)
	}
	if m.StateChanges == nil {
		t.Error("expected non-nil StateChanges map")
	}
}

func TestMetricsCalculator_FiltersBySince(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Level: LevelInfo, Type: "task.created", Data: map[string]any{"task_id": "TASK-00001"}},
		{Time: base.Add(48 * time.Hour), Level: LevelInfo, Type: "task.created", Data: map[string]any{"task_id": "TASK-00002"}},
	})

	m, err := NewMetricsCalculator(log).Calculate(base.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.TasksCreated != 1 || m.EventCount != 1 {
		t.Errorf("expected 1 created and 1 event after since, got %d and %d", m.TasksCreated, m.EventCount)
	}
}
