package core

import (
	"testing"

	"github.com/valter-silva-au/mytasks/internal/storage"
	"github.com/valter-silva-au/mytasks/pkg/models"
	"pgregory.net/rapid"
)

func genTitle(t *rapid.T, label string) string {
	return rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,24}[A-Za-z0-9]`).Draw(t, label)
}

func newPropertyStore() (storage.KeyValueStore, TaskRepository, TaskStore) {
	kv := storage.NewMemoryKeyValueStore()
	repo := storage.NewTaskRepository(kv, "")
	s := NewTaskStore(repo, NewTaskIDGenerator(kv, "TASK", 5), nil)
	s.Load()
	return kv, repo, s
}

func seedStore(t *rapid.T, s TaskStore) []models.Task {
	n := rapid.IntRange(1, 12).Draw(t, "n")
	for i := 0; i < n; i++ {
		state := rapid.SampledFrom(models.AllStates).Draw(t, "state")
		if _, err := s.Create(TaskInput{Title: genTitle(t, "title"), State: state}); err != nil {
			t.Fatal(err)
		}
	}
	return s.List()
}

// Property: Create followed by Load over the same storage yields the created
// record last, with the default state.
func TestCreateLoadRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kv, repo, s := newPropertyStore()
		seedStore(t, s)

		title := genTitle(t, "newTitle")
		summary := rapid.StringMatching(`[a-z0-9 ]{0,30}`).Draw(t, "summary")
		created, err := s.Create(TaskInput{Title: title, Summary: summary})
		if err != nil {
			t.Fatal(err)
		}

		reloaded := NewTaskStore(repo, NewTaskIDGenerator(kv, "TASK", 5), nil)
		reloaded.Load()
		tasks := reloaded.List()
		last := tasks[len(tasks)-1]
		if last.Title != title || last.Summary != summary || last.State != models.StateNotDone {
			t.Fatalf("expected %q/%q/Not done, got %+v", title, summary, last)
		}
		if last.ID != created.ID {
			t.Fatalf("expected ID %s, got %s", created.ID, last.ID)
		}
	})
}

// Property: Delete removes exactly the addressed record and keeps the
// relative order of the others.
func TestDeletePreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_, _, s := newPropertyStore()
		before := seedStore(t, s)
		idx := rapid.IntRange(0, len(before)-1).Draw(t, "idx")

		id, err := s.IDAt(idx)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(id); err != nil {
			t.Fatal(err)
		}

		after := s.List()
		if len(after) != len(before)-1 {
			t.Fatalf("expected %d tasks, got %d", len(before)-1, len(after))
		}
		expected := append(append([]models.Task{}, before[:idx]...), before[idx+1:]...)
		for i := range expected {
			if after[i] != expected[i] {
				t.Fatalf("position %d: expected %+v, got %+v", i, expected[i], after[i])
			}
		}
	})
}

// Property: ToggleComplete applied twice restores the completed value.
func TestToggleCompleteInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_, _, s := newPropertyStore()
		before := seedStore(t, s)
		idx := rapid.IntRange(0, len(before)-1).Draw(t, "idx")
		id := before[idx].ID

		if _, err := s.ToggleComplete(id); err != nil {
			t.Fatal(err)
		}
		after, err := s.ToggleComplete(id)
		if err != nil {
			t.Fatal(err)
		}
		if after.Completed() != before[idx].Completed() {
			t.Fatalf("expected completed=%v, got %v", before[idx].Completed(), after.Completed())
		}
	})
}
