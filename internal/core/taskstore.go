package core

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/valter-silva-au/mytasks/internal/storage"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

// TaskRepository is the subset of storage.TaskRepository the store needs.
type TaskRepository interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
	Update(fn func(current []models.Task) ([]models.Task, error)) ([]models.Task, error)
}

// errIDTaken reports that a generated identifier is already held by a record
// another writer stored after this store last read the sequence.
var errIDTaken = errors.New("task ID already taken")

// maxCreateAttempts bounds how often Create draws a new ID after losing a
// race with another writer.
const maxCreateAttempts = 5

// TaskInput holds the fields of a task being created. An empty State means
// models.StateNotDone.
type TaskInput struct {
	Title    string
	Summary  string
	State    models.TaskState
	Deadline string
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title    *string
	Summary  *string
	State    *models.TaskState
	Deadline *string
}

// TaskStore owns the ordered task sequence and writes it through to the
// repository on every mutation. Each mutation is applied to the sequence as
// currently stored, so writes from other processes sharing the repository
// are kept.
type TaskStore interface {
	// Load replaces the in-memory sequence with the persisted one. Missing or
	// malformed data yields an empty sequence and is never reported.
	Load()
	Create(in TaskInput) (models.Task, error)
	Update(id string, patch TaskPatch) (models.Task, error)
	Delete(id string) error
	ToggleComplete(id string) (models.Task, error)
	SetState(id string, state models.TaskState) (models.Task, error)
	Persist() error

	Get(id string) (models.Task, error)
	List() []models.Task
	IDAt(index int) (string, error)
}

// taskStore is not safe for concurrent use; callers drive it from one goroutine.
type taskStore struct {
	repo   TaskRepository
	idGen  TaskIDGenerator
	events EventLogger
	tasks  []models.Task
}

// NewTaskStore creates a TaskStore with an empty sequence. Call Load to read
// persisted tasks. events may be nil.
func NewTaskStore(repo TaskRepository, idGen TaskIDGenerator, events EventLogger) TaskStore {
	return &taskStore{
		repo:   repo,
		idGen:  idGen,
		events: events,
		tasks:  []models.Task{},
	}
}

// Load also assigns IDs to records stored without one (or with a duplicate)
// and writes them back so the IDs stay stable across sessions.
func (s *taskStore) Load() {
	loaded, err := s.repo.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrNoData) {
			s.logEvent("store.load_failed", map[string]any{"error": err.Error()})
		}
		s.tasks = []models.Task{}
		return
	}

	missing := 0
	used := make(map[string]bool, len(loaded))
	for _, t := range loaded {
		if t.ID == "" || used[t.ID] {
			missing++
			continue
		}
		used[t.ID] = true
	}
	if missing == 0 {
		s.tasks = loaded
		return
	}

	// IDs are drawn before the repository update; the generator shares the
	// repository's lock.
	pool := make([]string, 0, missing)
	for range missing {
		id, err := s.nextID(used)
		if err != nil {
			s.logEvent("store.load_failed", map[string]any{"error": err.Error()})
			s.tasks = []models.Task{}
			return
		}
		used[id] = true
		pool = append(pool, id)
	}

	s.tasks = slices.Clone(loaded)
	_, _ = assignIDs(s.tasks, pool)

	assigned := 0
	stored, err := s.repo.Update(func(current []models.Task) ([]models.Task, error) {
		n, err := assignIDs(current, pool)
		assigned = n
		return current, err
	})
	if err != nil {
		s.logEvent("store.backfill_failed", map[string]any{"error": err.Error(), "assigned": missing})
		return
	}
	s.tasks = stored
	if assigned > 0 {
		s.logEvent("store.ids_assigned", map[string]any{"assigned": assigned})
	}
}

func (s *taskStore) Create(in TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	state := in.State
	if state == "" {
		state = models.StateNotDone
	}
	if !state.Valid() {
		return models.Task{}, &ValidationError{Field: "state", Reason: fmt.Sprintf("unknown state %q", state)}
	}

	for attempt := 1; ; attempt++ {
		id, err := s.nextID(s.idSet())
		if err != nil {
			return models.Task{}, fmt.Errorf("creating task: %w", err)
		}

		task := models.Task{
			ID:       id,
			Title:    title,
			Summary:  in.Summary,
			State:    state,
			Deadline: strings.TrimSpace(in.Deadline),
		}

		err = s.mutate(func(current []models.Task) ([]models.Task, error) {
			if slices.ContainsFunc(current, func(t models.Task) bool { return t.ID == id }) {
				return nil, errIDTaken
			}
			return append(current, task), nil
		})
		if errors.Is(err, errIDTaken) && attempt < maxCreateAttempts {
			continue
		}
		if err != nil {
			return models.Task{}, fmt.Errorf("creating task: %w", err)
		}

		s.logEvent("task.created", taskEventData(task))
		return task, nil
	}
}

func (s *taskStore) Update(id string, patch TaskPatch) (models.Task, error) {
	var title string
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
		}
	}
	if patch.State != nil && !patch.State.Valid() {
		return models.Task{}, &ValidationError{Field: "state", Reason: fmt.Sprintf("unknown state %q", *patch.State)}
	}

	var previous, task models.Task
	err := s.mutate(func(current []models.Task) ([]models.Task, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, &NotFoundError{ID: id}
		}
		previous = current[idx]
		task = previous
		if patch.Title != nil {
			task.Title = title
		}
		if patch.Summary != nil {
			task.Summary = *patch.Summary
		}
		if patch.State != nil {
			task.State = *patch.State
		}
		if patch.Deadline != nil {
			task.Deadline = strings.TrimSpace(*patch.Deadline)
		}
		current[idx] = task
		return current, nil
	})
	if err != nil {
		return models.Task{}, wrapMutation("updating task "+id, err)
	}

	data := taskEventData(task)
	if previous.State != task.State {
		data["old_state"] = string(previous.State)
	}
	s.logEvent("task.updated", data)
	return task, nil
}

func (s *taskStore) Delete(id string) error {
	var removed models.Task
	err := s.mutate(func(current []models.Task) ([]models.Task, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, &NotFoundError{ID: id}
		}
		removed = current[idx]
		return slices.Delete(current, idx, idx+1), nil
	})
	if err != nil {
		return wrapMutation("deleting task "+id, err)
	}

	s.logEvent("task.deleted", taskEventData(removed))
	return nil
}

func (s *taskStore) ToggleComplete(id string) (models.Task, error) {
	var task models.Task
	eventType := "task.completed"
	err := s.mutate(func(current []models.Task) ([]models.Task, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, &NotFoundError{ID: id}
		}
		task = current[idx]
		if task.Completed() {
			task.State = models.StateNotDone
			eventType = "task.reopened"
		} else {
			task.State = models.StateDone
		}
		current[idx] = task
		return current, nil
	})
	if err != nil {
		return models.Task{}, wrapMutation("toggling task "+id, err)
	}

	s.logEvent(eventType, taskEventData(task))
	return task, nil
}

func (s *taskStore) SetState(id string, state models.TaskState) (models.Task, error) {
	return s.Update(id, TaskPatch{State: &state})
}

func (s *taskStore) Persist() error {
	if err := s.repo.Save(s.tasks); err != nil {
		return fmt.Errorf("persisting tasks: %w", err)
	}
	return nil
}

func (s *taskStore) Get(id string) (models.Task, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Task{}, &NotFoundError{ID: id}
	}
	return s.tasks[idx], nil
}

func (s *taskStore) List() []models.Task {
	return slices.Clone(s.tasks)
}

func (s *taskStore) IDAt(index int) (string, error) {
	if index < 0 || index >= len(s.tasks) {
		return "", &IndexError{Index: index, Len: len(s.tasks)}
	}
	return s.tasks[index].ID, nil
}

// mutate applies op to the sequence as currently stored and adopts what was
// written. op runs under the repository's lock and must not call the
// repository or the ID generator. A rejection from op is returned as is and
// still refreshes memory from the stored sequence; a persistence failure
// leaves memory untouched.
func (s *taskStore) mutate(op func(current []models.Task) ([]models.Task, error)) error {
	var fresh []models.Task
	var opErr error
	stored, err := s.repo.Update(func(current []models.Task) ([]models.Task, error) {
		next, err := op(slices.Clone(current))
		if err != nil {
			fresh, opErr = current, err
		}
		return next, err
	})
	if opErr != nil {
		s.tasks = fresh
		return opErr
	}
	if err != nil {
		return err
	}
	s.tasks = stored
	return nil
}

// wrapMutation keeps lookup and validation errors unwrapped.
func wrapMutation(action string, err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (s *taskStore) indexOf(id string) int {
	return indexOf(s.tasks, id)
}

func indexOf(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

func (s *taskStore) idSet() map[string]bool {
	ids := make(map[string]bool, len(s.tasks))
	for _, t := range s.tasks {
		ids[t.ID] = true
	}
	return ids
}

// nextID skips identifiers already present, which happens when the counter
// was lost or tasks were written by hand.
// assignIDs gives each record that lacks an ID, or repeats one held by an
// earlier record, the next identifier from pool. It fails with errIDTaken
// when pool runs short or one of its identifiers is already present.
func assignIDs(tasks []models.Task, pool []string) (int, error) {
	present := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID != "" {
			present[t.ID] = true
		}
	}
	used := make(map[string]bool, len(tasks))
	assigned := 0
	for i := range tasks {
		if tasks[i].ID != "" && !used[tasks[i].ID] {
			used[tasks[i].ID] = true
			continue
		}
		if assigned == len(pool) || present[pool[assigned]] {
			return assigned, errIDTaken
		}
		tasks[i].ID = pool[assigned]
		used[tasks[i].ID] = true
		assigned++
	}
	return assigned, nil
}

func (s *taskStore) nextID(taken map[string]bool) (string, error) {
	for attempt := 0; attempt <= len(taken); attempt++ {
		id, err := s.idGen.GenerateTaskID()
		if err != nil {
			return "", fmt.Errorf("generating task ID: %w", err)
		}
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("generating task ID: no free identifier after %d attempts", len(taken)+1)
}

func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, data) // Non-fatal: the event log is best effort.
}

func taskEventData(t models.Task) map[string]any {
	return map[string]any{
		"task_id": t.ID,
		"title":   t.Title,
		"state":   string(t.State),
	}
}

// ResolveRef maps a reference typed by a user to a task ID. ref is either an
// existing task ID or a 1-based position in the stored sequence.
func ResolveRef(store TaskStore, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if _, err := store.Get(ref); err == nil {
		return ref, nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return "", &NotFoundError{ID: ref}
	}
	return store.IDAt(n - 1)
}
