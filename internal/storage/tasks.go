package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valter-silva-au/mytasks/pkg/models"
)

// DefaultTasksKey is the key the task sequence is stored under.
const DefaultTasksKey = "tasks"

var (
	// ErrNoData is returned by Load when nothing has been stored yet.
	ErrNoData = errors.New("no task data stored")
	// ErrMalformed wraps decode failures of the stored task data.
	ErrMalformed = errors.New("malformed task data")
)

// TaskRepository loads and saves the whole task sequence.
type TaskRepository interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
	// Update reads the stored sequence, passes it to fn and stores the
	// result as one atomic step. Absent or malformed data reaches fn as an
	// empty sequence. It returns the sequence that was stored.
	Update(fn func(current []models.Task) ([]models.Task, error)) ([]models.Task, error)
}

// storedTask is the on-disk record. Completed is only read: it lets records
// written in the boolean shape {title, summary, completed} load as states.
type storedTask struct {
	ID        string           `json:"id,omitempty"`
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	State     models.TaskState `json:"state,omitempty"`
	Deadline  string           `json:"deadline"`
	Completed *bool            `json:"completed,omitempty"`
}

type kvTaskRepository struct {
	kv  KeyValueStore
	key string
}

// NewTaskRepository creates a TaskRepository that stores a JSON array under
// key in kv. An empty key selects DefaultTasksKey.
func NewTaskRepository(kv KeyValueStore, key string) TaskRepository {
	if key == "" {
		key = DefaultTasksKey
	}
	return &kvTaskRepository{kv: kv, key: key}
}

func (r *kvTaskRepository) Load() ([]models.Task, error) {
	raw, ok, err := r.kv.Get(r.key)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	if !ok {
		return nil, ErrNoData
	}
	return decodeTasks(raw)
}

func (r *kvTaskRepository) Save(tasks []models.Task) error {
	raw, err := encodeTasks(tasks)
	if err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	if err := r.kv.Set(r.key, raw); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

func (r *kvTaskRepository) Update(fn func(current []models.Task) ([]models.Task, error)) ([]models.Task, error) {
	var stored []models.Task
	err := r.kv.Update(r.key, func(old string, ok bool) (string, error) {
		current := []models.Task{}
		if ok {
			if decoded, err := decodeTasks(old); err == nil {
				current = decoded
			}
		}
		next, err := fn(current)
		if err != nil {
			return "", err
		}
		raw, err := encodeTasks(next)
		if err != nil {
			return "", err
		}
		stored = next
		return raw, nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating tasks: %w", err)
	}
	return stored, nil
}

func encodeTasks(tasks []models.Task) (string, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encoding tasks: %w", err)
	}
	return string(data), nil
}

// decodeTasks parses a stored JSON array and checks it against
// tasks.schema.json. A JSON null decodes to an empty sequence.
func decodeTasks(raw string) ([]models.Task, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validateTasksDoc(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var stored []storedTask
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]models.Task, 0, len(stored))
	for _, st := range stored {
		state := st.State
		if state == "" {
			state = models.StateNotDone
			if st.Completed != nil && *st.Completed {
				state = models.StateDone
			}
		}
		tasks = append(tasks, models.Task{
			ID:       st.ID,
			Title:    st.Title,
			Summary:  st.Summary,
			State:    state,
			Deadline: st.Deadline,
		})
	}
	return tasks, nil
}
