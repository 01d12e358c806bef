package core

import (
	"fmt"
	"strconv"
	"strings"
)

// CounterKey is the key-value slot holding the last issued task number.
const CounterKey = "task-counter"

// CounterStore is the subset of storage.KeyValueStore the ID generator needs.
type CounterStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Update(key string, fn func(old string, ok bool) (string, error)) error
}

// TaskIDGenerator defines the interface for generating unique, sequential task IDs.
type TaskIDGenerator interface {
	GenerateTaskID() (string, error)
}

// kvTaskIDGenerator implements TaskIDGenerator by persisting a counter in the
// key-value store next to the tasks.
type kvTaskIDGenerator struct {
	store    CounterStore
	prefix   string
	padWidth int
}

// NewTaskIDGenerator creates a TaskIDGenerator whose counter lives under
// CounterKey in store. padWidth controls the zero-padding width of the numeric
// portion. Use 0 for no padding (e.g., TASK-1).
func NewTaskIDGenerator(store CounterStore, prefix string, padWidth int) TaskIDGenerator {
	return &kvTaskIDGenerator{
		store:    store,
		prefix:   prefix,
		padWidth: padWidth,
	}
}

// GenerateTaskID increments the counter in a single store update and returns
// the formatted task ID. A missing counter starts from 1.
// Format: {prefix}-{counter:05d} (e.g., TASK-00001).
func (g *kvTaskIDGenerator) GenerateTaskID() (string, error) {
	counter := 0
	err := g.store.Update(CounterKey, func(raw string, ok bool) (string, error) {
		counter = 0
		if ok {
			trimmed := strings.TrimSpace(raw)
			n, err := strconv.Atoi(trimmed)
			if err != nil {
				return "", fmt.Errorf("parsing task counter %q: %w", trimmed, err)
			}
			counter = n
		}
		counter++
		return strconv.Itoa(counter), nil
	})
	if err != nil {
		return "", fmt.Errorf("advancing task counter: %w", err)
	}

	if g.padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", g.prefix, g.padWidth, counter), nil
	}
	return fmt.Sprintf("%s-%d", g.prefix, counter), nil
}
