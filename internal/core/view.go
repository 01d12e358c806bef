package core

import (
	"slices"
	"sort"

	"github.com/valter-silva-au/mytasks/pkg/models"
)

// ViewOptions selects the projection a collaborator displays. A nil State
// means no filter.
type ViewOptions struct {
	State         *models.TaskState
	Sort          string
	PriorityState models.TaskState
}

// FilterByState returns the tasks whose state equals *state, in source order.
// A nil state returns a copy of tasks.
func FilterByState(tasks []models.Task, state *models.TaskState) []models.Task {
	if state == nil {
		return slices.Clone(tasks)
	}
	result := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.State == *state {
			result = append(result, t)
		}
	}
	return result
}

// SortPriority moves tasks in priorityState ahead of the rest. Order inside
// each group is whatever sort.Slice leaves; it is not stable.
func SortPriority(tasks []models.Task, priorityState models.TaskState) []models.Task {
	result := slices.Clone(tasks)
	sort.Slice(result, func(i, j int) bool {
		return result[i].State == priorityState && result[j].State != priorityState
	})
	return result
}

// SortByDeadline orders tasks by ascending deadline date. Tasks with a missing
// or unparsable deadline go after all dated tasks. The sort is stable, so
// equal dates and undated tasks keep their relative order.
func SortByDeadline(tasks []models.Task) []models.Task {
	result := slices.Clone(tasks)
	slices.SortStableFunc(result, compareDeadlines)
	return result
}

func compareDeadlines(a, b models.Task) int {
	da, okA := a.ParsedDeadline()
	db, okB := b.ParsedDeadline()
	switch {
	case okA && okB:
		return da.Compare(db)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// PartitionByCompletion splits tasks into pending and completed, each in
// source order.
func PartitionByCompletion(tasks []models.Task) (pending, completed []models.Task) {
	pending = make([]models.Task, 0, len(tasks))
	completed = make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed() {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

// Project applies the filter and then the sort described by opts.
func Project(tasks []models.Task, opts ViewOptions) []models.Task {
	result := FilterByState(tasks, opts.State)
	switch opts.Sort {
	case SortModeDeadline:
		result = SortByDeadline(result)
	case SortModePriority:
		priority := opts.PriorityState
		if priority == "" {
			priority = models.StateDoing
		}
		result = SortPriority(result, priority)
	}
	return result
}

// Positions maps each task ID to its index in tasks.
func Positions(tasks []models.Task) map[string]int {
	positions := make(map[string]int, len(tasks))
	for i, t := range tasks {
		positions[t.ID] = i
	}
	return positions
}
