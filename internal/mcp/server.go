// Package mcp exposes the task store as MCP (Model Context Protocol) tools so
// assistants can read and edit the task list over stdio.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/mytasks/internal/core"
	"github.com/valter-silva-au/mytasks/internal/observability"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

// Server wraps the task store and serves it as MCP tools.
type Server struct {
	server      *gomcp.Server
	metricsCalc observability.MetricsCalculator
	defaults    core.ViewOptions

	// mu serializes store access; the SDK may run handlers concurrently.
	mu    sync.Mutex
	store core.TaskStore
}

// NewServer creates an MCP server over store. defaults supplies the sort and
// priority state used by list_tasks when the caller omits them. metricsCalc
// may be nil when the event log is disabled.
func NewServer(store core.TaskStore, metricsCalc observability.MetricsCalculator, defaults core.ViewOptions, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		metricsCalc: metricsCalc,
		defaults:    defaults,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "mytasks", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID        string `json:"id"`
	Position  int    `json:"position"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	State     string `json:"state"`
	Completed bool   `json:"completed"`
	Deadline  string `json:"deadline"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier (e.g. TASK-00042) or its 1-based position"`
}

type listTasksInput struct {
	State         string `json:"state,omitempty" jsonschema:"only return tasks in this state (Not done, Doing right now, Done)"`
	Sort          string `json:"sort,omitempty" jsonschema:"ordering: deadline or priority; stored order when empty"`
	PriorityState string `json:"priority_state,omitempty" jsonschema:"state moved first by the priority sort"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type createTaskInput struct {
	Title    string `json:"title" jsonschema:"task title, must not be empty"`
	Summary  string `json:"summary,omitempty" jsonschema:"free-text description"`
	State    string `json:"state,omitempty" jsonschema:"initial state, defaults to Not done"`
	Deadline string `json:"deadline,omitempty" jsonschema:"due date as YYYY-MM-DD"`
}

type updateTaskInput struct {
	TaskID   string  `json:"task_id" jsonschema:"the task identifier or its 1-based position"`
	Title    *string `json:"title,omitempty" jsonschema:"new title"`
	Summary  *string `json:"summary,omitempty" jsonschema:"new summary"`
	State    *string `json:"state,omitempty" jsonschema:"new state"`
	Deadline *string `json:"deadline,omitempty" jsonschema:"new deadline as YYYY-MM-DD, empty to clear"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated   int            `json:"tasks_created"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksReopened  int            `json:"tasks_reopened"`
	TasksUpdated   int            `json:"tasks_updated"`
	TasksDeleted   int            `json:"tasks_deleted"`
	StateChanges   map[string]int `json:"state_changes"`
	EventCount     int            `json:"event_count"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks, optionally filtered by state and sorted by deadline or priority.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a task by ID or 1-based position.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Append a new task. The title is required; state defaults to Not done.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task",
		Description: "Change any of a task's title, summary, state or deadline. Omitted fields are left as they are.",
	}, s.handleUpdateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between Done and Not done.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get task activity counts from the event log.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	opts := s.defaults
	if input.State != "" {
		state, err := models.ParseTaskState(input.State)
		if err != nil {
			return errorResult(err.Error()), listTasksOutput{}, nil
		}
		opts.State = &state
	}
	if input.Sort != "" {
		if input.Sort != core.SortModeDeadline && input.Sort != core.SortModePriority {
			return errorResult(fmt.Sprintf("invalid sort %q: must be deadline or priority", input.Sort)), listTasksOutput{}, nil
		}
		opts.Sort = input.Sort
	}
	if input.PriorityState != "" {
		state, err := models.ParseTaskState(input.PriorityState)
		if err != nil {
			return errorResult(err.Error()), listTasksOutput{}, nil
		}
		opts.PriorityState = state
	}

	s.mu.Lock()
	all := s.store.List()
	s.mu.Unlock()

	positions := core.Positions(all)
	tasks := core.Project(all, opts)
	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t, positions[t.ID])
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.resolve(input.TaskID)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, s.output(task), nil
}

func (s *Server) handleCreateTask(_ context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	in := core.TaskInput{Title: input.Title, Summary: input.Summary, Deadline: input.Deadline}
	if input.State != "" {
		state, err := models.ParseTaskState(input.State)
		if err != nil {
			return errorResult(err.Error()), taskOutput{}, nil
		}
		in.State = state
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.store.Create(in)
	if err != nil {
		return errorResult(fmt.Sprintf("creating task: %s", err)), taskOutput{}, nil
	}
	return nil, s.output(task), nil
}

func (s *Server) handleUpdateTask(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	patch := core.TaskPatch{Title: input.Title, Summary: input.Summary, Deadline: input.Deadline}
	if input.State != nil {
		state, err := models.ParseTaskState(*input.State)
		if err != nil {
			return errorResult(err.Error()), taskOutput{}, nil
		}
		patch.State = &state
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.resolve(input.TaskID)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	task, err := s.store.Update(current.ID, patch)
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s: %s", current.ID, err)), taskOutput{}, nil
	}
	return nil, s.output(task), nil
}

func (s *Server) handleDeleteTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, messageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.resolve(input.TaskID)
	if err != nil {
		return errorResult(err.Error()), messageOutput{}, nil
	}
	if err := s.store.Delete(task.ID); err != nil {
		return errorResult(fmt.Sprintf("deleting task %s: %s", task.ID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("task %s deleted", task.ID)}, nil
}

func (s *Server) handleToggleTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.resolve(input.TaskID)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	task, err := s.store.ToggleComplete(current.ID)
	if err != nil {
		return errorResult(fmt.Sprintf("toggling task %s: %s", current.ID, err)), taskOutput{}, nil
	}
	return nil, s.output(task), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	since, err := observability.ParseSince(input.Since, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:   metrics.TasksCreated,
		TasksCompleted: metrics.TasksCompleted,
		TasksReopened:  metrics.TasksReopened,
		TasksUpdated:   metrics.TasksUpdated,
		TasksDeleted:   metrics.TasksDeleted,
		StateChanges:   metrics.StateChanges,
		EventCount:     metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

// --- Helpers ---

// resolve must be called with s.mu held.
func (s *Server) resolve(ref string) (models.Task, error) {
	if ref == "" {
		return models.Task{}, fmt.Errorf("task_id is required")
	}
	id, err := core.ResolveRef(s.store, ref)
	if err != nil {
		return models.Task{}, err
	}
	return s.store.Get(id)
}

// output must be called with s.mu held.
func (s *Server) output(t models.Task) taskOutput {
	return taskToOutput(t, core.Positions(s.store.List())[t.ID])
}

func taskToOutput(t models.Task, index int) taskOutput {
	return taskOutput{
		ID:        t.ID,
		Position:  index + 1,
		Title:     t.Title,
		Summary:   t.Summary,
		State:     string(t.State),
		Completed: t.Completed(),
		Deadline:  t.Deadline,
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{StateChanges: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
