package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/mytasks/internal/core"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

var errStoreNotInitialized = fmt.Errorf("task store not initialized")

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the end of the list",
	Long: `Add a task with the given title. Words after "add" are joined into the
title, so quoting is optional.

The state defaults to "Not done". Deadlines are written as YYYY-MM-DD.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}

		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title is required")
		}

		summary, _ := cmd.Flags().GetString("summary")
		stateFlag, _ := cmd.Flags().GetString("state")
		deadline, _ := cmd.Flags().GetString("deadline")

		in := core.TaskInput{Title: title, Summary: summary, Deadline: deadline}
		if stateFlag != "" {
			state, err := models.ParseTaskState(stateFlag)
			if err != nil {
				return err
			}
			in.State = state
		}

		task, err := Store.Create(in)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		fmt.Printf("Added task %s\n", task.ID)
		fmt.Printf("  Title:    %s\n", task.Title)
		fmt.Printf("  State:    %s\n", task.State)
		fmt.Printf("  Deadline: %s\n", task.DisplayDeadline())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show pending and completed tasks",
	Long: `Show the task list. Without flags, tasks are split into a "Pending Tasks"
and a "Completed Tasks" section in stored order.

--state filters to a single state; --sort orders by deadline (undated last)
or moves the --priority-state tasks first. The number in front of each task is
its position in the stored list and can be used wherever a task is expected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}

		opts, err := viewOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		tasks := Store.List()
		positions := core.Positions(tasks)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(core.Project(tasks, opts), "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if opts.State == nil && opts.Sort == core.SortModeNone {
			pending, completed := core.PartitionByCompletion(tasks)
			printTaskSection("Pending Tasks", pending, positions, "No pending tasks")
			fmt.Println()
			printTaskSection("Completed Tasks", completed, positions, "No completed tasks")
			return nil
		}

		printTaskSection(viewHeading(opts), core.Project(tasks, opts), positions, "No matching tasks")
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <task>",
	Short: "Change a task's title, summary, state or deadline",
	Long: `Change the fields given as flags and leave the others alone.

<task> is a task ID (TASK-00001) or its position in "mytasks list".
Pass an empty --deadline or --summary to clear it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}

		var patch core.TaskPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			title, _ := flags.GetString("title")
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("title is required")
			}
			patch.Title = &title
		}
		if flags.Changed("summary") {
			summary, _ := flags.GetString("summary")
			patch.Summary = &summary
		}
		if flags.Changed("state") {
			raw, _ := flags.GetString("state")
			state, err := models.ParseTaskState(raw)
			if err != nil {
				return err
			}
			patch.State = &state
		}
		if flags.Changed("deadline") {
			deadline, _ := flags.GetString("deadline")
			patch.Deadline = &deadline
		}
		if patch == (core.TaskPatch{}) {
			return fmt.Errorf("nothing to change: pass at least one of --title, --summary, --state, --deadline")
		}

		id, err := core.ResolveRef(Store, args[0])
		if err != nil {
			return err
		}
		task, err := Store.Update(id, patch)
		if err != nil {
			return fmt.Errorf("editing task %s: %w", id, err)
		}

		fmt.Printf("Updated task %s\n", task.ID)
		printTask(task)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <task> <state>",
	Short: "Set a task's state",
	Long: `Set the state of a task. Accepted values are "Not done", "Doing right now"
and "Done", or the short forms todo, doing and done.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}

		state, err := models.ParseTaskState(args[1])
		if err != nil {
			return err
		}
		id, err := core.ResolveRef(Store, args[0])
		if err != nil {
			return err
		}
		task, err := Store.SetState(id, state)
		if err != nil {
			return fmt.Errorf("setting state of task %s: %w", id, err)
		}

		fmt.Printf("Task %s is now %s\n", task.ID, task.State)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <task>",
	Short: "Mark a task done, or a done task not done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}

		id, err := core.ResolveRef(Store, args[0])
		if err != nil {
			return err
		}
		task, err := Store.ToggleComplete(id)
		if err != nil {
			return fmt.Errorf("toggling task %s: %w", id, err)
		}

		fmt.Printf("Task %s is now %s\n", task.ID, task.State)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <task>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}

		id, err := core.ResolveRef(Store, args[0])
		if err != nil {
			return err
		}
		task, err := Store.Get(id)
		if err != nil {
			return err
		}
		if err := Store.Delete(id); err != nil {
			return fmt.Errorf("deleting task %s: %w", id, err)
		}

		fmt.Printf("Deleted task %s (%s)\n", task.ID, task.Title)
		return nil
	},
}

// viewOptionsFromFlags starts from ViewDefaults and applies --state, --sort
// and --priority-state.
func viewOptionsFromFlags(cmd *cobra.Command) (core.ViewOptions, error) {
	opts := ViewDefaults
	opts.State = nil
	flags := cmd.Flags()

	if raw, _ := flags.GetString("state"); raw != "" {
		state, err := models.ParseTaskState(raw)
		if err != nil {
			return core.ViewOptions{}, err
		}
		opts.State = &state
	}
	if flags.Changed("sort") {
		sortFlag, _ := flags.GetString("sort")
		switch sortFlag {
		case core.SortModeNone, core.SortModeDeadline, core.SortModePriority:
			opts.Sort = sortFlag
		default:
			return core.ViewOptions{}, fmt.Errorf("invalid --sort %q: must be deadline or priority", sortFlag)
		}
	}
	if raw, _ := flags.GetString("priority-state"); raw != "" {
		state, err := models.ParseTaskState(raw)
		if err != nil {
			return core.ViewOptions{}, err
		}
		opts.PriorityState = state
	}
	return opts, nil
}

func viewHeading(opts core.ViewOptions) string {
	heading := "Tasks"
	if opts.State != nil {
		heading = fmt.Sprintf("Tasks: %s", *opts.State)
	}
	switch opts.Sort {
	case core.SortModeDeadline:
		heading += " (by deadline)"
	case core.SortModePriority:
		priority := opts.PriorityState
		if priority == "" {
			priority = models.StateDoing
		}
		heading += fmt.Sprintf(" (%s first)", priority)
	}
	return heading
}

func printTaskSection(heading string, tasks []models.Task, positions map[string]int, empty string) {
	fmt.Println(heading)
	fmt.Println(strings.Repeat("=", len(heading)))
	if len(tasks) == 0 {
		fmt.Printf("  %s\n", empty)
		return
	}
	for _, task := range tasks {
		fmt.Printf("%3d. ", positions[task.ID]+1)
		printTask(task)
	}
}

func printTask(task models.Task) {
	fmt.Printf("[%s] %s\n", task.ID, task.Title)
	fmt.Printf("     State:    %s\n", task.State)
	fmt.Printf("     Deadline: %s\n", task.DisplayDeadline())
	fmt.Printf("     %s\n", task.DisplaySummary())
}

func init() {
	addCmd.Flags().String("summary", "", "Free-text description")
	addCmd.Flags().String("state", "", `Initial state: todo, doing or done (default "Not done")`)
	addCmd.Flags().String("deadline", "", "Due date (YYYY-MM-DD)")
	_ = addCmd.RegisterFlagCompletionFunc("state", completeStates)

	listCmd.Flags().String("state", "", "Only show tasks in this state")
	listCmd.Flags().String("sort", "", "Order by deadline or priority")
	listCmd.Flags().String("priority-state", "", `State moved first by --sort priority (default "Doing right now")`)
	listCmd.Flags().Bool("json", false, "Output tasks as JSON")
	_ = listCmd.RegisterFlagCompletionFunc("state", completeStates)
	_ = listCmd.RegisterFlagCompletionFunc("priority-state", completeStates)
	_ = listCmd.RegisterFlagCompletionFunc("sort", completeSorts)

	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("summary", "", "New summary")
	editCmd.Flags().String("state", "", "New state")
	editCmd.Flags().String("deadline", "", "New deadline (YYYY-MM-DD)")
	_ = editCmd.RegisterFlagCompletionFunc("state", completeStates)
	editCmd.ValidArgsFunction = completeTaskRefs()

	stateCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return completeStates(cmd, args, toComplete)
		}
		return completeTaskRefs()(cmd, args, toComplete)
	}
	toggleCmd.ValidArgsFunction = completeTaskRefs()
	rmCmd.ValidArgsFunction = completeTaskRefs()

	rootCmd.AddCommand(addCmd, listCmd, editCmd, stateCmd, toggleCmd, rmCmd)
}
