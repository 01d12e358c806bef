package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

// completeTaskRefs returns a completion function that lists task IDs with
// their titles, optionally skipping tasks in the given states.
func completeTaskRefs(excludeStates ...models.TaskState) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Store == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.TaskState]bool)
		for _, s := range excludeStates {
			exclude[s] = true
		}

		var ids []string
		for _, task := range Store.List() {
			if exclude[task.State] {
				continue
			}
			if toComplete == "" || strings.HasPrefix(task.ID, toComplete) {
				ids = append(ids, task.ID+"\t"+task.Title)
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeStates offers the short state names accepted by ParseTaskState.
func completeStates(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"todo\t" + string(models.StateNotDone),
		"doing\t" + string(models.StateDoing),
		"done\t" + string(models.StateDone),
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeSorts(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"deadline\tEarliest deadline first, undated last",
		"priority\tPriority state first",
	}, cobra.ShellCompDirectiveNoFileComp
}
