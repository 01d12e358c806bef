package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

var themeCmd = &cobra.Command{
	Use:   "theme [toggle|light|dark]",
	Short: "Show or change the color scheme",
	Long: `Without arguments, print the saved color scheme. "toggle" switches between
light and dark; "light" or "dark" sets it directly. The scheme is used by
"mytasks tui" and is kept separately from the tasks.`,
	ValidArgs: []string{"toggle", "light", "dark"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Themes == nil {
			return fmt.Errorf("theme store not initialized")
		}

		if len(args) == 0 {
			fmt.Println(Themes.Get())
			return nil
		}

		var theme models.Theme
		switch args[0] {
		case "toggle":
			toggled, err := Themes.Toggle()
			if err != nil {
				return fmt.Errorf("toggling theme: %w", err)
			}
			theme = toggled
		default:
			theme = models.Theme(args[0])
			if err := Themes.Set(theme); err != nil {
				return err
			}
		}

		fmt.Printf("Theme set to %s\n", theme)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
