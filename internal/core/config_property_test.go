package core

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/mytasks/pkg/models"
	"pgregory.net/rapid"
)

type configValues struct {
	Prefix        string
	PadWidth      int
	Theme         models.Theme
	Sort          string
	PriorityState models.TaskState
	EventsEnabled bool
}

func genConfigValues(t *rapid.T) configValues {
	return configValues{
		Prefix:        rapid.StringMatching(`[A-Z0-9]{1,10}`).Draw(t, "prefix"),
		PadWidth:      rapid.IntRange(0, 10).Draw(t, "padWidth"),
		Theme:         rapid.SampledFrom([]models.Theme{models.ThemeLight, models.ThemeDark}).Draw(t, "theme"),
		Sort:          rapid.SampledFrom([]string{SortModeNone, SortModeDeadline, SortModePriority}).Draw(t, "sort"),
		PriorityState: rapid.SampledFrom(models.AllStates).Draw(t, "priorityState"),
		EventsEnabled: rapid.Bool().Draw(t, "eventsEnabled"),
	}
}

func mustWriteConfigYAML(t *testing.T, dir string, v configValues) {
	t.Helper()
	content := fmt.Sprintf(`task_id:
  prefix: "%s"
  pad_width: %d
theme:
  default: %s
view:
  sort: "%s"
  priority_state: "%s"
events:
  enabled: %v
`, v.Prefix, v.PadWidth, v.Theme, v.Sort, v.PriorityState, v.EventsEnabled)

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", ConfigFileName, err)
	}
}

// Any valid file loads back the values it holds, with defaults for the rest.
func TestProperty_ConfigRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := genConfigValues(rt)
		dir := t.TempDir()
		mustWriteConfigYAML(t, dir, v)

		cfg, err := NewConfigurationManager(dir).LoadConfig()
		if err != nil {
			rt.Fatalf("LoadConfig failed: %v", err)
		}

		if cfg.TaskID.Prefix != v.Prefix || cfg.TaskID.PadWidth != v.PadWidth {
			rt.Errorf("task_id: got %+v, want %s/%d", cfg.TaskID, v.Prefix, v.PadWidth)
		}
		if cfg.DefaultTheme != v.Theme {
			rt.Errorf("theme: got %q, want %q", cfg.DefaultTheme, v.Theme)
		}
		if cfg.View.Sort != v.Sort || cfg.View.PriorityState != v.PriorityState {
			rt.Errorf("view: got %+v, want %s/%s", cfg.View, v.Sort, v.PriorityState)
		}
		if cfg.Events.Enabled != v.EventsEnabled {
			rt.Errorf("events.enabled: got %v, want %v", cfg.Events.Enabled, v.EventsEnabled)
		}

		defaults := DefaultConfig()
		if cfg.Storage != defaults.Storage {
			rt.Errorf("storage: got %+v, want defaults %+v", cfg.Storage, defaults.Storage)
		}
	})
}

// ValidateConfig rejects every config carrying one invalid field.
func TestProperty_ConfigValidationRejectsInvalid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cm := NewConfigurationManager(t.TempDir())
		cfg := DefaultConfig()

		switch rapid.IntRange(0, 5).Draw(rt, "invalidField") {
		case 0:
			cfg.TaskID.Prefix = rapid.StringMatching(`[a-z]{1,10}|[A-Z]{11,15}|`).Draw(rt, "prefix")
		case 1:
			cfg.TaskID.PadWidth = rapid.SampledFrom([]int{-5, -1, 11, 42}).Draw(rt, "padWidth")
		case 2:
			cfg.DefaultTheme = models.Theme(rapid.SampledFrom([]string{"", "solarized", "Dark"}).Draw(rt, "theme"))
		case 3:
			cfg.View.Sort = rapid.SampledFrom([]string{"title", "Deadline", "random"}).Draw(rt, "sort")
		case 4:
			cfg.View.PriorityState = models.TaskState(rapid.SampledFrom([]string{"blocked", "done", ""}).Draw(rt, "priorityState"))
		case 5:
			cfg.Storage.ThemeKey = cfg.Storage.TasksKey
		}

		if err := cm.ValidateConfig(cfg); err == nil {
			rt.Fatalf("expected validation error for %+v", cfg)
		}
	})
}
