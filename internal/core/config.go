// Package core contains the business logic for mytasks: the task store, the
// view projections over it, task ID generation, and configuration.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

// ConfigFileName is the configuration file looked up in the data directory.
const ConfigFileName = ".mytasks.yaml"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// Sort modes accepted by view.sort and the list commands.
const (
	SortModeNone     = ""
	SortModeDeadline = "deadline"
	SortModePriority = "priority"
)

// ConfigurationManager loads and validates the mytasks configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .mytasks.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		Storage: models.StorageConfig{
			File:     "localstorage.yaml",
			TasksKey: "tasks",
			ThemeKey: "mantine-color-scheme",
		},
		TaskID: models.TaskIDConfig{
			Prefix:   "TASK",
			PadWidth: 5,
		},
		DefaultTheme: models.ThemeLight,
		View: models.ViewConfig{
			Sort:          SortModeNone,
			PriorityState: models.StateDoing,
		},
		Events: models.EventsConfig{
			Enabled: true,
			File:    ".mytasks_events.jsonl",
		},
	}
}

// LoadConfig reads .mytasks.yaml using Viper. A missing file yields defaults;
// a present file is validated before it is returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("storage.file", cfg.Storage.File)
	v.SetDefault("storage.tasks_key", cfg.Storage.TasksKey)
	v.SetDefault("storage.theme_key", cfg.Storage.ThemeKey)
	v.SetDefault("task_id.prefix", cfg.TaskID.Prefix)
	v.SetDefault("task_id.pad_width", cfg.TaskID.PadWidth)
	v.SetDefault("theme.default", string(cfg.DefaultTheme))
	v.SetDefault("view.sort", cfg.View.Sort)
	v.SetDefault("view.priority_state", string(cfg.View.PriorityState))
	v.SetDefault("events.enabled", cfg.Events.Enabled)
	v.SetDefault("events.file", cfg.Events.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.Storage.File = v.GetString("storage.file")
	cfg.Storage.TasksKey = v.GetString("storage.tasks_key")
	cfg.Storage.ThemeKey = v.GetString("storage.theme_key")
	cfg.TaskID.Prefix = v.GetString("task_id.prefix")
	cfg.TaskID.PadWidth = v.GetInt("task_id.pad_width")
	cfg.DefaultTheme = models.Theme(strings.ToLower(v.GetString("theme.default")))
	cfg.View.Sort = strings.ToLower(v.GetString("view.sort"))
	cfg.Events.Enabled = v.GetBool("events.enabled")
	cfg.Events.File = v.GetString("events.file")

	// The priority state accepts the CLI aliases as well as display values.
	if raw := v.GetString("view.priority_state"); raw != "" {
		state, err := models.ParseTaskState(raw)
		if err != nil {
			return nil, fmt.Errorf("reading %s: view.priority_state: %w", ConfigFileName, err)
		}
		cfg.View.PriorityState = state
	}

	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks a Config for invalid values and reports every problem
// found in a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Storage.File == "" {
		errs = append(errs, "storage.file must not be empty")
	}
	if cfg.Storage.TasksKey == "" {
		errs = append(errs, "storage.tasks_key must not be empty")
	}
	if cfg.Storage.ThemeKey == "" {
		errs = append(errs, "storage.theme_key must not be empty")
	}
	if cfg.Storage.TasksKey != "" && cfg.Storage.TasksKey == cfg.Storage.ThemeKey {
		errs = append(errs, fmt.Sprintf("storage.tasks_key and storage.theme_key must differ, both are %q", cfg.Storage.TasksKey))
	}

	if !validPrefixPattern.MatchString(cfg.TaskID.Prefix) {
		errs = append(errs, fmt.Sprintf(
			"task_id.prefix %q is invalid, must match [A-Z0-9]{1,10}",
			cfg.TaskID.Prefix,
		))
	}
	if cfg.TaskID.PadWidth < 0 || cfg.TaskID.PadWidth > 10 {
		errs = append(errs, fmt.Sprintf(
			"task_id.pad_width %d is invalid, must be between 0 and 10",
			cfg.TaskID.PadWidth,
		))
	}

	if !cfg.DefaultTheme.Valid() {
		errs = append(errs, fmt.Sprintf("theme.default %q is invalid, must be light or dark", cfg.DefaultTheme))
	}

	switch cfg.View.Sort {
	case SortModeNone, SortModeDeadline, SortModePriority:
	default:
		errs = append(errs, fmt.Sprintf("view.sort %q is invalid, must be empty, deadline or priority", cfg.View.Sort))
	}
	if !cfg.View.PriorityState.Valid() {
		errs = append(errs, fmt.Sprintf("view.priority_state %q is not a task state", cfg.View.PriorityState))
	}

	if cfg.Events.Enabled && cfg.Events.File == "" {
		errs = append(errs, "events.file must not be empty when events are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
