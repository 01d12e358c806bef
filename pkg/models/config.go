package models

// StorageConfig locates the key-value file and the keys used inside it.
type StorageConfig struct {
	File     string `yaml:"file" mapstructure:"file"`
	TasksKey string `yaml:"tasks_key" mapstructure:"tasks_key"`
	ThemeKey string `yaml:"theme_key" mapstructure:"theme_key"`
}

// TaskIDConfig controls generated task identifiers.
type TaskIDConfig struct {
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
	PadWidth int    `yaml:"pad_width" mapstructure:"pad_width"`
}

// ViewConfig holds the default projection used by list views.
type ViewConfig struct {
	Sort          string    `yaml:"sort" mapstructure:"sort"`
	PriorityState TaskState `yaml:"priority_state" mapstructure:"priority_state"`
}

// EventsConfig controls the JSONL event log.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	File    string `yaml:"file" mapstructure:"file"`
}

// Config holds all settings read from .mytasks.yaml via Viper.
type Config struct {
	Storage      StorageConfig `yaml:"storage" mapstructure:"storage"`
	TaskID       TaskIDConfig  `yaml:"task_id" mapstructure:"task_id"`
	DefaultTheme Theme         `yaml:"default_theme" mapstructure:"default_theme"`
	View         ViewConfig    `yaml:"view" mapstructure:"view"`
	Events       EventsConfig  `yaml:"events" mapstructure:"events"`
}
