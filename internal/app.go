// Package internal provides the App struct that wires the mytasks components
// together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/valter-silva-au/mytasks/internal/cli"
	"github.com/valter-silva-au/mytasks/internal/core"
	"github.com/valter-silva-au/mytasks/internal/observability"
	"github.com/valter-silva-au/mytasks/internal/storage"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

// App holds all service dependencies for mytasks.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Storage layer
	KV       storage.KeyValueStore
	TaskRepo storage.TaskRepository
	Themes   storage.ThemeStore

	// Core services
	IDGen core.TaskIDGenerator
	Store core.TaskStore

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of mytasks. basePath is the data
// directory holding .mytasks.yaml and the key-value file.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		// Use defaults if the config file is invalid.
		cfg = core.DefaultConfig()
	}
	app.Config = cfg

	// --- Storage layer ---
	app.KV = storage.NewFileKeyValueStore(filepath.Join(basePath, cfg.Storage.File))
	app.TaskRepo = storage.NewTaskRepository(app.KV, cfg.Storage.TasksKey)
	app.Themes = storage.NewThemeStore(app.KV, cfg.Storage.ThemeKey, cfg.DefaultTheme)

	// --- Observability ---
	if cfg.Events.Enabled {
		app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, cfg.Events.File))
		if err != nil {
			// Non-fatal: disable observability if log can't be created.
			app.EventLog = nil
		}
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}

	// --- Core services ---
	app.IDGen = core.NewTaskIDGenerator(app.KV, cfg.TaskID.Prefix, cfg.TaskID.PadWidth)
	app.Store = core.NewTaskStore(app.TaskRepo, app.IDGen, evtAdapter)
	app.Store.Load()

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Store = app.Store
	cli.Themes = app.Themes
	cli.ViewDefaults = core.ViewOptions{
		Sort:          cfg.View.Sort,
		PriorityState: cfg.View.PriorityState,
	}
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the mytasks data directory. MYTASKS_HOME wins,
// then the nearest ancestor of the working directory holding .mytasks.yaml,
// then <user config dir>/mytasks.
func ResolveBasePath() string {
	if home := os.Getenv("MYTASKS_HOME"); home != "" {
		return home
	}

	if dir, err := os.Getwd(); err == nil {
		for {
			if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if cfgDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(cfgDir, "mytasks")
	}
	return "."
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.NewEvent(eventType, data))
}
