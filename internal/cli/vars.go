package cli

import (
	"github.com/valter-silva-au/mytasks/internal/core"
	"github.com/valter-silva-au/mytasks/internal/observability"
	"github.com/valter-silva-au/mytasks/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Store    core.TaskStore
	Themes   storage.ThemeStore

	// ViewDefaults holds the sort and priority state configured in
	// .mytasks.yaml. Its State is always nil.
	ViewDefaults core.ViewOptions
)

// Observability service instances. Both are nil when the event log is disabled.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)
