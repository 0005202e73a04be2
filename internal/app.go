// Package internal provides the App struct that wires all components of the
// autopilot pipeline together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/valter-silva-au/autopilot/internal/approval"
	"github.com/valter-silva-au/autopilot/internal/cli"
	"github.com/valter-silva-au/autopilot/internal/config"
	"github.com/valter-silva-au/autopilot/internal/decision"
	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/intention"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/orchestrator"
	"github.com/valter-silva-au/autopilot/internal/permission"
	"github.com/valter-silva-au/autopilot/internal/pipeline"
	"github.com/valter-silva-au/autopilot/internal/store"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// App holds all service dependencies for the autopilot pipeline. Everything
// is constructed here and passed explicitly; there are no global singletons.
type App struct {
	BasePath string
	Config   *config.PipelineConfig

	// Persistence boundary.
	Facts  store.FactStore
	Mirror *store.Mirror

	// Identity/preferences boundary.
	Perms *permission.StaticProvider

	// Core pipeline.
	IDGen        idgen.Generator
	Engine       *intention.Engine
	Maker        *decision.Maker
	Approvals    *approval.Workflow
	Registry     *orchestrator.Registry
	Orchestrator *orchestrator.Orchestrator
	Pipeline     *pipeline.Pipeline

	// Observability.
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the autopilot pipeline.
// basePath is the directory holding .autopilotconfig, facts.yaml, and the
// event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	cfg, err := config.NewManager(basePath).Load()
	if err != nil {
		// Use defaults if config is missing or unreadable.
		cfg = config.Default()
	}
	app.Config = cfg

	// --- Persistence boundary ---
	facts, err := store.NewFileFactStore(basePath)
	if err != nil {
		// Non-fatal: fall back to a memory-only mirror target.
		facts = store.NewMemoryFactStore()
	}
	app.Facts = facts
	app.Mirror = store.NewMirror(facts)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".autopilot_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable the event trail if the log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.WebhookURL != "" {
		app.Notifier = observability.NewWebhookNotifier(cfg.WebhookURL)
	} else {
		app.Notifier = observability.NopNotifier{}
	}

	// --- Identity boundary ---
	app.Perms = permission.NewStaticProvider(models.PermissionLevel(cfg.DefaultPermission))

	// --- Core pipeline ---
	app.IDGen = idgen.NewUUIDGenerator()
	app.Engine = intention.NewEngine(app.IDGen, app.Mirror, app.EventLog,
		intention.WithTTL(cfg.IntentionTTL),
		intention.WithConfidenceFloor(cfg.ConfidenceFloor))
	app.Maker = decision.NewMaker(app.IDGen, app.Perms, app.Mirror, app.EventLog,
		decision.WithTTL(cfg.DecisionTTL))
	app.Approvals = approval.NewWorkflow(app.IDGen, app.Perms, app.Mirror, app.EventLog, app.Notifier,
		approval.WithSweepInterval(cfg.SweepInterval),
		approval.WithReminderWindow(cfg.ReminderWindow),
		approval.WithMaxBulkApprovals(cfg.MaxBulkApprovals),
		approval.WithApprovalTimeout(cfg.ApprovalTimeout))
	app.Registry = orchestrator.NewSimulatedRegistry()
	app.Orchestrator = orchestrator.NewOrchestrator(app.Registry, app.IDGen, app.EventLog)
	app.Pipeline = pipeline.New(app.Engine, app.Maker, app.Approvals, app.Orchestrator)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Engine = app.Engine
	cli.Maker = app.Maker
	cli.Approvals = app.Approvals
	cli.Orchestrator = app.Orchestrator
	cli.Pipeline = app.Pipeline
	cli.Perms = app.Perms
	cli.IDGen = app.IDGen
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle, after flushing pending mirror writes. Safe when EventLog is nil.
func (a *App) Close() error {
	a.Mirror.Wait()
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the autopilot data directory.
// It checks the AUTOPILOT_HOME env var, then walks up from the current
// directory looking for .autopilotconfig, then falls back to cwd.
func ResolveBasePath() string {
	if home := os.Getenv("AUTOPILOT_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".autopilotconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
