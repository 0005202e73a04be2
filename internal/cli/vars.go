package cli

import (
	"github.com/valter-silva-au/autopilot/internal/approval"
	"github.com/valter-silva-au/autopilot/internal/config"
	"github.com/valter-silva-au/autopilot/internal/decision"
	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/intention"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/orchestrator"
	"github.com/valter-silva-au/autopilot/internal/permission"
	"github.com/valter-silva-au/autopilot/internal/pipeline"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *config.PipelineConfig

	Engine       *intention.Engine
	Maker        *decision.Maker
	Approvals    *approval.Workflow
	Orchestrator *orchestrator.Orchestrator
	Pipeline     *pipeline.Pipeline
	Perms        *permission.StaticProvider
	IDGen        idgen.Generator

	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
