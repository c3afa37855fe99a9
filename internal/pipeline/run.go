// Package pipeline provides the high-level orchestration for one research
// analysis: plan, harvest, insights, assembly and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/harvest"
	"github.com/jonathan/research-analyzer/internal/insight"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/storage"
	"github.com/jonathan/research-analyzer/internal/types"
)

// Stage names used in progress events and errors.
const (
	StageValidate = "validate"
	StagePlan     = "plan"
	StageHarvest  = "harvest"
	StageInsights = "insights"
	StageAssemble = "assemble"
	StagePersist  = "persist"
)

// ErrInvalidRequest marks a request that failed validation.
var ErrInvalidRequest = errors.New("invalid research request")

// Error reports the stage at which an analysis was abandoned.
type Error struct {
	Stage string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis failed at %s: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ProgressEvent represents a progress update during an analysis
type ProgressEvent struct {
	Stage    string `json:"stage"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when analysis progress occurs. Harvest events
// may arrive from several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// Planner turns a request into a complete query plan.
type Planner interface {
	Plan(ctx context.Context, req types.ResearchRequest) types.QueryPlan
}

// Harvester gathers content for every category of a plan.
type Harvester interface {
	Harvest(ctx context.Context, plan types.QueryPlan, progress harvest.ProgressFunc) types.HarvestResult
}

// InsightExtractor runs the structured asks over the corpus.
type InsightExtractor interface {
	Extract(ctx context.Context, req types.ResearchRequest, corpus string) insight.Result
}

// Timeouts bounds each phase. Zero means no phase deadline.
type Timeouts struct {
	Plan     time.Duration
	Harvest  time.Duration
	Insights time.Duration
}

// TimeoutsFromConfig copies the configured phase deadlines.
func TimeoutsFromConfig(t config.TimeoutConfig) Timeouts {
	return Timeouts{Plan: t.Plan, Harvest: t.Harvest, Insights: t.Insights}
}

// Options holds the optional parts of an Analyzer.
type Options struct {
	Timeouts Timeouts
	// Sink receives every finished report. Nil disables persistence.
	Sink storage.Sink
}

// Analyzer runs analyses. It holds no per-run state and is safe for
// concurrent use.
type Analyzer struct {
	planner   Planner
	harvester Harvester
	insights  InsightExtractor
	opts      Options
	now       func() time.Time
}

// New creates an analyzer from its collaborators.
func New(p Planner, h Harvester, x InsightExtractor, opts Options) *Analyzer {
	return &Analyzer{planner: p, harvester: h, insights: x, opts: opts, now: time.Now}
}

// Run carries one analysis from request to report. Collaborator failures
// degrade into empty report fields; Run itself only fails on an invalid
// request or when ctx ends before the report is assembled.
func (a *Analyzer) Run(ctx context.Context, req types.ResearchRequest, onProgress ProgressCallback) (*types.AnalysisReport, error) {
	runID := uuid.New()
	emit := func(stage, category, message string, content any) {
		if onProgress != nil {
			onProgress(ProgressEvent{
				Stage:    stage,
				Category: category,
				Message:  message,
				RunID:    runID.String(),
				Content:  content,
			})
		}
	}
	log := logger.Log.WithField("run_id", runID.String())

	if err := req.Validate(); err != nil {
		return nil, &Error{Stage: StageValidate, Cause: fmt.Errorf("%w: %v", ErrInvalidRequest, err)}
	}
	log.WithFields(logrus.Fields{"domain": req.Domain, "project": req.Project}).Info("starting analysis")

	emit(StagePlan, "", "Planning search queries", nil)
	planCtx, cancel := phaseContext(ctx, a.opts.Timeouts.Plan)
	plan := a.planner.Plan(planCtx, req)
	cancel()
	if err := ctx.Err(); err != nil {
		return nil, &Error{Stage: StagePlan, Cause: err}
	}
	emit(StagePlan, "", fmt.Sprintf("Planned %d queries", countQueries(plan)), plan)

	emit(StageHarvest, "", "Harvesting sources", nil)
	harvestCtx, cancel := phaseContext(ctx, a.opts.Timeouts.Harvest)
	harvested := a.harvester.Harvest(harvestCtx, plan, func(c types.Category, items []types.HarvestedItem) {
		emit(StageHarvest, c.ResultKey(), fmt.Sprintf("Collected %d %s items", len(items), c.ResultKey()), nil)
	})
	cancel()
	if err := ctx.Err(); err != nil {
		return nil, &Error{Stage: StageHarvest, Cause: err}
	}

	corpus := FormatCorpus(harvested)

	emit(StageInsights, "", "Extracting insights", nil)
	insightCtx, cancel := phaseContext(ctx, a.opts.Timeouts.Insights)
	found := a.insights.Extract(insightCtx, req, corpus)
	cancel()
	if err := ctx.Err(); err != nil {
		return nil, &Error{Stage: StageInsights, Cause: err}
	}
	emit(StageInsights, "", fmt.Sprintf("Found %d triggers, %d competitors, %d pain points",
		len(found.EffectiveTriggers), len(found.Competitors), len(found.PainPoints)), nil)

	report := Assemble(runID, req, plan, harvested, found, a.now())
	emit(StageAssemble, "", fmt.Sprintf("Assembled report with %d resource links", len(report.ResourceLinks)), nil)

	if a.opts.Sink != nil {
		loc, err := a.opts.Sink.Save(ctx, report)
		if err != nil {
			log.Errorf("failed to persist report: %v", err)
		}
		if loc != "" {
			emit(StagePersist, "", "Saved report to "+loc, nil)
		}
	}

	log.WithField("links", len(report.ResourceLinks)).Info("analysis complete")
	return report, nil
}

// Plan runs only the planning phase.
func (a *Analyzer) Plan(ctx context.Context, req types.ResearchRequest) (types.QueryPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, &Error{Stage: StageValidate, Cause: fmt.Errorf("%w: %v", ErrInvalidRequest, err)}
	}
	planCtx, cancel := phaseContext(ctx, a.opts.Timeouts.Plan)
	defer cancel()
	plan := a.planner.Plan(planCtx, req)
	if err := ctx.Err(); err != nil {
		return nil, &Error{Stage: StagePlan, Cause: err}
	}
	return plan, nil
}

func phaseContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func countQueries(plan types.QueryPlan) int {
	n := 0
	for _, queries := range plan {
		n += len(queries)
	}
	return n
}
