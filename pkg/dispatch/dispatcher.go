package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"maestro-hq/maestro/pkg/analysis"
	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/session"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/synthesis"
	"maestro-hq/maestro/pkg/telemetry/metrics"
	"maestro-hq/maestro/pkg/validation"
)

// Error kinds the dispatcher itself produces, beyond the adapter kinds.
const (
	// KindQueuedRejected marks a task rejected because the provider's
	// queue was at capacity.
	KindQueuedRejected providers.ErrorKind = "queued_rejected"

	// KindUnavailable marks a task that never acquired a session slot
	// before the deadline.
	KindUnavailable providers.ErrorKind = "unavailable"
)

// acquirePollInterval is how often a waiting task re-checks the session
// registry for a free slot.
const acquirePollInterval = 50 * time.Millisecond

// Execution limits and defaults.
const (
	defaultQualityThreshold = 0.7
	defaultMaxRefinements   = 3
	defaultDeadline         = 60 * time.Second
	maxRefinementsCap       = 10
)

// Options configures a Dispatcher.
type Options struct {
	// Registry is the shared session registry
	Registry *session.Registry

	// Adapters maps each provider to its adapter
	Adapters map[providers.ID]providers.Adapter

	// Profiles supplies per-provider pacing and capacity settings
	Profiles map[providers.ID]providers.Profile

	// Shaper rewrites prompts before dispatch and during refinement
	Shaper *shaping.Shaper

	// Validator scores raw answers
	Validator *validation.Validator

	// Rules is the refinement rule table; DefaultRules when nil
	Rules []refinement.Rule

	// Analyzer post-processes completed responses
	Analyzer *analysis.Analyzer

	// Synthesizer fuses analyzed answers
	Synthesizer *synthesis.Synthesizer

	// Store persists execution records; NopStore when nil
	Store Store

	// Metrics receives dispatch observations; optional
	Metrics *metrics.Collector

	// QueueMultiplier scales each provider's queue over max_concurrent
	QueueMultiplier int
}

// Dispatcher fans one request out across providers and assembles the
// outcome. It is safe for concurrent use.
type Dispatcher struct {
	registry    *session.Registry
	adapters    map[providers.ID]providers.Adapter
	shaper      *shaping.Shaper
	validator   *validation.Validator
	rulesMu     sync.RWMutex
	rules       []refinement.Rule
	analyzer    *analysis.Analyzer
	synthesizer *synthesis.Synthesizer
	store       Store
	metrics     *metrics.Collector
	queue       *taskQueue
	pacer       *pacer
	logger      *slog.Logger
}

// New creates a dispatcher. Registry, Adapters, Profiles, Shaper, Validator,
// Analyzer and Synthesizer are required.
func New(opts Options) (*Dispatcher, error) {
	switch {
	case opts.Registry == nil:
		return nil, errors.New("dispatch: registry is required")
	case len(opts.Adapters) == 0:
		return nil, errors.New("dispatch: at least one adapter is required")
	case opts.Shaper == nil:
		return nil, errors.New("dispatch: shaper is required")
	case opts.Validator == nil:
		return nil, errors.New("dispatch: validator is required")
	case opts.Analyzer == nil:
		return nil, errors.New("dispatch: analyzer is required")
	case opts.Synthesizer == nil:
		return nil, errors.New("dispatch: synthesizer is required")
	}
	for id := range opts.Adapters {
		if _, ok := opts.Profiles[id]; !ok {
			return nil, fmt.Errorf("dispatch: no profile for provider %q", id)
		}
	}

	rules := opts.Rules
	if rules == nil {
		rules = refinement.DefaultRules()
	}
	store := opts.Store
	if store == nil {
		store = NopStore{}
	}

	return &Dispatcher{
		registry:    opts.Registry,
		adapters:    opts.Adapters,
		shaper:      opts.Shaper,
		validator:   opts.Validator,
		rules:       rules,
		analyzer:    opts.Analyzer,
		synthesizer: opts.Synthesizer,
		store:       store,
		metrics:     opts.Metrics,
		queue:       newTaskQueue(opts.Profiles, opts.QueueMultiplier),
		pacer:       newPacer(opts.Profiles),
		logger:      slog.Default().With("component", "dispatch"),
	}, nil
}

// SetRules replaces the refinement rule table for subsequent executions.
// In-flight executions keep the table they started with.
func (d *Dispatcher) SetRules(rules []refinement.Rule) {
	if rules == nil {
		rules = refinement.DefaultRules()
	}
	d.rulesMu.Lock()
	d.rules = rules
	d.rulesMu.Unlock()
	d.logger.Info("refinement rules replaced", "rules", len(rules))
}

// Execute runs one multi-provider execution end to end: availability
// filtering, prompt shaping, mode-scheduled refinement loops, analysis,
// synthesis and persistence. It always returns a record; per-provider
// failures are contained in the record's responses.
func (d *Dispatcher) Execute(ctx context.Context, req *Request) *ExecutionRecord {
	normalizeRequest(req)

	exec := &ExecutionRecord{
		ExecutionID:    uuid.NewString(),
		OriginalPrompt: req.Prompt,
		Mode:           req.Mode,
		Schema:         req.Schema,
		Format:         req.Format,
		Priority:       req.Priority,
		CreatedAt:      time.Now(),
		PerProvider:    make(map[providers.ID]*refinement.ResponseRecord),
	}

	ctx, cancel := context.WithTimeout(ctx, req.Deadline)
	defer cancel()

	targets := req.Providers
	if len(targets) == 0 {
		targets = d.allProviders()
	}
	targets = d.knownProviders(targets)
	available := d.registry.Available(targets)
	exec.Providers = available

	d.logger.Info("execution started",
		"execution_id", exec.ExecutionID,
		"mode", req.Mode,
		"requested", len(req.Providers),
		"available", len(available),
	)

	ruleStats, err := d.store.RuleStats(ctx)
	if err != nil {
		d.logger.Warn("rule stats unavailable, selecting by priority only", "error", err)
	}
	d.rulesMu.RLock()
	rules := refinement.NewRuleSet(d.rules, ruleStats)
	d.rulesMu.RUnlock()

	tasks := make([]task, 0, len(available))
	for _, id := range available {
		shaped := d.shaper.Shape(req.Prompt, id, req.Schema, req.Format, strategyFor(req.Format))
		tasks = append(tasks, task{
			provider: id,
			record: &refinement.RequestRecord{
				RequestID:        uuid.NewString(),
				Provider:         id,
				Prompt:           shaped.Text,
				Schema:           req.Schema,
				Format:           req.Format,
				QualityThreshold: req.QualityThreshold,
				MaxRefinements:   req.MaxRefinements,
				CreatedAt:        time.Now(),
			},
		})
	}

	results := newResultSet()
	switch req.Mode {
	case ModeSequential:
		d.runSequential(ctx, tasks, rules, results)
	case ModePriorityBased:
		d.runPriority(ctx, tasks, req.Priority, req.QualityThreshold, rules, results)
	case ModeLoadBalanced:
		d.runLoadBalanced(ctx, tasks, rules, results)
	default:
		d.runAll(ctx, tasks, rules, results)
	}

	d.collate(exec, tasks, results)
	d.synthesize(ctx, exec)
	d.persist(ctx, exec)

	exec.CompletedAt = time.Now()
	exec.ExecutionTime = exec.CompletedAt.Sub(exec.CreatedAt)

	if d.metrics != nil {
		status := "success"
		if exec.SuccessRate == 0 {
			status = "failed"
		}
		d.metrics.RecordExecution(string(exec.Mode), status, exec.ExecutionTime)
	}

	d.logger.Info("execution finished",
		"execution_id", exec.ExecutionID,
		"duration", exec.ExecutionTime,
		"success_rate", exec.SuccessRate,
	)
	return exec
}

// runTask runs one provider's refinement loop under the queue cap, the
// pacing window and a session slot. A panic inside the task is contained
// and surfaces as a failed response.
func (d *Dispatcher) runTask(ctx context.Context, t task, rules *refinement.RuleSet) (result *refinement.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panicked", "provider", t.provider, "panic", r)
			result = d.failedResult(t, providers.KindProviderInternal, fmt.Sprintf("task panic: %v", r))
		}
	}()

	if err := d.queue.enter(t.provider); err != nil {
		if d.metrics != nil {
			d.metrics.RecordQueueRejection(string(t.provider))
		}
		return d.failedResult(t, KindQueuedRejected, err.Error())
	}
	defer d.queue.leave(t.provider)

	token, err := d.acquire(ctx, t.provider)
	if err != nil {
		return d.failedResult(t, KindUnavailable, err.Error())
	}

	if err := d.pacer.wait(ctx, t.provider); err != nil {
		d.registry.Release(token, session.Outcome{})
		return d.failedResult(t, providers.KindTimeout, "execution deadline exceeded")
	}

	controller := refinement.NewController(d.adapters[t.provider], d.shaper, d.validator, rules)
	result = controller.Run(ctx, t.record)

	d.registry.Release(token, session.Outcome{
		Success:      result.Response.Status == refinement.StatusCompleted,
		ResponseTime: result.Response.ResponseTime,
	})

	if d.metrics != nil {
		status := "failed"
		if result.Response.Status == refinement.StatusCompleted {
			status = "completed"
		}
		d.metrics.RecordProviderRequest(string(t.provider), status, result.Response.ResponseTime)
		for _, attempt := range result.Attempts {
			d.metrics.RecordRefinement(string(t.provider), string(attempt.Trigger), attempt.Action)
		}
	}
	return result
}

// acquire polls the registry for a session slot until the context expires.
// Acquisition never blocks inside the registry itself.
func (d *Dispatcher) acquire(ctx context.Context, provider providers.ID) (*session.Token, error) {
	for {
		token, err := d.registry.Acquire(provider)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, session.ErrWouldBlock) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("no session slot before deadline: %w", ctx.Err())
		case <-time.After(acquirePollInterval):
		}
	}
}

// collate folds per-provider results into the execution record and computes
// the execution success rate.
func (d *Dispatcher) collate(exec *ExecutionRecord, tasks []task, results *resultSet) {
	completed := 0
	for _, t := range tasks {
		res, ok := results.results[t.provider]
		if !ok {
			res = d.failedResult(t, KindUnavailable, "task never scheduled")
		}
		exec.PerProvider[t.provider] = res.Response
		exec.Requests = append(exec.Requests, res.Request)
		exec.Attempts = append(exec.Attempts, res.Attempts...)
		if res.Response.Status == refinement.StatusCompleted {
			completed++
		}
	}
	if len(tasks) > 0 {
		exec.SuccessRate = float64(completed) / float64(len(tasks))
	}
}

// synthesize analyzes the completed responses and fuses them.
func (d *Dispatcher) synthesize(ctx context.Context, exec *ExecutionRecord) {
	answers := make([]*analysis.AnalyzedAnswer, 0, len(exec.PerProvider))
	for _, resp := range exec.PerProvider {
		if resp.Status != refinement.StatusCompleted {
			continue
		}
		answers = append(answers, d.analyzer.Analyze(ctx, resp))
	}

	start := time.Now()
	exec.Synthesis = d.synthesizer.Synthesize(ctx, exec.OriginalPrompt, answers)

	if d.metrics != nil && exec.Synthesis != nil {
		d.metrics.RecordSynthesis(string(exec.Synthesis.Strategy), len(exec.Synthesis.Contradictions), time.Since(start))
	}
}

// persist writes the execution and a load snapshot per attempted provider.
// Persistence failure is flagged on the record, never fatal.
func (d *Dispatcher) persist(ctx context.Context, exec *ExecutionRecord) {
	if err := d.store.SaveExecution(ctx, exec); err != nil {
		exec.PersistenceFailed = true
		d.logger.Error("failed to persist execution",
			"execution_id", exec.ExecutionID,
			"error", err,
		)
	}

	for _, id := range exec.Providers {
		metric, ok := d.registry.Metric(id, d.queue.length(id))
		if !ok {
			continue
		}
		if err := d.store.SaveLoadMetric(ctx, metric); err != nil {
			d.logger.Warn("failed to persist load metric", "provider", id, "error", err)
		}
	}
}

// failedResult builds a terminal failed result for a task the refinement
// controller never ran.
func (d *Dispatcher) failedResult(t task, kind providers.ErrorKind, message string) *refinement.Result {
	resp := &refinement.ResponseRecord{
		ResponseID:   uuid.NewString(),
		RequestID:    t.record.RequestID,
		Provider:     t.provider,
		Status:       refinement.StatusFailed,
		ErrorKind:    kind,
		ErrorMessage: message,
		Timestamp:    time.Now(),
	}
	return &refinement.Result{Request: t.record, Response: resp}
}

// allProviders returns every provider with an adapter, in stable order.
func (d *Dispatcher) allProviders() []providers.ID {
	ids := make([]providers.ID, 0, len(d.adapters))
	for id := range d.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// knownProviders drops requested providers that have no adapter.
func (d *Dispatcher) knownProviders(ids []providers.ID) []providers.ID {
	known := make([]providers.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := d.adapters[id]; ok {
			known = append(known, id)
		} else {
			d.logger.Warn("skipping unknown provider", "provider", id)
		}
	}
	return known
}

// strategyFor picks the shaping strategy matching the requested format.
func strategyFor(format validation.OutputFormat) shaping.Strategy {
	switch format {
	case validation.FormatJSON, validation.FormatXML:
		return shaping.StrategyStructureEnforcement
	case validation.FormatStructuredText:
		return shaping.StrategyPrecisionTargeting
	default:
		return shaping.StrategyClarityMaximization
	}
}

// normalizeRequest fills defaults and clamps bounds in place.
func normalizeRequest(req *Request) {
	if !req.Mode.Valid() {
		req.Mode = ModeParallel
	}
	// An unset format would pin format compliance at zero and make the
	// default threshold unreachable, so freeform requests score as markdown.
	if !req.Format.Valid() {
		req.Format = validation.FormatMarkdown
	}
	if req.Priority < 1 {
		req.Priority = 1
	}
	if req.Priority > 5 {
		req.Priority = 5
	}
	if req.QualityThreshold <= 0 || req.QualityThreshold > 1 {
		req.QualityThreshold = defaultQualityThreshold
	}
	if req.MaxRefinements < 1 {
		req.MaxRefinements = defaultMaxRefinements
	}
	if req.MaxRefinements > maxRefinementsCap {
		req.MaxRefinements = maxRefinementsCap
	}
	if req.Deadline <= 0 {
		req.Deadline = defaultDeadline
	}
}
