package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ronappleton/campaign-engine/internal/agent"
	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/quality"
)

// ErrBreakerOpen marks steps skipped because the circuit breaker tripped.
var ErrBreakerOpen = errors.New("workflow: circuit breaker open")

// Metrics receives scheduler measurements. The otel-backed implementation
// lives in internal/metrics; NopMetrics satisfies tests and one-shot runs.
type Metrics interface {
	StepCompleted(ctx context.Context, agentName string, degraded bool, elapsed time.Duration)
	QualityAssessed(ctx context.Context, score int, revision int)
	RunCompleted(ctx context.Context, status campaign.Status, elapsed time.Duration)
}

type NopMetrics struct{}

func (NopMetrics) StepCompleted(context.Context, string, bool, time.Duration) {}
func (NopMetrics) QualityAssessed(context.Context, int, int)                  {}
func (NopMetrics) RunCompleted(context.Context, campaign.Status, time.Duration) {}

// Policy carries the scheduler knobs. Zero values take documented defaults.
type Policy struct {
	StepTimeout  time.Duration
	MaxRevisions int
	MaxFailures  int
	MaxSteps     int
}

func (p Policy) withDefaults() Policy {
	if p.StepTimeout <= 0 {
		p.StepTimeout = 90 * time.Second
	}
	if p.MaxRevisions <= 0 {
		p.MaxRevisions = 3
	}
	if p.MaxFailures <= 0 {
		p.MaxFailures = 5
	}
	if p.MaxSteps <= 0 {
		p.MaxSteps = 64
	}
	return p
}

// Scheduler walks one run through the pipeline. It is the only writer of
// the run's State: agents return updates, the scheduler merges them, so the
// fan-out stage needs no locking around state.
type Scheduler struct {
	roster  *agent.Roster
	checker *quality.Checker
	policy  Policy
	metrics Metrics
	logger  *zap.Logger
}

func NewScheduler(roster *agent.Roster, checker *quality.Checker, policy Policy, m Metrics, logger *zap.Logger) *Scheduler {
	if m == nil {
		m = NopMetrics{}
	}
	return &Scheduler{
		roster:  roster,
		checker: checker,
		policy:  policy.withDefaults(),
		metrics: m,
		logger:  logger,
	}
}

type stepResult struct {
	update   campaign.Update
	degraded bool
}

// Execute runs the pipeline to a terminal status. The returned error is
// non-nil only for failed and canceled runs; degradation is a status, not
// an error.
func (s *Scheduler) Execute(ctx context.Context, st *campaign.State, log *campaign.InteractionLog) (campaign.Status, error) {
	stages := Pipeline()
	breaker := quality.NewBreaker(s.policy.MaxFailures)
	logger := s.logger.With(zap.String("run_id", st.RunID))

	var (
		steps       int
		degraded    bool
		htmlRetried bool
	)

	finish := func(status campaign.Status, err error) (campaign.Status, error) {
		st.ExecutionTime = time.Since(st.StartedAt)
		s.metrics.RunCompleted(ctx, status, st.ExecutionTime)
		log.Close()
		return status, err
	}

	for i := 0; i < len(stages); i++ {
		if ctx.Err() != nil {
			return finish(campaign.StatusCanceled, ctx.Err())
		}
		stage := stages[i]

		results := make([]stepResult, len(stage.Agents))
		if stage.Parallel() {
			g, gctx := errgroup.WithContext(ctx)
			var mu sync.Mutex
			for idx, name := range stage.Agents {
				g.Go(func() error {
					res, err := s.runStep(gctx, name, st, breaker, log)
					if err != nil {
						return err
					}
					mu.Lock()
					results[idx] = res
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				status := campaign.StatusFailed
				if errors.Is(err, context.Canceled) {
					status = campaign.StatusCanceled
				}
				return finish(status, err)
			}
		} else {
			res, err := s.runStep(ctx, stage.Agents[0], st, breaker, log)
			if err != nil {
				status := campaign.StatusFailed
				if errors.Is(err, context.Canceled) {
					status = campaign.StatusCanceled
				}
				return finish(status, err)
			}
			results[0] = res
		}

		// Merge after the join, in stage order.
		for _, res := range results {
			st.Apply(res.update)
			if res.degraded {
				degraded = true
			}
		}
		steps += len(stage.Agents)
		st.MarkStep(stage.Agents[len(stage.Agents)-1], steps)

		switch stage.Agents[0] {
		case agent.NameReview:
			if next, ok := s.reviewGate(ctx, st, steps, log, logger); ok {
				i = stageIndex(stages, next) - 1
			}
		case agent.NameHTMLValidator:
			if s.wantsWebsiteRetry(st, steps, htmlRetried) {
				htmlRetried = true
				log.Append(campaign.Interaction{
					Agent:   agent.NameHTMLValidator,
					Action:  "retry",
					Message: "website failed validation, regenerating once",
					Status:  campaign.InteractionError,
				})
				i = stageIndex(stages, agent.NameWebDeveloper) - 1
			}
		}
	}

	if ctx.Err() != nil {
		return finish(campaign.StatusCanceled, ctx.Err())
	}
	if degraded {
		logger.Warn("run completed with degradation",
			zap.Int("steps", steps), zap.Int("breaker_failures", breaker.Failures()))
		return finish(campaign.StatusDegraded, nil)
	}
	logger.Info("run completed", zap.Int("steps", steps), zap.Int("quality_score", st.QualityScore))
	return finish(campaign.StatusComplete, nil)
}

// runStep invokes one agent with the per-step timeout. An adapter error is
// not fatal: the agent's update already carries fallback content and the
// step is recorded as degraded. A non-nil error return means the run must
// stop (cancellation or agent panic).
func (s *Scheduler) runStep(ctx context.Context, name string, st *campaign.State, breaker *quality.Breaker, log *campaign.InteractionLog) (res stepResult, err error) {
	a, err := s.roster.Get(name)
	if err != nil {
		return stepResult{}, err
	}

	log.Append(campaign.Interaction{
		Agent:   name,
		Action:  "start",
		Message: "agent started",
		Status:  campaign.InteractionRunning,
	})

	if breaker.Open() {
		res = stepResult{update: a.Fallback(st, ErrBreakerOpen), degraded: true}
		log.Append(campaign.Interaction{
			Agent:   name,
			Action:  "fallback",
			Message: ErrBreakerOpen.Error(),
			Status:  campaign.InteractionError,
		})
		s.metrics.StepCompleted(ctx, name, true, 0)
		return res, nil
	}

	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, s.policy.StepTimeout)
	defer cancel()

	var (
		update   campaign.Update
		runErr   error
		panicked bool
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				runErr = fmt.Errorf("workflow: agent %s panicked: %v", name, r)
			}
		}()
		update, runErr = a.Run(sctx, st)
	}()
	elapsed := time.Since(start)

	if panicked {
		s.logger.Error("agent panic", zap.String("agent", name), zap.Error(runErr))
		log.Append(campaign.Interaction{
			Agent:   name,
			Action:  "panic",
			Message: runErr.Error(),
			Status:  campaign.InteractionError,
		})
		return stepResult{}, runErr
	}
	if ctx.Err() != nil {
		return stepResult{}, ctx.Err()
	}

	if runErr != nil {
		// Step timeout surfaces here too: the adapter aborts on sctx and
		// the agent hands back its fallback update.
		if breaker.RecordFailure() {
			s.logger.Warn("circuit breaker opened",
				zap.String("agent", name), zap.Int("failures", breaker.Failures()))
		}
		log.Append(campaign.Interaction{
			Agent:   name,
			Action:  "fallback",
			Message: runErr.Error(),
			Status:  campaign.InteractionError,
		})
		s.metrics.StepCompleted(ctx, name, true, elapsed)
		return stepResult{update: update, degraded: true}, nil
	}

	breaker.RecordSuccess()
	log.Append(campaign.Interaction{
		Agent:   name,
		Action:  "complete",
		Message: "agent completed",
		Status:  campaign.InteractionSuccess,
	})
	s.metrics.StepCompleted(ctx, name, false, elapsed)
	return stepResult{update: update}, nil
}

// reviewGate decides whether the run loops back for a revision cycle and,
// if so, to which agent. The revision budget, the step ceiling, and the
// significant-change check all bound the loop.
func (s *Scheduler) reviewGate(ctx context.Context, st *campaign.State, steps int, log *campaign.InteractionLog, logger *zap.Logger) (string, bool) {
	st.QualityScore = s.checker.Assess(st)
	s.metrics.QualityAssessed(ctx, st.QualityScore, st.RevisionCount)
	feedback := st.LastFeedback()

	// A passing score always proceeds. Reviewer sentiment is consulted only
	// once the score fails, so negative phrasing alone cannot trigger a
	// revision cycle.
	needsRevision := !s.checker.Passed(st.QualityScore) && quality.FeedbackRequestsRevision(feedback)
	if !needsRevision {
		log.Append(campaign.Interaction{
			Agent:   agent.NameReview,
			Action:  "gate",
			Message: fmt.Sprintf("quality score %d, proceeding", st.QualityScore),
			Status:  campaign.InteractionSuccess,
		})
		return "", false
	}
	if st.RevisionCount >= s.policy.MaxRevisions {
		log.Append(campaign.Interaction{
			Agent:   agent.NameReview,
			Action:  "gate",
			Message: fmt.Sprintf("revision budget exhausted at score %d, proceeding", st.QualityScore),
			Status:  campaign.InteractionSuccess,
		})
		return "", false
	}
	if steps >= s.policy.MaxSteps {
		logger.Warn("step ceiling reached, forcing forward progress", zap.Int("steps", steps))
		return "", false
	}
	if st.RevisionCount > 0 && !s.checker.HasSignificantChanges(st) {
		log.Append(campaign.Interaction{
			Agent:   agent.NameReview,
			Action:  "gate",
			Message: "no significant changes since last revision, proceeding",
			Status:  campaign.InteractionSuccess,
		})
		return "", false
	}

	st.RevisionCount++
	st.SnapshotArtifacts()
	target := revisionTarget(feedback)
	log.Append(campaign.Interaction{
		Agent:   agent.NameReview,
		Action:  "revision",
		Message: fmt.Sprintf("score %d below threshold %d, revision %d routed to %s", st.QualityScore, s.checker.Threshold(), st.RevisionCount, target),
		Status:  campaign.InteractionRunning,
	})
	logger.Info("revision cycle",
		zap.Int("revision", st.RevisionCount),
		zap.Int("quality_score", st.QualityScore),
		zap.String("target", target))
	return target, true
}

func (s *Scheduler) wantsWebsiteRetry(st *campaign.State, steps int, alreadyRetried bool) bool {
	if alreadyRetried || steps >= s.policy.MaxSteps {
		return false
	}
	report, ok := st.Artifacts[campaign.ArtifactHTMLValidation].(campaign.ValidationReport)
	if !ok {
		return false
	}
	return !report.Valid
}
