package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

var (
	// ErrDraining is returned for submissions after shutdown has begun.
	ErrDraining = errors.New("workflow: service is draining")
	// ErrBusy is returned when the submission queue is full.
	ErrBusy = errors.New("workflow: submission queue full")
	// ErrNotTerminal is returned when a result is requested before the run ends.
	ErrNotTerminal = errors.New("workflow: run has not finished")
)

// ServiceConfig sizes the worker pool and bounds run duration.
type ServiceConfig struct {
	Workers    int
	QueueSize  int
	RunTimeout time.Duration
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 300 * time.Second
	}
	return c
}

// RunInfo is the externally visible summary of a run.
type RunInfo struct {
	ID            string            `json:"id"`
	Status        campaign.Status   `json:"status"`
	Progress      campaign.Progress `json:"progress"`
	QualityScore  int               `json:"quality_score"`
	RevisionCount int               `json:"revision_count"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type job struct {
	id    string
	state *campaign.State
	ctx   context.Context
}

// runHandle tracks a run between submission and completion. Progress is
// derived from interaction entries so readers never touch the scheduler's
// live state.
type runHandle struct {
	log    *campaign.InteractionLog
	cancel context.CancelFunc

	mu       sync.Mutex
	progress campaign.Progress
}

func (h *runHandle) observe(in campaign.Interaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch in.Action {
	case "start":
		h.progress.CurrentStep = in.Agent
		h.progress.CurrentAgent = in.Agent
	case "complete", "fallback":
		if h.progress.CompletedSteps < h.progress.TotalSteps {
			h.progress.CompletedSteps++
		}
	}
	h.progress.LastUpdate = in.Timestamp
}

func (h *runHandle) snapshot() campaign.Progress {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

// Service owns the run registry and the worker pool. Submissions queue;
// a fixed set of workers executes them; shutdown drains in-flight runs and
// rejects new ones.
type Service struct {
	store  Store
	sched  *Scheduler
	notify *Notifier
	logger *zap.Logger
	cfg    ServiceConfig

	baseCtx  context.Context
	baseStop context.CancelFunc
	queue    chan job
	wg       sync.WaitGroup

	mu       sync.RWMutex
	handles  map[string]*runHandle
	draining bool
}

func NewService(store Store, sched *Scheduler, notify *Notifier, cfg ServiceConfig, logger *zap.Logger) *Service {
	cfg = cfg.withDefaults()
	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		store:    store,
		sched:    sched,
		notify:   notify,
		logger:   logger,
		cfg:      cfg,
		baseCtx:  ctx,
		baseStop: stop,
		queue:    make(chan job, cfg.QueueSize),
		handles:  map[string]*runHandle{},
	}
}

// Start launches the worker pool.
func (s *Service) Start() {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Info("campaign workers started", zap.Int("workers", s.cfg.Workers))
}

// Stop rejects new submissions, closes the queue, and waits for in-flight
// runs to finish. Queued, unstarted runs still execute before workers exit.
// The queue is closed under s.mu so that a concurrent StartRun, which sends
// under the same lock, observes draining instead of a closed channel.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	close(s.queue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("campaign workers drained")
		return nil
	case <-ctx.Done():
		// Shutdown deadline hit: cancel everything still running.
		s.baseStop()
		<-done
		return ctx.Err()
	}
}

// StartRun submits a brief and returns the pending run. The pipeline
// executes asynchronously on the worker pool.
func (s *Service) StartRun(brief campaign.Brief) (RunInfo, error) {
	if err := brief.Validate(); err != nil {
		return RunInfo{}, err
	}

	id := uuid.NewString()
	state := campaign.NewState(id, brief)
	now := time.Now().UTC()
	record := RunRecord{
		ID:        id,
		Status:    campaign.StatusPending,
		Brief:     brief,
		CreatedAt: now,
		UpdatedAt: now,
	}

	runCtx, cancel := context.WithCancel(s.baseCtx)
	handle := &runHandle{
		log:      campaign.NewInteractionLog(),
		cancel:   cancel,
		progress: state.Progress,
	}

	// The record must exist before a worker can pick the job up, or the
	// worker's running-status write races with creation.
	s.store.CreateRun(record)

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		cancel()
		s.store.DeleteRun(id)
		return RunInfo{}, ErrDraining
	}
	select {
	case s.queue <- job{id: id, state: state, ctx: runCtx}:
		s.handles[id] = handle
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		cancel()
		s.store.DeleteRun(id)
		return RunInfo{}, ErrBusy
	}

	s.notify.RunEvent(record, "run.accepted", "")
	s.logger.Info("run accepted", zap.String("run_id", id), zap.String("client", brief.Client))
	return s.info(record, handle), nil
}

func (s *Service) worker(n int) {
	defer s.wg.Done()
	for j := range s.queue {
		s.execute(j)
	}
	s.logger.Debug("worker exiting", zap.Int("worker", n))
}

func (s *Service) execute(j job) {
	handle := s.handle(j.id)
	if handle == nil {
		return
	}
	record, err := s.store.GetRun(j.id)
	if err != nil {
		record = RunRecord{ID: j.id, Brief: j.state.Brief, CreatedAt: time.Now().UTC()}
	}

	if j.ctx.Err() != nil {
		// Canceled while still queued.
		s.finishRun(record, handle, campaign.StatusCanceled, j.ctx.Err(), j.state)
		handle.log.Close()
		return
	}

	record.Status = campaign.StatusRunning
	s.store.UpdateRun(record)
	s.notify.RunEvent(record, "run.started", "")

	// Mirror every interaction into the store and the webhook as it lands.
	_, events, unsubscribe := handle.log.Subscribe()
	var mirror sync.WaitGroup
	mirror.Add(1)
	go func() {
		defer mirror.Done()
		for in := range events {
			handle.observe(in)
			s.store.AppendInteraction(j.id, in)
			s.notify.StepEvent(j.id, in)
		}
	}()

	ctx, cancel := context.WithTimeout(j.ctx, s.cfg.RunTimeout)
	status, runErr := s.sched.Execute(ctx, j.state, handle.log)
	cancel()
	unsubscribe()
	mirror.Wait()

	s.finishRun(record, handle, status, runErr, j.state)
}

func (s *Service) finishRun(record RunRecord, handle *runHandle, status campaign.Status, runErr error, state *campaign.State) {
	record.Status = status
	record.State = state
	if runErr != nil {
		record.Error = runErr.Error()
	}
	s.store.UpdateRun(record)
	s.notify.RunEvent(record, "run."+string(status), record.Error)

	if runErr != nil {
		s.logger.Warn("run finished with error",
			zap.String("run_id", record.ID),
			zap.String("status", string(status)),
			zap.Error(runErr))
	}

	s.mu.Lock()
	delete(s.handles, record.ID)
	s.mu.Unlock()
}

func (s *Service) handle(id string) *runHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles[id]
}

func (s *Service) info(record RunRecord, handle *runHandle) RunInfo {
	info := RunInfo{
		ID:        record.ID,
		Status:    record.Status,
		Error:     record.Error,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if handle != nil {
		info.Progress = handle.snapshot()
	} else if record.State != nil {
		info.Progress = record.State.Progress
		info.QualityScore = record.State.QualityScore
		info.RevisionCount = record.State.RevisionCount
	}
	return info
}

// List returns summaries for every known run.
func (s *Service) List() []RunInfo {
	records := s.store.ListRuns()
	out := make([]RunInfo, 0, len(records))
	for _, r := range records {
		out = append(out, s.info(r, s.handle(r.ID)))
	}
	return out
}

// Status returns the current summary of a run.
func (s *Service) Status(id string) (RunInfo, error) {
	record, err := s.store.GetRun(id)
	if err != nil {
		return RunInfo{}, err
	}
	return s.info(record, s.handle(id)), nil
}

// Result returns the final state of a terminal run.
func (s *Service) Result(id string) (*campaign.State, error) {
	record, err := s.store.GetRun(id)
	if err != nil {
		return nil, err
	}
	if !record.Status.Terminal() || record.State == nil {
		return nil, ErrNotTerminal
	}
	return record.State, nil
}

// Cancel requests cancellation of a run. Terminal runs are untouched.
func (s *Service) Cancel(id string) error {
	record, err := s.store.GetRun(id)
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		return nil
	}
	if handle := s.handle(id); handle != nil {
		handle.cancel()
		s.logger.Info("run cancellation requested", zap.String("run_id", id))
		return nil
	}
	return fmt.Errorf("workflow: run %s is not active", id)
}

// Interactions returns the recorded interaction log of a run.
func (s *Service) Interactions(id string, limit int) ([]campaign.Interaction, error) {
	if handle := s.handle(id); handle != nil {
		if limit > 0 {
			return handle.log.Recent(limit), nil
		}
		return handle.log.All(), nil
	}
	if _, err := s.store.GetRun(id); err != nil {
		return nil, err
	}
	entries := s.store.ListInteractions(id)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Watch returns the interaction history plus a live channel for a run. For
// terminal runs the channel is already closed.
func (s *Service) Watch(id string) ([]campaign.Interaction, <-chan campaign.Interaction, func(), error) {
	if handle := s.handle(id); handle != nil {
		history, ch, cancel := handle.log.Subscribe()
		return history, ch, cancel, nil
	}
	if _, err := s.store.GetRun(id); err != nil {
		return nil, nil, nil, err
	}
	ch := make(chan campaign.Interaction)
	close(ch)
	return s.store.ListInteractions(id), ch, func() {}, nil
}

// AgentNames lists the pipeline agents in execution order, for status
// endpoints describing the pipeline.
func (s *Service) AgentNames() []string {
	var names []string
	for _, stage := range Pipeline() {
		names = append(names, stage.Agents...)
	}
	return names
}
