package workflow

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ronappleton/campaign-engine/internal/agent"
	"github.com/ronappleton/campaign-engine/internal/config"
	"github.com/ronappleton/campaign-engine/internal/image"
	"github.com/ronappleton/campaign-engine/internal/llm"
	"github.com/ronappleton/campaign-engine/internal/quality"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewLLMClient,
			NewImageClient,
			NewAgentRoster,
			NewQualityChecker,
			NewRunStore,
			NewRunNotifier,
			NewRunScheduler,
			NewRunService,
		),
		fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					svc.Start()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return svc.Stop(ctx)
				},
			})
		}),
	)
}

func NewLLMClient(cfg config.Config, logger *zap.Logger) *llm.Client {
	return llm.New(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		Timeout:        config.Duration(cfg.LLM.Timeout, 60*time.Second),
		MaxAttempts:    cfg.LLM.MaxAttempts,
		InitialBackoff: config.Duration(cfg.LLM.InitialBackoff, 2*time.Second),
	}, logger)
}

func NewImageClient(cfg config.Config, logger *zap.Logger) *image.Client {
	return image.New(image.Config{
		BaseURL:        cfg.Image.BaseURL,
		APIKey:         cfg.Image.APIKey,
		Model:          cfg.Image.Model,
		Size:           cfg.Image.Size,
		MaxPromptChars: cfg.Image.MaxPromptChars,
		Timeout:        config.Duration(cfg.Image.Timeout, 60*time.Second),
		MaxAttempts:    cfg.Image.MaxAttempts,
		InitialBackoff: config.Duration(cfg.Image.InitialBackoff, 2*time.Second),
	}, logger)
}

func NewAgentRoster(llmClient *llm.Client, imageClient *image.Client) *agent.Roster {
	return agent.NewRoster(llmClient, imageClient)
}

func NewQualityChecker(cfg config.Config) *quality.Checker {
	return quality.NewChecker(quality.DefaultWeights(), cfg.Workflow.QualityThreshold)
}

func NewRunStore(cfg config.Config, logger *zap.Logger) (Store, error) {
	if cfg.Storage.Driver == "postgres" {
		store, err := NewPGStore(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("postgres run store enabled")
		return store, nil
	}
	return NewMemoryStore(), nil
}

func NewRunNotifier(cfg config.Config) *Notifier {
	return NewNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout)
}

func NewRunScheduler(roster *agent.Roster, checker *quality.Checker, cfg config.Config, m Metrics, logger *zap.Logger) *Scheduler {
	return NewScheduler(roster, checker, Policy{
		StepTimeout:  config.Duration(cfg.Workflow.StepTimeout, 90*time.Second),
		MaxRevisions: cfg.Workflow.MaxRevisions,
		MaxFailures:  cfg.Workflow.MaxFailures,
		MaxSteps:     cfg.Workflow.MaxSteps,
	}, m, logger)
}

func NewRunService(store Store, sched *Scheduler, notify *Notifier, cfg config.Config, logger *zap.Logger) *Service {
	return NewService(store, sched, notify, ServiceConfig{
		Workers:    cfg.Workflow.Workers,
		QueueSize:  cfg.Workflow.QueueSize,
		RunTimeout: config.Duration(cfg.Workflow.RunTimeout, 300*time.Second),
	}, logger)
}
