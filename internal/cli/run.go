package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/config"
	"github.com/ronappleton/campaign-engine/internal/logging"
	"github.com/ronappleton/campaign-engine/internal/workflow"
)

// NewRunCommand executes a single campaign brief from a file and prints
// the final state as JSON. Useful for local iteration without the server.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <brief.json>",
		Short: "Execute one campaign brief and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runOnce(configPath, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("config", "config.yaml", "Path to config file")
	return cmd
}

func runOnce(configPath, briefPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New("campaign-engine")
	if err != nil {
		return err
	}
	defer logger.Sync()

	data, err := os.ReadFile(briefPath)
	if err != nil {
		return err
	}
	var brief campaign.Brief
	if strings.HasSuffix(briefPath, ".yaml") || strings.HasSuffix(briefPath, ".yml") {
		if err := yaml.Unmarshal(data, &brief); err != nil {
			return fmt.Errorf("invalid brief: %w", err)
		}
		if err := brief.Validate(); err != nil {
			return fmt.Errorf("invalid brief: %w", err)
		}
	} else {
		brief, err = campaign.ParseBrief(data)
		if err != nil {
			return fmt.Errorf("invalid brief: %w", err)
		}
	}

	sched := workflow.NewRunScheduler(
		workflow.NewAgentRoster(workflow.NewLLMClient(cfg, logger), workflow.NewImageClient(cfg, logger)),
		workflow.NewQualityChecker(cfg),
		cfg,
		workflow.NopMetrics{},
		logger,
	)

	state := campaign.NewState(uuid.NewString(), brief)
	log := campaign.NewInteractionLog()
	ctx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Workflow.RunTimeout, 300*time.Second))
	defer cancel()

	status, runErr := sched.Execute(ctx, state, log)
	if runErr != nil {
		return fmt.Errorf("run %s: %w", status, runErr)
	}

	result := struct {
		Status    campaign.Status    `json:"status"`
		State     *campaign.State    `json:"state"`
		Analytics campaign.Analytics `json:"analytics"`
	}{Status: status, State: state, Analytics: state.Analytics()}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	logger.Info("one-shot run finished",
		zap.String("status", string(status)),
		zap.Int("quality_score", state.QualityScore))
	return nil
}
