package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/ronappleton/campaign-engine/internal/cli"
	"github.com/ronappleton/campaign-engine/internal/config"
	grpcserver "github.com/ronappleton/campaign-engine/internal/grpc"
	"github.com/ronappleton/campaign-engine/internal/httpserver"
	"github.com/ronappleton/campaign-engine/internal/logging"
	"github.com/ronappleton/campaign-engine/internal/metrics"
	"github.com/ronappleton/campaign-engine/internal/workflow"
)

func main() {
	rootCmd := cli.NewRootCommand()

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		startServer(configPath)
		return nil
	}
	rootCmd.AddCommand(cli.NewRunCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func startServer(configPath string) {
	app := fx.New(
		config.Module(configPath),
		logging.Module("campaign-engine"),
		metrics.Module("campaign-engine"),
		workflow.Module(),
		grpcserver.Module,
		httpserver.Module(),
	)

	app.Run()
}
