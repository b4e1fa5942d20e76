package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/disaster-response-agents/internal/demo"
	"github.com/mr1hm/disaster-response-agents/internal/logging"
)

const agentName = "BasicDisasterResponseAgent"

func main() {
	var opts demo.Options
	root := &cobra.Command{
		Use:          "lab1-agent",
		Short:        "Run the basic greeting and heartbeat agent",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			logging.Setup(os.Getenv("LOG_LEVEL"))

			return demo.New(agentName, os.Stdout, opts).Start(cmd.Context())
		},
	}
	root.Flags().DurationVar(&opts.Interval, "interval", demo.DefaultInterval, "Time between heartbeats")
	root.Flags().IntVar(&opts.Iterations, "iterations", demo.DefaultIterations, "Number of heartbeats")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logging.Fatalf("lab1-agent: %v", err)
	}
}
