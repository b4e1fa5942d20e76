package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/disaster-response-agents/internal/api"
	"github.com/mr1hm/disaster-response-agents/internal/broadcast"
	"github.com/mr1hm/disaster-response-agents/internal/config"
	"github.com/mr1hm/disaster-response-agents/internal/dispatch"
	"github.com/mr1hm/disaster-response-agents/internal/environment"
	"github.com/mr1hm/disaster-response-agents/internal/logging"
	"github.com/mr1hm/disaster-response-agents/internal/repository"
	"github.com/mr1hm/disaster-response-agents/internal/simulation"
)

type flags struct {
	configPath string
	duration   time.Duration
	interval   time.Duration
	agents     int
}

func main() {
	var f flags
	root := &cobra.Command{
		Use:          "lab2-sensors",
		Short:        "Run sensor agents against a simulated disaster environment",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(f.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("duration") {
				cfg.Simulation.Duration = f.duration
			}
			if cmd.Flags().Changed("interval") {
				cfg.Simulation.Interval = f.interval
			}
			if cmd.Flags().Changed("agents") {
				cfg.Simulation.SensorCount = f.agents
			}
			if cfg.Simulation.Duration <= 0 || cfg.Simulation.Interval <= 0 || cfg.Simulation.SensorCount < 1 {
				return fmt.Errorf("--duration, --interval and --agents must be positive")
			}
			logging.Setup(cfg.Logging.Level)

			return run(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVar(&f.configPath, "config", "", "YAML config file (overrides SIM_CONFIG_FILE)")
	root.Flags().DurationVar(&f.duration, "duration", 0, "Total run time")
	root.Flags().DurationVar(&f.interval, "interval", 0, "Time between sensor cycles")
	root.Flags().IntVar(&f.agents, "agents", 0, "Number of sensor agents")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logging.Fatalf("lab2-sensors: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	sim := cfg.Simulation

	db, err := repository.NewSQLiteDB(repository.MemoryDSN)
	if err != nil {
		return fmt.Errorf("initializing registry: %w", err)
	}
	defer db.Close()

	env := environment.New(db, simulation.NewRand(sim.Seed), environment.Options{
		GenerationProbability: &sim.GenerationProbability,
	})

	broadcaster := broadcast.NewBroadcaster()
	dispatcher := dispatch.NewDispatcher(cfg.Worker, db, broadcaster)

	runner, err := simulation.NewRunner(cfg, env, dispatcher, os.Stdout)
	if err != nil {
		return err
	}

	var srv *http.Server
	if cfg.Server.Enabled {
		gin.SetMode(gin.ReleaseMode)
		router := api.NewRouter(api.NewHandler(db, db, broadcaster, env.Locations()), 5) // 5 req/s global limit

		srv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		}
		go func() {
			slog.Info("status API listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("status API error", "error", err)
			}
		}()
	}

	printHeader(cfg)

	runErr := runner.Run(ctx)

	fmt.Fprintf(os.Stdout, "\n%s\nSimulation complete. Generating summaries...\n%s\n", rule("="), rule("="))
	fmt.Fprint(os.Stdout, runner.Summaries())

	if summary, err := env.Summary(context.WithoutCancel(ctx)); err != nil {
		slog.Error("failed to summarize environment", "error", err)
	} else {
		fmt.Fprint(os.Stdout, summary)
	}
	fmt.Fprintf(os.Stdout, "\nLogs written to %s/\n", cfg.Logging.Dir)

	broadcaster.Close()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}

	slog.Info("shutdown complete", "alerts_stored", dispatcher.Stored())
	return runErr
}

func printHeader(cfg *config.Config) {
	sim := cfg.Simulation
	fmt.Fprintf(os.Stdout, "%s\nLAB 2: Perception and Environment Modeling\nDisaster Response & Relief Coordination System\n%s\n", rule("="), rule("="))
	fmt.Fprintf(os.Stdout, "\nSensor agents:  %d\n", sim.SensorCount)
	fmt.Fprintf(os.Stdout, "Duration:       %s\n", sim.Duration)
	fmt.Fprintf(os.Stdout, "Interval:       %s\n", sim.Interval)
	fmt.Fprintf(os.Stdout, "Generation:     %.0f%% per tick\n", sim.GenerationProbability*100)
	fmt.Fprintf(os.Stdout, "Log directory:  %s/\n\n%s\n", cfg.Logging.Dir, rule("-"))
}

func rule(ch string) string {
	return strings.Repeat(ch, 70)
}
