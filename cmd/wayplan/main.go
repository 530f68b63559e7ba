// Package main provides the wayplan binary entry point.
// Wayplan turns a free-text goal into a structured multi-day plan, enriched
// with web search results and weather context, synthesized through a
// configurable LLM provider with an offline fallback.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	// Register LLM providers via init()
	_ "github.com/wayplan/wayplan/llm/providers"

	"github.com/spf13/cobra"

	"github.com/wayplan/wayplan/config"
	"github.com/wayplan/wayplan/pipeline"
	"github.com/wayplan/wayplan/storage"
)

const (
	Version = "0.1.0"
	appName = "wayplan"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Goal-to-plan pipeline",
		Long: `Wayplan turns a free-text goal into a structured day-by-day plan.

It interprets the goal, gathers web search and weather context, and
synthesizes the plan through a configurable LLM provider (ollama, openai,
anthropic). When the provider is unreachable it falls back to a
deterministic offline plan, so an accepted goal always yields a result.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(planCommand(opts))
	cmd.AddCommand(historyCommand(opts))
	cmd.AddCommand(showCommand(opts))
	cmd.AddCommand(deleteCommand(opts))
	cmd.AddCommand(initCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func planCommand(opts *globalOptions) *cobra.Command {
	var (
		provider string
		noSave   bool
	)

	cmd := &cobra.Command{
		Use:   "plan \"<goal>\"",
		Short: "Generate a plan from a free-text goal",
		Long: `Generate a plan from a free-text goal, for example:

  wayplan plan "Plan a 3-day vegetarian food tour in Rome"
  wayplan plan "5 steps to learn Go" --provider anthropic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(opts, logger)
			if err != nil {
				return err
			}
			if noSave {
				cfg.NATS.Disabled = true
			}

			app := NewApp(cfg, logger)
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Shutdown()

			result, err := app.Plan(ctx, args[0], provider)
			if err != nil {
				if pipeline.IsInvalidGoal(err) {
					return fmt.Errorf("could not make sense of that goal: %w", errors.Unwrap(err))
				}
				return err
			}

			if !cfg.NATS.Disabled {
				id, err := app.SavePlan(ctx, result)
				if err != nil {
					logger.Warn("Failed to save plan", "error", err)
				} else {
					logger.Debug("Plan saved", "id", id)
				}
			}

			renderPlan(os.Stdout, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "LLM provider to use (overrides config default)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip saving the plan")

	return cmd
}

func historyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, logger, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}

			app, err := startApp(ctx, opts, logger)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			plans, err := app.ListPlans(ctx)
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				fmt.Println("No saved plans.")
				return nil
			}

			for _, p := range plans {
				fmt.Printf("%s  %s  %-10s  %s\n",
					shortID(p.ID),
					p.CreatedAt.Format("2006-01-02 15:04"),
					p.ProviderUsed,
					p.Goal.Topic)
			}
			return nil
		},
	}
}

func showCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}

			app, err := startApp(ctx, opts, logger)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			p, err := app.GetPlan(ctx, args[0])
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no plan with ID %s", args[0])
				}
				return err
			}

			renderPlan(os.Stdout, p)
			return nil
		},
	}
}

func deleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}

			app, err := startApp(ctx, opts, logger)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			if err := app.DeletePlan(ctx, args[0]); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no plan with ID %s", args[0])
				}
				return err
			}

			fmt.Printf("Deleted plan %s\n", args[0])
			return nil
		},
	}
}

func initCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default user config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return config.NewLoader(logger).EnsureUserConfig()
		},
	}
}

// setup configures logging and signal-aware context for one command run.
func setup(parent context.Context, opts *globalOptions) (context.Context, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(opts.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", opts.logLevel)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	return ctx, logger, nil
}

func loadConfig(opts *globalOptions, logger *slog.Logger) (*config.Config, error) {
	loader := config.NewLoader(logger)
	if opts.configPath != "" {
		return loader.LoadFile(opts.configPath)
	}
	return loader.Load()
}

// startApp loads config and starts a fully wired App.
func startApp(ctx context.Context, opts *globalOptions, logger *slog.Logger) (*App, error) {
	cfg, err := loadConfig(opts, logger)
	if err != nil {
		return nil, err
	}

	app := NewApp(cfg, logger)
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
