package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stall/internal/config"
	"stall/internal/keys"
	"stall/internal/logger"
	"stall/pkg/logging"
)

var (
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stall-agent",
		Short: "Job agent for classified listing orders",
		Long:  "stall-agent watches relays for job requests and answers order computations against classified listings",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(keysCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog()

			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
				if configFile == "" {
					earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
					return fmt.Errorf("config file is required")
				}
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				earlyLog.Error("Failed to load config: %v", err)
				return err
			}

			log, err := logger.New(cfg.Logging.Level)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting stall agent")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			log.InfowCtx(ctx, "Agent running")
			err = app.Run(ctx)

			if shutdownErr := app.Shutdown(context.Background()); shutdownErr != nil {
				log.ErrorwCtx(ctx, "Shutdown finished with errors", "error", shutdownErr)
			}

			if err != nil && err != context.Canceled {
				log.ErrorwCtx(ctx, "Agent stopped with error", "error", err)
				return err
			}
			log.InfowCtx(ctx, "Agent shutdown complete")
			return nil
		},
	}
}

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the agent's signing key profile",
	}
	cmd.AddCommand(keysGenerateCmd())
	return cmd
}

func keysGenerateCmd() *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate a new signing key profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog()

			if _, err := os.Stat(args[0]); err == nil {
				earlyLog.Error("Key profile %s already exists, refusing to overwrite", args[0])
				return fmt.Errorf("key profile already exists")
			}

			profile, err := keys.Generate(args[0], identifier)
			if err != nil {
				earlyLog.Error("Failed to generate key profile: %v", err)
				return err
			}

			earlyLog.Info("Key profile written to %s (public key %s)", args[0], profile.PublicKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "", "Handler announcement identifier (optional)")
	return cmd
}
