// root.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ViniZap4/saga-studio/auth"
	"github.com/ViniZap4/saga-studio/config"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/gateway"
	httpapi "github.com/ViniZap4/saga-studio/http"
	"github.com/ViniZap4/saga-studio/logging"
	"github.com/ViniZap4/saga-studio/store"
	"github.com/ViniZap4/saga-studio/studio"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "saga-studio",
		Short:         "Creative studio server for the Juliette Psicose universe",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newTreeCommand())
	rootCmd.AddCommand(newHashPasswordCommand())
	return rootCmd
}

// loadConfig reads the configuration and builds the process logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

type openBackend func(ctx context.Context, cfg *config.Config) (store.Backend, error)

func openAdapter(ctx context.Context, cfg *config.Config, log zerolog.Logger, open openBackend) (*store.Adapter, func(), error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}
	backend, err := open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	adapter := store.NewAdapter(backend, logging.Component(log, "store"), store.WithMaxValueBytes(cfg.StoreMaxValueBytes))
	closeFn := func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}
	return adapter, closeFn, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	adapter, closeStore, err := openAdapter(ctx, cfg, log, store.Open)
	if err != nil {
		return err
	}
	defer closeStore()

	client := gateway.NewClient(gateway.Config{
		BaseURL:        cfg.GeminiBaseURL,
		TextModel:      cfg.Models.Text,
		ImageModel:     cfg.Models.Image,
		VideoModel:     cfg.Models.Video,
		SpeechModel:    cfg.Models.Speech,
		TransformModel: cfg.Models.Transform,
		PollInterval:   cfg.VideoPollInterval(),
		Timeout:        cfg.HTTPTimeout(),
	}, gateway.WithLogger(log))

	hub := events.NewHub(log)
	go hub.Run(ctx)

	st := studio.New(ctx, adapter, client,
		studio.WithLogger(log),
		studio.WithNotifier(hub),
		studio.WithClipsDir(cfg.ClipsDir()),
	)
	defer st.Close()

	app := httpapi.NewServer(st, client, hub, auth.New(cfg.Password, cfg.PasswordHash), log).App()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr())
	}()
	log.Info().
		Str("addr", cfg.Addr()).
		Str("store", cfg.Store).
		Str("data_dir", cfg.DataDir).
		Msg("server starting")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("grace", cfg.ShutdownGrace()).Msg("shutting down")
	if err := app.ShutdownWithTimeout(cfg.ShutdownGrace()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Store {
			case config.StorePostgres:
				if err := store.MigratePostgres(cfg.DatabaseURL); err != nil {
					return err
				}
			case config.StoreSQLite:
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
				db, err := store.OpenSQLite(cfg.SQLitePath())
				if err != nil {
					return err
				}
				if err := db.Close(); err != nil {
					return err
				}
			default:
				log.Info().Str("store", cfg.Store).Msg("store has no schema")
				return nil
			}
			log.Info().Str("store", cfg.Store).Msg("migrations applied")
			return nil
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash to use as STUDIO_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
