package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopmorph/shopmorph/api"
	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.Load()

	var workspaceDir string

	root := &cobra.Command{
		Use:   "shopmorph",
		Short: "Capture donor store pages and compile rendering plans",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if workspaceDir != "" {
				cfg.Workspace.Dir = workspaceDir
			}
			initLogger(cfg.Log)
		},
	}
	root.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "workspace directory (overrides SHOPMORPH_WORKSPACE)")

	root.AddCommand(captureCmd(cfg), planCmd(cfg), serveCmd(cfg))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func captureCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "capture <url>",
		Short: "Render a donor page and persist its passport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cfg, func(ctx context.Context, p *pipeline.Pipeline) error {
				passport, err := p.Capture(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(passport)
			})
		},
	}
}

func planCmd(cfg *config.Config) *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "plan <url>",
		Short: "Compile the rendering plan for a captured page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fresh {
				return withPipeline(cfg, func(ctx context.Context, p *pipeline.Pipeline) error {
					_, plan, err := p.CaptureAndPlan(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(plan)
				})
			}

			// Compiling a persisted passport needs no browser.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			p, err := pipeline.NewPlanOnly(cfg)
			if err != nil {
				return err
			}
			plan, err := p.Plan(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(plan)
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "capture first instead of using the persisted passport")
	return cmd
}

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			slog.Info("shopmorph starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
				"workspace", cfg.Workspace.Dir,
			)

			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			startTime := time.Now()
			router := api.NewRouter(p, cfg, startTime)

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server error", "error", err)
					os.Exit(1)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			sig := <-quit
			slog.Info("shutdown signal received", "signal", sig.String())

			// Give in-flight requests 5 seconds to complete.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}

			slog.Info("shopmorph stopped")
			return nil
		},
	}
}

// withPipeline runs one CLI action with an interrupt-canceled context and a
// pipeline that is always closed afterwards.
func withPipeline(cfg *config.Config, fn func(context.Context, *pipeline.Pipeline) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(ctx, p)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
