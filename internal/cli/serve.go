package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agent-persona/internal/mcpserver"
	"github.com/rcliao/agent-persona/internal/scheduler"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the persona as MCP tools over stdio",
		Long:  "Run an MCP server on stdin/stdout with a background retention pruner.",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	srv := mcpserver.NewServer(&mcpserver.ToolContext{
		Orchestrator: a.orch,
		Memory:       a.memory,
		Logger:       logger,
	}, Version)
	sched := scheduler.NewScheduler(a.memory, cfg.Retention.Interval, a.retentionDays(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		return mcpserver.ServeStdio(gctx, srv, logger)
	})

	logger.Info("serving",
		zap.String("storage", cfg.Storage.Type),
		zap.String("provider", cfg.Completion.Provider),
		zap.Int("retention_days", a.retentionDays()),
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		exitErr("serve", err)
	}
}
