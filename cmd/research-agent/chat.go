// cmd/research-agent/chat.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"research-agent/internal/cli"
	"research-agent/internal/common/store"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.serveMetrics()

	orch, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}
	memory, err := a.memoryManager(ctx)
	if err != nil {
		return err
	}

	session, err := cli.NewSession(cli.SessionOptions{
		Orchestrator:     orch,
		Profiles:         store.NewProfileStore(a.cfg.Storage.ProfilePath),
		Memory:           memory,
		In:               os.Stdin,
		Out:              os.Stdout,
		MaxClarifyRounds: a.cfg.Agent.MaxClarifyRounds,
		Logger:           a.log,
	})
	if err != nil {
		return err
	}
	return session.Run(ctx)
}
