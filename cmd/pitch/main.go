// Command pitch asks a match-analysis service about football matches and
// shows its streamed progress and final analysis.
//
// Usage:
//
//	pitch [flags]                  interactive TUI
//	pitch ask [flags] <question>   one-shot query, result on stdout
//	pitch config                   create the config file and print its path
//
// Flags override PITCH_ENDPOINT, which overrides the config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/pitch"
	"github.com/fwojciec/pitch/backend"
	bt "github.com/fwojciec/pitch/bubbletea"
	"github.com/fwojciec/pitch/toml"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// SIGINT cancels the in-flight session; commands return once it has
	// been torn down.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pitch: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:           "pitch",
		Short:         "Streaming football match analysis in the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, s)
		},
	}
	s.bind(root)
	root.AddCommand(newAskCmd(s), newConfigCmd(s))
	return root
}

func runTUI(cmd *cobra.Command, s *settings) error {
	if err := s.resolve(cmd, os.Getenv); err != nil {
		return err
	}
	logger, closeLog, err := newLogger(s.logFile, s.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	client := s.client(logger)
	updates := make(chan pitch.Snapshot, 16)
	ctrl := pitch.NewController(client,
		pitch.WithLogger(logger),
		pitch.WithUpdateHandler(bt.Forward(updates)),
	)

	m := bt.New(ctrl, updates, s.query(""), pitch.DefaultTheme())
	if err := bt.Run(cmd.Context(), m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func newConfigCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create the config file if missing and print its path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := s.configPath
			created, err := toml.WriteTemplate(path, backend.DefaultBaseURL)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.ErrOrStderr(), "Created %s\n", path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
