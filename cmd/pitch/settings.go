package main

import (
	"fmt"
	"log/slog"

	"github.com/fwojciec/pitch"
	"github.com/fwojciec/pitch/backend"
	"github.com/fwojciec/pitch/toml"
	"github.com/spf13/cobra"
)

const (
	endpointEnv    = "PITCH_ENDPOINT"
	defaultRetries = 2
)

// settings holds the resolved options shared by every command.
type settings struct {
	configPath        string
	endpoint          string
	audience          string
	includeHighlights bool
	emphasizeOrder    bool
	retries           int
	logFile           string
	logLevel          string
}

func (s *settings) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&s.configPath, "config", toml.DefaultPath(), "config file path")
	f.StringVar(&s.endpoint, "endpoint", backend.DefaultBaseURL, "analysis service base URL (env "+endpointEnv+")")
	f.StringVar(&s.audience, "audience", "", "audience segment sent with every query")
	f.BoolVar(&s.includeHighlights, "highlights", true, "ask for video highlights")
	f.BoolVar(&s.emphasizeOrder, "chronological", false, "ask for chronological ordering")
	f.IntVar(&s.retries, "retries", defaultRetries, "extra attempts when the service is unavailable")
	f.StringVar(&s.logFile, "log-file", "", "write logs to this file")
	f.StringVar(&s.logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// resolve fills every option not set by a flag from the environment and
// then the config file.
func (s *settings) resolve(cmd *cobra.Command, getenv func(string) string) error {
	cfg, err := toml.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyStringConfig(cmd, "endpoint", &s.endpoint, cfg.Endpoint)
	if v := getenv(endpointEnv); v != "" && !cmd.Flags().Changed("endpoint") {
		s.endpoint = v
	}
	applyStringConfig(cmd, "audience", &s.audience, cfg.Audience)
	applyBoolConfig(cmd, "highlights", &s.includeHighlights, cfg.IncludeHighlights)
	applyBoolConfig(cmd, "chronological", &s.emphasizeOrder, cfg.EmphasizeOrder)
	if cfg.Retries != nil && !cmd.Flags().Changed("retries") {
		s.retries = *cfg.Retries
	}
	if s.retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", s.retries)
	}
	applyStringConfig(cmd, "log-file", &s.logFile, cfg.LogFile)
	applyStringConfig(cmd, "log-level", &s.logLevel, cfg.LogLevel)
	return nil
}

// client returns a backend client for the resolved endpoint.
func (s *settings) client(logger *slog.Logger) *backend.Client {
	return backend.New(
		backend.WithBaseURL(s.endpoint),
		backend.WithRetries(s.retries, 0),
		backend.WithLogger(logger),
	)
}

// query returns a Query carrying text and the resolved options.
func (s *settings) query(text string) pitch.Query {
	return pitch.Query{
		Text:              text,
		IncludeHighlights: s.includeHighlights,
		EmphasizeOrder:    s.emphasizeOrder,
		Audience:          s.audience,
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
