package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fwojciec/pitch"
	"github.com/fwojciec/pitch/goldmark"
	pitchjson "github.com/fwojciec/pitch/json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for ask.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newAskCmd(s *settings) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question and print the analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.resolve(cmd, os.Getenv); err != nil {
				return err
			}
			logger, closeLog, err := newLogger(s.logFile, s.logLevel)
			if err != nil {
				return err
			}
			defer closeLog()

			client := s.client(logger)
			opts := askOptions{
				format: format,
				output: output,
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			}
			return runAsk(cmd.Context(), client, s.query(strings.Join(args, " ")), opts, pitch.WithLogger(logger))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "result format: text, json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also save the JSON report to this file")
	return cmd
}

type askOptions struct {
	format string
	output string
	stdout io.Writer
	stderr io.Writer
}

// runAsk runs one session to completion, printing progress lines to stderr
// as they arrive and the outcome to stdout. Cancelling ctx cancels the
// session. A session that does not complete is reported as an error.
func runAsk(ctx context.Context, client pitch.Client, q pitch.Query, opts askOptions, ctrlOpts ...pitch.ControllerOption) error {
	switch opts.format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	pp := &progressPrinter{w: opts.stderr}
	ctrl := pitch.NewController(client, append(ctrlOpts, pitch.WithUpdateHandler(pp.print))...)
	defer ctrl.Close()

	ticket, err := ctrl.Submit(q)
	if err != nil {
		return err
	}
	select {
	case <-ticket.Done():
	case <-ctx.Done():
		ctrl.Cancel()
		<-ticket.Done()
	}

	snap := ctrl.Snapshot()
	if opts.output != "" {
		if err := pitchjson.Save(opts.output, snap); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}
	if err := writeSnapshot(opts.stdout, snap, opts.format); err != nil {
		return err
	}

	switch snap.State {
	case pitch.SessionErrored:
		return errors.New(pitch.UserMessage(snap.Err))
	case pitch.SessionCancelled:
		return errors.New("cancelled")
	}
	return nil
}

// progressPrinter writes each progress event once, in arrival order.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	gen     uint64
	printed int // events of gen already written
}

func (p *progressPrinter) print(s pitch.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Generation != p.gen {
		p.gen = s.Generation
		p.printed = 0
	}
	fresh := min(s.Total-p.printed, len(s.Progress))
	for _, e := range s.Progress[len(s.Progress)-fresh:] {
		fmt.Fprintf(p.w, "%s %s: %s\n", statusIcon(e), e.Stage, e.Message)
	}
	p.printed = s.Total
}

func statusIcon(e pitch.ProgressEvent) string {
	switch e.Kind() {
	case pitch.StepSuccess:
		return "✓"
	case pitch.StepError:
		return "✗"
	case pitch.StepWarning:
		return "!"
	default:
		return "•"
	}
}

func writeSnapshot(w io.Writer, snap pitch.Snapshot, format string) error {
	switch format {
	case formatJSON:
		data, err := pitchjson.MarshalReport(snap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case formatYAML:
		rep, err := pitchjson.NewReport(snap)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		if snap.Result == nil {
			return nil
		}
		_, err := io.WriteString(w, renderText(*snap.Result, goldmark.DefaultWidth))
		return err
	}
}

// renderText formats a result for a plain terminal.
func renderText(r pitch.Result, width int) string {
	theme := pitch.DefaultTheme()
	var sections []string

	if m := r.MatchMetadata; m != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s %s", m.HomeTeam, orDash(m.Score), m.AwayTeam)
		if details := joinNonEmpty(" · ", m.Competition, m.MatchDate); details != "" {
			fmt.Fprintf(&b, "\n%s", details)
		}
		if m.ManOfTheMatch != "" {
			fmt.Fprintf(&b, "\nMan of the match: %s", m.ManOfTheMatch)
		}
		sections = append(sections, b.String())
	}
	if r.Summary != "" {
		sections = append(sections, goldmark.Render(r.Summary, width, theme))
	}
	if m := r.MatchMetadata; m != nil && len(m.KeyMoments) > 0 {
		lines := []string{"Key moments"}
		for _, k := range m.KeyMoments {
			lines = append(lines, "  "+joinNonEmpty(" ", k.Minute, joinNonEmpty(": ", k.Event, k.Description)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(r.Highlights) > 0 {
		lines := []string{"Highlights"}
		for _, h := range r.Highlights {
			lines = append(lines, "  "+joinNonEmpty(" ", h.Title, paren(h.Duration), h.URL))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(r.Sources) > 0 {
		lines := []string{"Sources"}
		for _, src := range r.Sources {
			lines = append(lines, "  "+src)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n") + "\n"
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func paren(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}
