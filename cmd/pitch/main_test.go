package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/pitch"
	pitchjson "github.com/fwojciec/pitch/json"
	"github.com/fwojciec/pitch/mock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// resolveForTest parses args against the root flags and resolves them with
// env and the config file at configPath.
func resolveForTest(configPath string, args []string, env map[string]string) (settings, error) {
	s := &settings{}
	cmd := &cobra.Command{Use: "pitch"}
	s.bind(cmd)
	if err := cmd.ParseFlags(append([]string{"--config", configPath}, args...)); err != nil {
		return settings{}, err
	}
	if err := s.resolve(cmd, func(k string) string { return env[k] }); err != nil {
		return settings{}, err
	}
	return *s, nil
}

func runAskForTest(ctx context.Context, client pitch.Client, q pitch.Query, format, output string, stdout, stderr io.Writer) error {
	return runAsk(ctx, client, q, askOptions{format: format, output: output, stdout: stdout, stderr: stderr})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveSettings(t *testing.T) {
	t.Parallel()
	fileCfg := `
endpoint = "http://file:1"
audience = "file-audience"
include_highlights = false
retries = 5
log_level = "debug"
`
	tests := []struct {
		name   string
		config string
		args   []string
		env    map[string]string
		want   settings
	}{
		{
			name: "defaults",
			want: settings{endpoint: "http://localhost:8000", includeHighlights: true, retries: 2, logLevel: "info"},
		},
		{
			name:   "file overrides defaults",
			config: fileCfg,
			want:   settings{endpoint: "http://file:1", audience: "file-audience", retries: 5, logLevel: "debug"},
		},
		{
			name:   "env overrides file",
			config: fileCfg,
			env:    map[string]string{"PITCH_ENDPOINT": "http://env:2"},
			want:   settings{endpoint: "http://env:2", audience: "file-audience", retries: 5, logLevel: "debug"},
		},
		{
			name:   "empty env is ignored",
			config: fileCfg,
			env:    map[string]string{"PITCH_ENDPOINT": ""},
			want:   settings{endpoint: "http://file:1", audience: "file-audience", retries: 5, logLevel: "debug"},
		},
		{
			name:   "flags override env and file",
			config: fileCfg,
			args:   []string{"--endpoint", "http://flag:3", "--highlights", "--chronological", "--log-level", "warn", "--retries", "0"},
			env:    map[string]string{"PITCH_ENDPOINT": "http://env:2"},
			want: settings{
				endpoint:          "http://flag:3",
				audience:          "file-audience",
				includeHighlights: true,
				emphasizeOrder:    true,
				logLevel:          "warn",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "missing.toml")
			if tt.config != "" {
				path = writeConfig(t, tt.config)
			}
			got, err := resolveForTest(path, tt.args, tt.env)
			require.NoError(t, err)
			tt.want.configPath = path
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSettings_BadConfig(t *testing.T) {
	t.Parallel()
	_, err := resolveForTest(writeConfig(t, "endpoint = 3"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestResolveSettings_NegativeRetries(t *testing.T) {
	t.Parallel()
	_, err := resolveForTest(writeConfig(t, "retries = -1"), nil, nil)
	assert.EqualError(t, err, "retries must not be negative, got -1")
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pitch", "config.toml")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"config", "--config", path})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, path+"\n", stdout.String())
	assert.Contains(t, stderr.String(), "Created")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# endpoint = \"http://localhost:8000\"")
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	t.Parallel()
	cmd := newRootCmd()
	cmd.SetArgs([]string{"ask"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}

func scriptedClient(events ...pitch.Event) *mock.Client {
	return &mock.Client{
		StreamFn: func(_ context.Context, _ pitch.Query) (pitch.Stream, error) {
			var i int
			return &mock.Stream{
				NextFn: func() (pitch.Event, error) {
					if i >= len(events) {
						return nil, io.EOF
					}
					evt := events[i]
					i++
					return evt, nil
				},
			}, nil
		},
	}
}

func progress(stage, msg, status string) pitch.Event {
	return pitch.EventProgress{Progress: pitch.ProgressEvent{Stage: stage, Message: msg, Status: status}}
}

func analysisClient() *mock.Client {
	ok := true
	return scriptedClient(
		progress("searching", "Finding the match", "info"),
		progress("analysing", "Reading reports", "success"),
		pitch.EventResult{Raw: pitch.RawResult{
			Success: &ok,
			Answer:  "Arsenal won **late**.",
			MatchMetadata: &pitch.MatchMetadata{
				HomeTeam: "Arsenal", AwayTeam: "Chelsea", Score: "2-1", Competition: "Premier League",
				KeyMoments: []pitch.KeyMoment{{Minute: "88'", Event: "Goal", Description: "Header"}},
			},
			Highlights: []any{"Extended highlights", pitch.Highlight{Title: "Winner", Duration: "0:45"}},
			Sources:    []any{"https://example.com/report", 3},
		}},
	)
}

func TestAsk_Text(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	err := runAskForTest(context.Background(), analysisClient(), pitch.Query{Text: "Who won?"}, "text", "", &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "• searching: Finding the match\n✓ analysing: Reading reports\n", stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Arsenal 2-1 Chelsea\nPremier League")
	assert.Contains(t, out, "Arsenal won late.")
	assert.Contains(t, out, "Key moments\n  88' Goal: Header")
	assert.Contains(t, out, "Highlights\n  Extended highlights\n  Winner (0:45)")
	assert.Contains(t, out, "Sources\n  https://example.com/report\n")
}

func TestAsk_JSON(t *testing.T) {
	t.Parallel()
	var stdout bytes.Buffer
	err := runAskForTest(context.Background(), analysisClient(), pitch.Query{Text: "Who won?"}, "json", "", &stdout, io.Discard)
	require.NoError(t, err)

	snap, err := pitchjson.UnmarshalReport(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pitch.SessionCompleted, snap.State)
	assert.Equal(t, "Who won?", snap.Query.Text)
	assert.Equal(t, 2, snap.Total)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "Arsenal won **late**.", snap.Result.Summary)
	assert.Len(t, snap.Result.Highlights, 2)
	assert.Equal(t, []string{"https://example.com/report"}, snap.Result.Sources)
}

func TestAsk_YAML(t *testing.T) {
	t.Parallel()
	var stdout bytes.Buffer
	err := runAskForTest(context.Background(), analysisClient(), pitch.Query{Text: "Who won?"}, "yaml", "", &stdout, io.Discard)
	require.NoError(t, err)

	var rep pitchjson.Report
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &rep))
	assert.Equal(t, 1, rep.Version)
	assert.Equal(t, "completed", rep.State)
	require.Len(t, rep.Progress, 2)
	assert.Equal(t, "searching", rep.Progress[0].Stage)
	require.NotNil(t, rep.Result)
	assert.Equal(t, "Arsenal", rep.Result.MatchMetadata.HomeTeam)
}

func TestAsk_Output(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out", "report.json")
	err := runAskForTest(context.Background(), analysisClient(), pitch.Query{Text: "Who won?"}, "text", path, io.Discard, io.Discard)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	snap, err := pitchjson.UnmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, pitch.SessionCompleted, snap.State)
}

func TestAsk_Errored(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		client *mock.Client
		want   string
	}{
		{
			name:   "no result",
			client: scriptedClient(progress("searching", "Finding", "info")),
			want:   pitch.UserMessage(pitch.ErrNoLiveUpdates),
		},
		{
			name: "transport",
			client: &mock.Client{StreamFn: func(context.Context, pitch.Query) (pitch.Stream, error) {
				return nil, &pitch.TransportError{StatusCode: 503, Message: "down"}
			}},
			want: "Could not reach the analysis service. Please try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout bytes.Buffer
			err := runAskForTest(context.Background(), tt.client, pitch.Query{Text: "q"}, "json", "", &stdout, io.Discard)
			require.EqualError(t, err, tt.want)

			snap, uerr := pitchjson.UnmarshalReport(stdout.Bytes())
			require.NoError(t, uerr)
			assert.Equal(t, pitch.SessionErrored, snap.State)
		})
	}
}

func TestAsk_Cancelled(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	client := &mock.Client{StreamFn: func(ctx context.Context, _ pitch.Query) (pitch.Stream, error) {
		return &mock.Stream{NextFn: func() (pitch.Event, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	var stdout bytes.Buffer
	err := runAskForTest(ctx, client, pitch.Query{Text: "q"}, "text", "", &stdout, io.Discard)
	require.EqualError(t, err, "cancelled")
	assert.Empty(t, stdout.String())
}

func TestAsk_Validation(t *testing.T) {
	t.Parallel()
	err := runAskForTest(context.Background(), analysisClient(), pitch.Query{Text: "   "}, "text", "", io.Discard, io.Discard)
	assert.True(t, errors.Is(err, pitch.ErrValidation))

	err = runAskForTest(context.Background(), analysisClient(), pitch.Query{Text: "q"}, "xml", "", io.Discard, io.Discard)
	assert.EqualError(t, err, `unknown format "xml"`)
}

func TestRenderText_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, renderText(pitch.Normalize(pitch.RawResult{}), 80))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pitch.log")

	logger, closeLog, err := newLogger(path, "warn")
	require.NoError(t, err)
	logger.Info("hidden message")
	logger.Warn("stream stalled", "generation", 3)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "stream stalled")
	assert.True(t, strings.Contains(out, "generation=3"), "log line should carry attributes: %q", out)
}

func TestNewLogger_Errors(t *testing.T) {
	t.Parallel()
	_, _, err := newLogger("", "loud")
	assert.Error(t, err)

	logger, closeLog, err := newLogger("", "debug")
	require.NoError(t, err)
	logger.Error("discarded")
	assert.NoError(t, closeLog())
}
