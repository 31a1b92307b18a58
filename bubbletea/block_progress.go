package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/pitch"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var _ Block = (*ProgressBlock)(nil)

// maxStageWidth caps the stage column.
const maxStageWidth = 18

// ProgressBlock renders the bounded progress log, one line per step. Lines
// are truncated, never wrapped, so the block height tracks the log length.
type ProgressBlock struct {
	events  []pitch.ProgressEvent
	total   int
	active  bool   // the last step is still running
	spinner string // current spinner frame, shown on the last step
	styles  Styles
}

// NewProgressBlock creates a ProgressBlock. total is the number of steps
// received, which exceeds len(events) once older steps have been dropped.
func NewProgressBlock(events []pitch.ProgressEvent, total int, styles Styles) *ProgressBlock {
	return &ProgressBlock{events: events, total: total, styles: styles}
}

// SetActive marks the last step as running and sets the spinner frame drawn
// beside it.
func (b *ProgressBlock) SetActive(active bool, frame string) {
	b.active = active
	b.spinner = frame
}

func (b *ProgressBlock) Update(msg tea.Msg) (Block, tea.Cmd) {
	return b, nil
}

func (b *ProgressBlock) View(width int) string {
	if len(b.events) == 0 {
		if b.active {
			return b.spinner + " " + b.styles.Muted.Render("Waiting for the analysis service…")
		}
		return ""
	}

	stageWidth := 0
	for _, e := range b.events {
		stageWidth = max(stageWidth, uniseg.StringWidth(oneLine(e.Stage)))
	}
	stageWidth = min(stageWidth, maxStageWidth)

	var lines []string
	if dropped := b.total - len(b.events); dropped > 0 {
		lines = append(lines, b.styles.Muted.Render(fmt.Sprintf("  … %d earlier %s", dropped, plural(dropped, "step", "steps"))))
	}
	for i, e := range b.events {
		icon := b.icon(e)
		if b.active && i == len(b.events)-1 {
			icon = b.spinner
		}
		stage := fitWidth(oneLine(e.Stage), stageWidth)
		room := width - 2 - stageWidth - 2
		msg := ""
		if room > 0 {
			msg = runewidth.Truncate(oneLine(e.Message), room, "…")
		}
		lines = append(lines, icon+" "+b.styles.Stage.Render(stage)+"  "+b.styles.Progress.Render(msg))
	}
	return strings.Join(lines, "\n")
}

// icon maps a step status onto a one-cell marker.
func (b *ProgressBlock) icon(e pitch.ProgressEvent) string {
	switch e.Kind() {
	case pitch.StepSuccess:
		return b.styles.Success.Render("✓")
	case pitch.StepError:
		return b.styles.Error.Render("✗")
	case pitch.StepWarning:
		return b.styles.Accent.Render("!")
	default:
		return b.styles.Muted.Render("•")
	}
}

// oneLine collapses runs of whitespace, line breaks included, into single
// spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fitWidth truncates or pads s to exactly width terminal cells.
func fitWidth(s string, width int) string {
	if uniseg.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	if pad := width - uniseg.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
