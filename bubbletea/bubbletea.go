// Package bubbletea provides the interactive Bubble Tea TUI for pitch.
//
// The model owns one session controller. Snapshots published by the
// controller reach the model through a channel fed by [Forward]; the model
// renders the latest one and ignores any from an older generation.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/pitch"
)

// Controller is the part of [*pitch.Controller] the TUI drives.
type Controller interface {
	Submit(q pitch.Query) (pitch.Ticket, error)
	Cancel()
	Close()
}

var _ Controller = (*pitch.Controller)(nil)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits. Any in-flight session is cancelled before Run returns.
func Run(ctx context.Context, m Model) error {
	defer m.ctrl.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// SnapshotMsg delivers a controller snapshot to the model.
type SnapshotMsg struct {
	Snapshot pitch.Snapshot
}

// Forward returns an update handler for [pitch.WithUpdateHandler] that sends
// snapshots to ch without blocking. When ch is full the oldest queued
// snapshot is dropped; every snapshot is complete, so only the newest
// matters.
func Forward(ch chan pitch.Snapshot) func(pitch.Snapshot) {
	return func(s pitch.Snapshot) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

// listenForSnapshot waits for the next snapshot. A closed channel ends the
// subscription.
func listenForSnapshot(ch <-chan pitch.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: s}
	}
}
