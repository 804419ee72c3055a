package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ramandpid/internal/dsp"
	"ramandpid/internal/spectrum"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrNoSpectrum    = errors.New("no spectrum loaded")
)

// Session holds the working state of one processing run: the spectrum
// being edited, the current baseline estimate, marked peaks, fit results,
// and a human-readable log of every step taken.
type Session struct {
	ID         uuid.UUID
	SourcePath string
	Spectrum   *spectrum.Spectrum
	Baseline   []float64
	PeaksX     []float64
	PeaksY     []float64
	FitStats   []dsp.PeakStat
	Log        []string

	// AnchorsX and AnchorsY hold the movable control points of a
	// discretized baseline. Empty until DiscretizeBaseline runs.
	AnchorsX []float64
	AnchorsY []float64

	history History
}

// New creates an empty session.
func New() *Session {
	return &Session{ID: uuid.New()}
}

// Apply executes a command through the session's history so it can be
// undone later.
func (s *Session) Apply(cmd Command) error {
	return s.history.Execute(s, cmd)
}

// Undo reverts the most recent command.
func (s *Session) Undo() error {
	return s.history.Undo(s)
}

// Redo re-applies the most recently undone command.
func (s *Session) Redo() error {
	return s.history.Redo(s)
}

func (s *Session) logf(format string, args ...any) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// Command is one reversible processing step.
type Command interface {
	Name() string
	Execute(*Session) error
	Undo(*Session)
}

// History tracks executed commands with a cursor so undone commands can be
// redone. Executing a new command discards any redoable tail.
type History struct {
	commands []Command
	cursor   int
}

// Execute runs cmd and records it. The redo tail is truncated first so the
// history stays linear.
func (h *History) Execute(s *Session, cmd Command) error {
	if err := cmd.Execute(s); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	h.commands = append(h.commands[:h.cursor], cmd)
	h.cursor++
	return nil
}

func (h *History) Undo(s *Session) error {
	if h.cursor == 0 {
		return ErrNothingToUndo
	}
	h.cursor--
	h.commands[h.cursor].Undo(s)
	s.logf("undid %s", h.commands[h.cursor].Name())
	return nil
}

func (h *History) Redo(s *Session) error {
	if h.cursor >= len(h.commands) {
		return ErrNothingToRedo
	}
	cmd := h.commands[h.cursor]
	if err := cmd.Execute(s); err != nil {
		return fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	h.cursor++
	return nil
}

// Len reports how many commands are currently applied.
func (h *History) Len() int {
	return h.cursor
}
