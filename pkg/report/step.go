// Package report holds the human-facing output of a solve: the ordered
// step log and the phasor diagram and chart exports.
package report

import (
	"fmt"
	"io"
	"strings"
)

// Kind tags a step so a UI can render equations apart from results.
type Kind int

const (
	Info Kind = iota
	Equations
	Result
	Error
)

func (k Kind) String() string {
	switch k {
	case Info:
		return "info"
	case Equations:
		return "equations"
	case Result:
		return "result"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Step is one entry of the solution log.
type Step struct {
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Math        []string `json:"math,omitempty"` // LaTeX lines
}

// Log is an append-only sequence of steps.
type Log struct {
	steps []Step
}

func (l *Log) Append(s Step) {
	s.Math = append([]string(nil), s.Math...)
	l.steps = append(l.steps, s)
}

func (l *Log) Add(kind Kind, title, description string, math ...string) {
	l.Append(Step{Kind: kind, Title: title, Description: description, Math: math})
}

func (l *Log) Extend(steps []Step) {
	for _, s := range steps {
		l.Append(s)
	}
}

// Steps returns a copy of the log.
func (l *Log) Steps() []Step {
	return append([]Step(nil), l.steps...)
}

func (l *Log) Len() int { return len(l.steps) }

// Last returns the most recent step.
func (l *Log) Last() (Step, bool) {
	if len(l.steps) == 0 {
		return Step{}, false
	}
	return l.steps[len(l.steps)-1], true
}

// Print writes steps as plain text.
func Print(w io.Writer, steps []Step) {
	for i, s := range steps {
		fmt.Fprintf(w, "[%d] %s", i+1, s.Title)
		if s.Kind != Info {
			fmt.Fprintf(w, " (%s)", s.Kind)
		}
		fmt.Fprintln(w)

		if s.Description != "" {
			fmt.Fprintf(w, "    %s\n", s.Description)
		}
		for _, line := range s.Math {
			fmt.Fprintf(w, "    %s\n", strings.TrimSpace(line))
		}
	}
}
