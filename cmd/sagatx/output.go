package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"

	"github.com/solanasaga/saga-tx-go/lifecycle"
)

var phaseColors = map[lifecycle.Phase]*color.Color{
	lifecycle.PhasePreparing:  color.New(color.FgCyan),
	lifecycle.PhaseSigning:    color.New(color.FgYellow),
	lifecycle.PhaseSending:    color.New(color.FgYellow),
	lifecycle.PhaseConfirming: color.New(color.FgBlue),
	lifecycle.PhaseConfirmed:  color.New(color.FgGreen, color.Bold),
	lifecycle.PhaseError:      color.New(color.FgRed, color.Bold),
}

// formatState renders one phase event as a single line.
func formatState(s lifecycle.State) string {
	label := fmt.Sprintf("%-10s", s.Phase)
	if c, ok := phaseColors[s.Phase]; ok {
		label = c.Sprint(label)
	}

	line := fmt.Sprintf("[attempt %d] %s", s.Attempt, label)
	if s.Signature != (solana.Signature{}) {
		line += " " + s.Signature.String()
	}
	if s.Reason != "" {
		line += " " + s.Reason
	}
	return line
}

// phasePrinter returns an observer that prints each phase change to w.
func phasePrinter(w io.Writer) func(lifecycle.State) {
	return func(s lifecycle.State) {
		if s.Phase == lifecycle.PhaseIdle {
			return
		}
		fmt.Fprintln(w, formatState(s))
	}
}
