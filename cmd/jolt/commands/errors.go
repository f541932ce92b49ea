package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/teranos/jolt/am"
	"github.com/teranos/jolt/display"
	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/eval"
)

// PrintError writes a fatal error and its hints for a terminal user.
// Expression errors show the expression with a caret under the failure.
// Styling is dropped unless color resolves to on for w.
func PrintError(w io.Writer, err error, color display.Color) {
	if !display.UseColor(w, color) {
		pterm.DisableStyling()
		defer pterm.EnableStyling()
	}

	var perr *eval.ParseError
	if errors.As(err, &perr) {
		fmt.Fprintln(w, perr.FormatError(eval.ErrorContextTerminal))
	} else {
		fmt.Fprint(w, pterm.Error.Sprintln(err.Error()))
	}

	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprint(w, pterm.Info.Sprintln(hint))
	}
}

// ErrorColor is the effective output.color setting, including --color.
// It falls back to auto when the setting itself is invalid.
func ErrorColor() display.Color {
	c, err := display.ParseColor(am.GetString("output.color"))
	if err != nil {
		return display.ColorAuto
	}
	return c
}
