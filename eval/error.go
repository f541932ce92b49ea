package eval

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ErrorContext selects how a ParseError renders
type ErrorContext int

const (
	ErrorContextPlain    ErrorContext = iota // logs and JSON output
	ErrorContextTerminal                     // colored, with a caret under the source
)

// ParseError describes an expression that failed to compile
type ParseError struct {
	Source      string // the full expression
	Position    int    // 0-based byte offset of the failure
	Message     string
	Suggestions []string
}

func (e *ParseError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// FormatError renders the error for ctx
func (e *ParseError) FormatError(ctx ErrorContext) string {
	if ctx == ErrorContextPlain {
		msg := fmt.Sprintf("%s at column %d", e.Message, e.Position+1)
		if len(e.Suggestions) > 0 {
			msg += ". Suggestions: " + strings.Join(e.Suggestions, ", ")
		}
		return msg
	}

	var b strings.Builder
	b.WriteString(pterm.Red(e.Message))
	b.WriteString("\n\n  ")
	b.WriteString(e.Source)
	b.WriteString("\n  ")
	b.WriteString(strings.Repeat(" ", e.Position))
	b.WriteString(pterm.Yellow("^"))
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\n")
		b.WriteString(pterm.Green("Suggestions:"))
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func newParseError(src string, pos int, format string, args ...any) *ParseError {
	return &ParseError{Source: src, Position: pos, Message: fmt.Sprintf(format, args...)}
}

func (e *ParseError) withSuggestions(s ...string) *ParseError {
	e.Suggestions = append(e.Suggestions, s...)
	return e
}
