package lsp

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dhamidi/pcfg/grammar"
	"github.com/hashicorp/go-multierror"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const diagnosticSource = "pcfg"

// Diagnose reads text as a grammar and verifies it. Read errors and every
// verification violation become one diagnostic each. The grammar is nil when
// the text could not be read.
func Diagnose(filename, text string, tolerance float64) ([]protocol.Diagnostic, *grammar.Grammar) {
	lines := strings.Split(text, "\n")
	diagnostics := []protocol.Diagnostic{}

	g, err := grammar.Read(filename, strings.NewReader(text))
	if err != nil {
		for _, e := range flatten(err) {
			diagnostics = append(diagnostics, readDiagnostic(lines, e))
		}
		return diagnostics, nil
	}

	for _, e := range flatten(g.Verify(grammar.WithTolerance(tolerance))) {
		var shapeErr *grammar.ShapeError
		var probErr *grammar.ProbabilityError
		switch {
		case errors.As(e, &shapeErr):
			diagnostics = append(diagnostics, lineDiagnostic(lines, shapeErr.Rule.Line, protocol.DiagnosticSeverityError, e.Error()))
		case errors.As(e, &probErr):
			diagnostics = append(diagnostics, lineDiagnostic(lines, probErr.Line, protocol.DiagnosticSeverityError, e.Error()))
		default:
			diagnostics = append(diagnostics, lineDiagnostic(lines, 1, protocol.DiagnosticSeverityError, e.Error()))
		}
	}
	return diagnostics, g
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}

func readDiagnostic(lines []string, err error) protocol.Diagnostic {
	var readErr *grammar.ReadError
	if errors.As(err, &readErr) {
		d := lineDiagnostic(lines, readErr.Line, protocol.DiagnosticSeverityError, readErr.Msg)
		if readErr.Column > 1 {
			d.Range.Start.Character = protocol.UInteger(readErr.Column - 1)
		}
		return d
	}
	if errors.Is(err, grammar.ErrNoStart) {
		return lineDiagnostic(lines, 1, protocol.DiagnosticSeverityError, grammar.ErrNoStart.Error())
	}
	return lineDiagnostic(lines, 1, protocol.DiagnosticSeverityError, err.Error())
}

// lineDiagnostic covers the whole of the 1-based line.
func lineDiagnostic(lines []string, line int, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	if line < 1 {
		line = 1
	}
	width := 0
	if line <= len(lines) {
		width = utf8.RuneCountInString(strings.TrimRight(lines[line-1], "\r"))
	}
	source := diagnosticSource
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line - 1)},
			End:   protocol.Position{Line: protocol.UInteger(line - 1), Character: protocol.UInteger(width)},
		},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}
