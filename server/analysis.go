package server

import (
	"errors"
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/intcode/pkg/intcode"
)

// span locates one comma-separated token on the first line of a document.
// Start and End are character offsets of the trimmed token.
type span struct {
	Start int
	End   int
	Text  string
}

// tokenSpans splits the first line of text the same way intcode.Parse does.
func tokenSpans(text string) []span {
	line, _, _ := strings.Cut(text, "\n")

	var spans []span
	start := 0
	for {
		end := strings.IndexByte(line[start:], ',')
		field := line[start:]
		if end >= 0 {
			field = line[start : start+end]
		}

		lead := len(field) - len(strings.TrimLeft(field, " \t\r\v\f"))
		trimmed := strings.TrimSpace(field)
		spans = append(spans, span{
			Start: start + lead,
			End:   start + lead + len(trimmed),
			Text:  trimmed,
		})

		if end < 0 {
			return spans
		}
		start += end + 1
	}
}

func (sp span) lspRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: protocol.UInteger(sp.Start)},
		End:   protocol.Position{Line: 0, Character: protocol.UInteger(sp.End)},
	}
}

func newDiagnostic(r protocol.Range, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	source := lspName
	return protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

// diagnose reports load errors, or else the problems a linear sweep finds:
// undecodable instructions, operands outside memory and a missing HALT.
func diagnose(text string) []protocol.Diagnostic {
	spans := tokenSpans(text)

	mem, err := intcode.Parse(text)
	if err != nil {
		var pe *intcode.ParseError
		r := protocol.Range{}
		if errors.As(err, &pe) && pe.Index < len(spans) {
			r = spans[pe.Index].lspRange()
		}
		return []protocol.Diagnostic{newDiagnostic(r, protocol.DiagnosticSeverityError, err.Error())}
	}

	diagnostics := []protocol.Diagnostic{}
	halts := false
	for _, l := range intcode.Sweep(mem) {
		r := spans[l.Addr].lspRange()
		if l.Err != nil {
			diagnostics = append(diagnostics, newDiagnostic(r, protocol.DiagnosticSeverityError, l.Err.Error()))
			continue
		}
		if l.Data {
			continue
		}
		if l.Inst.Op == intcode.OpHalt {
			halts = true
			continue
		}
		if err := l.OperandFault(mem.Len()); err != nil {
			// Operands are usually patched at run time, so this is only a warning.
			diagnostics = append(diagnostics, newDiagnostic(r, protocol.DiagnosticSeverityWarning, err.Error()))
		}
	}

	if !halts {
		diagnostics = append(diagnostics, newDiagnostic(spans[0].lspRange(), protocol.DiagnosticSeverityWarning,
			"no HALT reachable by straight-line execution"))
	}
	return diagnostics
}

// hover describes the cell under the cursor.
func hover(text string, pos protocol.Position) *protocol.Hover {
	if pos.Line != 0 {
		return nil
	}

	spans := tokenSpans(text)
	idx := -1
	for i, sp := range spans {
		if int(pos.Character) >= sp.Start && int(pos.Character) <= sp.End && sp.Text != "" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	mem, err := intcode.Parse(text)
	if err != nil {
		return nil
	}
	addr := intcode.Cell(idx)
	value, _ := mem.Get(addr)

	var b strings.Builder
	fmt.Fprintf(&b, "**[%d]** = `%d`\n\n", addr, value)

	if l, ok := intcode.LineAt(intcode.Sweep(mem), addr); ok {
		switch {
		case l.Err != nil:
			fmt.Fprintf(&b, "%v", l.Err)
		case l.Data:
			b.WriteString("data")
		case l.Addr == addr:
			fmt.Fprintf(&b, "`%s`", l.Inst)
		default:
			fmt.Fprintf(&b, "operand %d of `%s` at [%d]", addr-l.Addr, l.Inst, l.Addr)
		}
	}

	r := spans[idx].lspRange()
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &r,
	}
}
