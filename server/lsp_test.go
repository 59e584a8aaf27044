package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// tokenSpans
// ---------------------------------------------------------------------------

func TestTokenSpans_Simple(t *testing.T) {
	spans := tokenSpans("1,0,99")
	want := []span{{0, 1, "1"}, {2, 3, "0"}, {4, 6, "99"}}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("spans[%d] = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestTokenSpans_Whitespace(t *testing.T) {
	spans := tokenSpans(" 1 ,  2,3 \n4,5")
	want := []span{{1, 2, "1"}, {6, 7, "2"}, {8, 9, "3"}}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("spans[%d] = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestTokenSpans_Empty(t *testing.T) {
	spans := tokenSpans("")
	if len(spans) != 1 || spans[0].Text != "" {
		t.Errorf("tokenSpans(\"\") = %+v, want one empty span", spans)
	}
}

// ---------------------------------------------------------------------------
// diagnose
// ---------------------------------------------------------------------------

func TestDiagnose_Clean(t *testing.T) {
	diags := diagnose("1,9,10,3,2,3,11,0,99,30,40,50")
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %+v", diags)
	}
}

func TestDiagnose_ParseError(t *testing.T) {
	diags := diagnose("1,0,abc,0,99")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if *d.Severity != protocol.DiagnosticSeverityError {
		t.Errorf("severity = %v, want error", *d.Severity)
	}
	if d.Range.Start.Character != 4 || d.Range.End.Character != 7 {
		t.Errorf("range = %+v, want characters 4-7", d.Range)
	}
	if !strings.Contains(d.Message, "abc") {
		t.Errorf("message %q should name the token", d.Message)
	}
}

func TestDiagnose_UnknownOpcode(t *testing.T) {
	diags := diagnose("1,0,0,0,7,99")
	var found bool
	for _, d := range diags {
		if strings.Contains(d.Message, "unknown opcode 7") {
			found = true
			if d.Range.Start.Character != 8 {
				t.Errorf("range start = %d, want 8", d.Range.Start.Character)
			}
			if *d.Severity != protocol.DiagnosticSeverityError {
				t.Errorf("severity = %v, want error", *d.Severity)
			}
		}
	}
	if !found {
		t.Errorf("missing unknown opcode diagnostic in %+v", diags)
	}
}

func TestDiagnose_OperandOutOfRange(t *testing.T) {
	diags := diagnose("1,0,30,0,99")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	if *diags[0].Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("severity = %v, want warning", *diags[0].Severity)
	}
	if !strings.Contains(diags[0].Message, "address 30") {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestDiagnose_NoHalt(t *testing.T) {
	diags := diagnose("1,0,0,0")
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "no HALT") {
		t.Errorf("diagnostics = %+v, want missing HALT warning", diags)
	}
}

// ---------------------------------------------------------------------------
// hover
// ---------------------------------------------------------------------------

func TestHover_Opcode(t *testing.T) {
	h := hover("1,9,10,3,2,3,11,0,99,30,40,50", protocol.Position{Line: 0, Character: 0})
	if h == nil {
		t.Fatal("expected hover")
	}
	value := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(value, "ADD  [9] [10] -> [3]") {
		t.Errorf("hover = %q", value)
	}
}

func TestHover_Operand(t *testing.T) {
	// Cursor on "10", operand 2 of the ADD at 0
	h := hover("1,9,10,3,2,3,11,0,99,30,40,50", protocol.Position{Line: 0, Character: 5})
	if h == nil {
		t.Fatal("expected hover")
	}
	value := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(value, "**[2]** = `10`") || !strings.Contains(value, "operand 2") {
		t.Errorf("hover = %q", value)
	}
	if h.Range.Start.Character != 4 || h.Range.End.Character != 6 {
		t.Errorf("range = %+v, want 4-6", *h.Range)
	}
}

func TestHover_Data(t *testing.T) {
	h := hover("99,5", protocol.Position{Line: 0, Character: 3})
	if h == nil {
		t.Fatal("expected hover")
	}
	if value := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(value, "data") {
		t.Errorf("hover = %q", value)
	}
}

func TestHover_Outside(t *testing.T) {
	if h := hover("1,0,0,0,99", protocol.Position{Line: 1, Character: 0}); h != nil {
		t.Errorf("hover on line 1 = %+v, want nil", h)
	}
	if h := hover("1,x", protocol.Position{Line: 0, Character: 0}); h != nil {
		t.Errorf("hover on unparsable program = %+v, want nil", h)
	}
}

// ---------------------------------------------------------------------------
// server
// ---------------------------------------------------------------------------

func TestNewLSP(t *testing.T) {
	s := NewLSP()
	if s.server == nil {
		t.Fatal("server not constructed")
	}

	s.setDocument("file:///a.ic", "99")
	text, ok := s.document("file:///a.ic")
	if !ok || text != "99" {
		t.Errorf("document = %q, %v", text, ok)
	}
	if _, ok := s.document("file:///missing.ic"); ok {
		t.Error("unexpected document")
	}
}
