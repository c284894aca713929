package request

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
)

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
		wantErr  error
	}{
		{
			name:     "Quoted comma is not a separator",
			raw:      `"a,b",c,d`,
			expected: []string{"a,b", "c", "d"},
		},
		{
			name:     "Quoted field after a space",
			raw:      `x, "a,b",c`,
			expected: []string{"x", "a,b", "c"},
		},
		{
			name:     "Plain fields",
			raw:      "123,waters,2024-01-01",
			expected: []string{"123", "waters", "2024-01-01"},
		},
		{
			name:     "Surrounding whitespace trimmed",
			raw:      " 123 , abc ",
			expected: []string{"123", "abc"},
		},
		{
			name:     "Trailing empty field kept",
			raw:      "123,",
			expected: []string{"123", ""},
		},
		{
			name:     "Stray quote tolerated",
			raw:      `12"3,abc`,
			expected: []string{`12"3`, "abc"},
		},
		{
			name:    "Blank line",
			raw:     "   ",
			wantErr: ErrEmptyRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord(7, tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(rec.Fields, tt.expected) {
				t.Fatalf("expected fields %q, got %q", tt.expected, rec.Fields)
			}
			if rec.Line != 7 || rec.Raw != tt.raw {
				t.Fatalf("record metadata not preserved: %+v", rec)
			}
		})
	}
}

func TestNewBareRecord(t *testing.T) {
	rec, err := NewBareRecord(3, "  9f1c,with,commas  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Fields) != 1 || rec.ID() != "9f1c,with,commas" {
		t.Fatalf("bare record should keep the whole line, got %q", rec.Fields)
	}

	if _, err := NewBareRecord(4, ""); !errors.Is(err, ErrEmptyRecord) {
		t.Fatalf("expected ErrEmptyRecord, got %v", err)
	}
}

func TestExpand(t *testing.T) {
	rec := &InputRecord{Line: 1, Fields: []string{"a b/c", "waters", "x"}}

	got, err := Expand("https://rs.example/api/waters/report/{id}/history", rec, url.PathEscape)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if got != "https://rs.example/api/waters/report/a%20b%2Fc/history" {
		t.Fatalf("unexpected url: %s", got)
	}

	got, err = Expand("{2}-{3}-{unknown}", rec, nil)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if got != "waters-x-{unknown}" {
		t.Fatalf("unexpected expansion: %s", got)
	}

	if _, err := Expand("{4}", rec, nil); err == nil {
		t.Fatal("expected error for missing field")
	}

	if got, _ := Expand("no placeholders", rec, nil); got != "no placeholders" {
		t.Fatalf("template without placeholders changed: %s", got)
	}
}

func TestMaxPlaceholder(t *testing.T) {
	if got := MaxPlaceholder("/x/{id}/{3}?q={2}"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := MaxPlaceholder("/static"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestCheckTemplate(t *testing.T) {
	if err := CheckTemplate("/x/{id}/{3}?q={name}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tmpl := range []string{"/x/{0}", "/x/{1}?q={-2}"} {
		if err := CheckTemplate(tmpl); err == nil {
			t.Fatalf("expected %s to be rejected", tmpl)
		}
	}
}

func TestRunSummaryAdd(t *testing.T) {
	s := &RunSummary{}
	s.Add(&ReplayResult{Success: true})
	s.Add(&ReplayResult{Class: FailureRequestFailed})
	s.Add(&ReplayResult{Class: FailureRequestFailed})
	s.Add(&ReplayResult{Class: FailurePayloadMissing})

	if s.Processed() != 4 || s.Succeeded != 1 || s.Failed != 3 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.Failures[FailureRequestFailed] != 2 || s.Failures[FailurePayloadMissing] != 1 {
		t.Fatalf("unexpected failure breakdown: %v", s.Failures)
	}
}
