package printer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/funnyzak/reqreplay/pkg/request"
)

func TestJSONPrinter_PrintResultAndSummary(t *testing.T) {
	p := NewJSONPrinter(noopLogger{})
	buf := &bytes.Buffer{}
	p.SetOutput(buf)

	res := &request.ReplayResult{
		Record:     &request.InputRecord{Line: 2, Raw: "abc", Fields: []string{"abc"}},
		Success:    true,
		StatusCode: 200,
		Body:       "<ok>",
		Elapsed:    250 * time.Millisecond,
	}
	if err := p.PrintResult(res); err != nil {
		t.Fatalf("print result failed: %v", err)
	}
	summary := &request.RunSummary{RunID: "r", Succeeded: 1, Elapsed: time.Second}
	if err := p.PrintSummary(summary); err != nil {
		t.Fatalf("print summary failed: %v", err)
	}

	raw := append([]byte(nil), buf.Bytes()...)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	var lines []map[string]interface{}
	for scanner.Scan() {
		var decoded map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		lines = append(lines, decoded)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %d", len(lines))
	}
	if lines[0]["type"] != "result" || lines[0]["elapsed_ms"] != float64(250) {
		t.Fatalf("unexpected result envelope: %v", lines[0])
	}
	if !bytes.Contains(raw, []byte("<ok>")) {
		t.Fatal("html characters should not be escaped")
	}
	if lines[1]["type"] != "summary" || lines[1]["processed"] != float64(1) {
		t.Fatalf("unexpected summary envelope: %v", lines[1])
	}
}
