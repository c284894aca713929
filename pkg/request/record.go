package request

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyRecord indicates a line that carries no value at all
var ErrEmptyRecord = errors.New("empty record")

// InputRecord represents one line of the input file
type InputRecord struct {
	Line   int      `json:"line"`
	Raw    string   `json:"raw"`
	Fields []string `json:"fields"`
}

// NewBareRecord creates a record whose only field is the whole trimmed line.
func NewBareRecord(line int, raw string) (*InputRecord, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return &InputRecord{Line: line, Raw: raw}, ErrEmptyRecord
	}
	return &InputRecord{Line: line, Raw: raw, Fields: []string{value}}, nil
}

// DecodeRecord splits a line into comma separated fields. Double quotes
// protect embedded commas, so `"a,b",c,d` yields three fields.
func DecodeRecord(line int, raw string) (*InputRecord, error) {
	rec := &InputRecord{Line: line, Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return rec, ErrEmptyRecord
	}

	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// a quote opening after ", " still protects its commas
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	fields, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return rec, ErrEmptyRecord
		}
		return rec, fmt.Errorf("split line %d: %w", line, err)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	rec.Fields = fields
	return rec, nil
}

// ID returns the record identifier (the first field)
func (r *InputRecord) ID() string {
	if r == nil || len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0]
}

// Field returns the 1-based field n, or false when the record is shorter.
func (r *InputRecord) Field(n int) (string, bool) {
	if r == nil || n < 1 || n > len(r.Fields) {
		return "", false
	}
	return r.Fields[n-1], true
}
