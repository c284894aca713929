package request

import (
	"net/http"
	"time"
)

// FailureClass names the per-record failure categories
type FailureClass string

const (
	FailureNone                FailureClass = ""
	FailureRecordMalformed     FailureClass = "RecordMalformed"
	FailurePayloadMissing      FailureClass = "PayloadMissing"
	FailureRequestFailed       FailureClass = "RequestFailed"
	FailureResponseUnparseable FailureClass = "ResponseUnparseable"
)

// ReplayRequest represents one outbound request derived from an input record
type ReplayRequest struct {
	Record      *InputRecord `json:"record"`
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	Headers     http.Header  `json:"headers"`
	Body        []byte       `json:"body,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
}

// Response summarizes what the reporting service answered
type Response struct {
	StatusCode  int           `json:"status_code"`
	ContentType string        `json:"content_type"`
	Body        []byte        `json:"body"`
	Elapsed     time.Duration `json:"elapsed"`
}

// ReplayResult is the outcome of processing one record. It is never
// mutated after the driver hands it to the audit sink.
type ReplayResult struct {
	Record     *InputRecord      `json:"record"`
	Method     string            `json:"method,omitempty"`
	URL        string            `json:"url,omitempty"`
	Success    bool              `json:"success"`
	DryRun     bool              `json:"dry_run,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Body       string            `json:"body,omitempty"`
	Values     map[string]string `json:"values,omitempty"`
	Class      FailureClass      `json:"failure_class,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	Elapsed    time.Duration     `json:"elapsed"`
}

// RunSummary aggregates a finished run
type RunSummary struct {
	RunID     string               `json:"run_id"`
	Mode      string               `json:"mode"`
	AuditPath string               `json:"audit_path"`
	Lines     int                  `json:"lines"`
	Skipped   int                  `json:"skipped"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Failures  map[FailureClass]int `json:"failures,omitempty"`
	StartedAt time.Time            `json:"started_at"`
	Elapsed   time.Duration        `json:"elapsed"`
	Fatal     string               `json:"fatal,omitempty"`
}

// Processed returns the number of records that produced an audit row
func (s *RunSummary) Processed() int {
	return s.Succeeded + s.Failed
}

// Add counts a result into the summary
func (s *RunSummary) Add(res *ReplayResult) {
	if res.Success {
		s.Succeeded++
		return
	}
	s.Failed++
	if s.Failures == nil {
		s.Failures = make(map[FailureClass]int)
	}
	s.Failures[res.Class]++
}
