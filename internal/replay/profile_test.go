package replay

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/pkg/request"
)

func TestProfileDefaults(t *testing.T) {
	tests := []struct {
		mode   string
		method string
		split  bool
		header []string
		suffix string
	}{
		{config.ModeResend, http.MethodPost, false, []string{"Report ID", "Result"}, "resend_results.csv"},
		{config.ModeReport, http.MethodGet, true, []string{"Report ID", "destinationCount", "overallStatus"}, "report_results.csv"},
		{config.ModePost, http.MethodPost, true, []string{"Report ID", "id", "submission id"}, "post_results.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			p := ProfileFor(&config.Config{Mode: tt.mode})
			assert.Equal(t, tt.method, p.Method)
			assert.Equal(t, tt.split, p.Split)
			assert.Equal(t, tt.header, p.Header([]string{"Report ID"}))
			assert.Equal(t, tt.suffix, p.Suffix)
			assert.Equal(t, tt.mode == config.ModePost, p.Payload)
		})
	}
}

func TestProfileOverrides(t *testing.T) {
	split := true
	p := ProfileFor(&config.Config{
		Mode: config.ModeResend,
		Target: config.TargetConfig{
			Method:         http.MethodPut,
			SplitFields:    &split,
			MinFields:      3,
			ResponseFields: []string{"status", "meta.count"},
		},
		Audit: config.AuditConfig{Suffix: "custom.csv"},
	})
	assert.Equal(t, http.MethodPut, p.Method)
	assert.True(t, p.Split)
	assert.Equal(t, 3, p.MinFields)
	assert.Equal(t, "custom.csv", p.Suffix)
	assert.Equal(t, []string{"status", "meta.count"}, p.Labels)
}

func TestProfileExtract(t *testing.T) {
	p := ProfileFor(&config.Config{Mode: config.ModePost})

	values, err := p.Extract(&request.Response{Body: []byte(`{"id":"abc","submissionId":7,"extra":true}`)}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "abc", "submission id": "7"}, values)

	_, err = p.Extract(&request.Response{Body: []byte(`{"id":"abc"}`)}, "")
	assert.ErrorIs(t, err, ErrResponseUnparseable)

	_, err = p.Extract(&request.Response{Body: []byte(`<html>`)}, "")
	assert.ErrorIs(t, err, ErrResponseUnparseable)

	raw := ProfileFor(&config.Config{Mode: config.ModeResend})
	values, err = raw.Extract(&request.Response{StatusCode: http.StatusNoContent}, "")
	require.NoError(t, err)
	assert.Equal(t, "204 No Content", values["Result"])
}

func TestProfileRow(t *testing.T) {
	p := ProfileFor(&config.Config{Mode: config.ModeReport})
	columns := []string{"Report ID", "Lab"}
	rec := &request.InputRecord{Line: 2, Raw: "r1,lab", Fields: []string{"r1", "lab"}}

	ok := p.Row(columns, &request.ReplayResult{
		Record:  rec,
		Success: true,
		Values:  map[string]string{"destinationCount": "1", "overallStatus": "Delivered"},
	})
	assert.Equal(t, []string{"r1", "lab", "1", "Delivered"}, ok)

	failed := p.Row(columns, &request.ReplayResult{
		Record: rec,
		Class:  request.FailureRequestFailed,
		Error:  "request failed: timeout",
	})
	assert.Equal(t, []string{"r1", "lab", "", "FAILED [RequestFailed]: request failed: timeout"}, failed)

	dry := p.Row(columns, &request.ReplayResult{Record: rec, Success: true, DryRun: true})
	assert.Equal(t, dryRunMarker, dry[3])
	assert.Empty(t, dry[2])

	broken := p.Row(columns, &request.ReplayResult{
		Record: &request.InputRecord{Line: 3, Raw: ` "unterminated `},
		Class:  request.FailureRecordMalformed,
		Error:  "bad",
	})
	assert.Equal(t, `"unterminated`, broken[0])
}

func TestClassify(t *testing.T) {
	assert.Equal(t, request.FailureNone, classify(nil))
	assert.Equal(t, request.FailureRecordMalformed, classify(fmt.Errorf("%w: x", ErrRecordMalformed)))
	assert.Equal(t, request.FailureResponseUnparseable, classify(fmt.Errorf("%w: x", ErrResponseUnparseable)))
	assert.Equal(t, request.FailureRequestFailed, classify(fmt.Errorf("%w: x", ErrRequestFailed)))
	assert.Equal(t, request.FailureRequestFailed, classify(fmt.Errorf("dial tcp: refused")))
}
