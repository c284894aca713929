package replay

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/pkg/request"
	"github.com/tidwall/gjson"
)

// Markers written into the last audit column
const (
	failedMarker = "FAILED"
	dryRunMarker = "DRY-RUN"
)

// Profile holds the per-mode request and audit shape. Configuration
// overrides are already applied.
type Profile struct {
	Mode      string
	Method    string
	Split     bool
	MinFields int
	Payload   bool
	Suffix    string
	// Fields are the JSON paths read from the response; empty means the
	// raw body is the result
	Fields []string
	// Labels are the audit column names of the result values
	Labels []string
}

// ProfileFor resolves the profile of cfg.Mode
func ProfileFor(cfg *config.Config) Profile {
	var p Profile
	switch cfg.Mode {
	case config.ModeReport:
		p = Profile{
			Method:    http.MethodGet,
			Split:     true,
			MinFields: 1,
			Fields:    []string{"destinationCount", "overallStatus"},
			Labels:    []string{"destinationCount", "overallStatus"},
		}
	case config.ModePost:
		p = Profile{
			Method:    http.MethodPost,
			Split:     true,
			MinFields: 1,
			Payload:   true,
			Fields:    []string{"id", "submissionId"},
			Labels:    []string{"id", "submission id"},
		}
	default:
		p = Profile{
			Method:    http.MethodPost,
			MinFields: 1,
			Labels:    []string{"Result"},
		}
	}
	p.Mode = cfg.Mode
	p.Suffix = cfg.Mode + "_results.csv"

	if cfg.Target.Method != "" {
		p.Method = cfg.Target.Method
	}
	if cfg.Target.SplitFields != nil {
		p.Split = *cfg.Target.SplitFields
	}
	if cfg.Target.MinFields > p.MinFields {
		p.MinFields = cfg.Target.MinFields
	}
	if strings.TrimSpace(cfg.Payload.Directory) != "" {
		p.Payload = true
	}
	if cfg.Audit.Suffix != "" {
		p.Suffix = cfg.Audit.Suffix
	}
	if len(cfg.Target.ResponseFields) > 0 {
		p.Fields = append([]string(nil), cfg.Target.ResponseFields...)
		p.Labels = append([]string(nil), cfg.Target.ResponseFields...)
	}
	return p
}

// Header returns the audit header: the record columns then the result labels
func (p Profile) Header(columns []string) []string {
	header := make([]string, 0, len(columns)+len(p.Labels))
	header = append(header, columns...)
	return append(header, p.Labels...)
}

// Decode turns a raw line into a record, splitting it when the mode needs
// individual fields.
func (p Profile) Decode(line int, raw string) (*request.InputRecord, error) {
	if p.Split {
		return request.DecodeRecord(line, raw)
	}
	return request.NewBareRecord(line, raw)
}

// Extract reads the result values out of a response
func (p Profile) Extract(resp *request.Response, summary string) (map[string]string, error) {
	if len(p.Fields) == 0 {
		text := summary
		if text == "" && resp != nil {
			text = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		values := make(map[string]string, len(p.Labels))
		for _, label := range p.Labels {
			values[label] = text
		}
		return values, nil
	}

	if resp == nil || !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrResponseUnparseable)
	}
	values := make(map[string]string, len(p.Fields))
	var missing []string
	for i, path := range p.Fields {
		result := gjson.GetBytes(resp.Body, path)
		if !result.Exists() {
			missing = append(missing, path)
			continue
		}
		values[p.Labels[i]] = result.String()
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrResponseUnparseable, strings.Join(missing, ", "))
	}
	return values, nil
}

// Row projects a result onto the audit header. The leading record fields
// fill the record columns; failure and dry-run rows leave the result
// columns empty and put their marker in the last one.
func (p Profile) Row(columns []string, res *request.ReplayResult) []string {
	row := make([]string, len(columns)+len(p.Labels))
	for i := range columns {
		if value, ok := res.Record.Field(i + 1); ok {
			row[i] = value
		}
	}
	if len(columns) > 0 && row[0] == "" && res.Record != nil {
		// unsplit or empty records keep their raw text visible
		row[0] = strings.TrimSpace(res.Record.Raw)
	}

	last := len(row) - 1
	switch {
	case res.DryRun:
		row[last] = dryRunMarker
	case res.Success:
		for i, label := range p.Labels {
			row[len(columns)+i] = res.Values[label]
		}
	default:
		row[last] = fmt.Sprintf("%s [%s]: %s", failedMarker, res.Class, res.Error)
	}
	return row
}
