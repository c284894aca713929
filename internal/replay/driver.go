package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/funnyzak/reqreplay/internal/audit"
	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/internal/forwarder"
	"github.com/funnyzak/reqreplay/internal/logger"
	"github.com/funnyzak/reqreplay/internal/printer"
	"github.com/funnyzak/reqreplay/internal/source"
	"github.com/funnyzak/reqreplay/pkg/request"
)

// ErrInterrupted is returned when the run context is cancelled
var ErrInterrupted = errors.New("run interrupted")

// Sender issues one request and returns the service response
type Sender interface {
	Send(ctx context.Context, req *request.ReplayRequest) (*request.Response, error)
}

// Driver replays an input file record by record
type Driver struct {
	cfg      *config.Config
	profile  Profile
	builder  *Builder
	sender   Sender
	printer  printer.Printer
	logger   logger.Logger
	throttle *Throttle
	runID    string
	now      func() time.Time
}

// NewDriver creates a driver for cfg.Mode. out may be nil.
func NewDriver(cfg *config.Config, sender Sender, out printer.Printer, log logger.Logger) (*Driver, error) {
	if sender == nil && !cfg.DryRun {
		return nil, fmt.Errorf("sender is required unless dry run is enabled")
	}
	profile := ProfileFor(cfg)
	builder, err := NewBuilder(cfg, profile)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = printer.Nop{}
	}
	return &Driver{
		cfg:      cfg,
		profile:  profile,
		builder:  builder,
		sender:   sender,
		printer:  out,
		logger:   log,
		throttle: NewThrottle(cfg.WaitTime(), cfg.Throttle.PollInterval),
		runID:    uuid.NewString(),
		now:      time.Now,
	}, nil
}

// RunID identifies this run in logs and the summary
func (d *Driver) RunID() string {
	return d.runID
}

// Profile returns the resolved mode profile
func (d *Driver) Profile() Profile {
	return d.profile
}

// AuditHeader returns the header row of the audit file
func (d *Driver) AuditHeader() []string {
	return d.profile.Header(d.cfg.Audit.Columns)
}

// Run replays the whole input. The audit file is opened first so that an
// unavailable input still leaves a header-only audit file behind. A non-nil
// error means the run stopped early; the summary is always returned.
func (d *Driver) Run(ctx context.Context) (*request.RunSummary, error) {
	startedAt := d.now()
	summary := &request.RunSummary{
		RunID:     d.runID,
		Mode:      d.profile.Mode,
		StartedAt: startedAt,
	}
	log := d.logger.With("run_id", d.runID, "mode", d.profile.Mode)

	sink, err := audit.Open(d.cfg.Audit.Directory, d.profile.Suffix, startedAt, d.AuditHeader())
	if err != nil {
		err = fmt.Errorf("open audit file: %w", err)
		log.Error("Cannot create audit file", "error", err)
		d.finish(summary, startedAt, err)
		return summary, err
	}
	summary.AuditPath = sink.Path()
	log.Info("Replay started",
		"input", d.cfg.Input.Path,
		"audit", sink.Path(),
		"wait", d.cfg.WaitTime(),
		"dry_run", d.cfg.DryRun,
	)

	err = d.replay(ctx, sink, summary, log)
	if closeErr := sink.Close(); closeErr != nil {
		log.Error("Failed to close audit file", "path", sink.Path(), "error", closeErr)
		if err == nil {
			err = fmt.Errorf("close audit file: %w", closeErr)
		}
	}

	d.finish(summary, startedAt, err)
	if err != nil {
		log.Error("Replay aborted", "error", err, "processed", summary.Processed())
	} else {
		log.Info("Replay finished",
			"processed", summary.Processed(),
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
			"elapsed", summary.Elapsed,
		)
	}
	return summary, err
}

func (d *Driver) finish(summary *request.RunSummary, startedAt time.Time, err error) {
	summary.Elapsed = d.now().Sub(startedAt)
	if err != nil {
		summary.Fatal = err.Error()
	}
	if perr := d.printer.PrintSummary(summary); perr != nil {
		d.logger.Warn("Failed to print summary", "error", perr)
	}
}

func (d *Driver) replay(ctx context.Context, sink *audit.Sink, summary *request.RunSummary, log logger.Logger) error {
	reader, err := source.Open(d.cfg.Input.Path, d.cfg.Input.MaxLineBytes)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			log.Warn("Failed to close input", "error", cerr)
		}
	}()

	var prevStart time.Time
	started := false
	for {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
		}
		line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		summary.Lines++

		if line.Number == 1 && d.cfg.Input.SkipFirstLine {
			summary.Skipped++
			log.Debug("Skipping header line", "text", line.Text)
			continue
		}

		if started {
			if err := d.throttle.Wait(ctx, prevStart); err != nil {
				return fmt.Errorf("%w: %v", ErrInterrupted, err)
			}
		}
		prevStart = d.now()
		started = true

		res := d.process(ctx, line, prevStart, log)
		summary.Add(res)
		if err := sink.Write(d.profile.Row(d.cfg.Audit.Columns, res)); err != nil {
			return err
		}
		if err := d.printer.PrintResult(res); err != nil {
			log.Warn("Failed to print result", "line", line.Number, "error", err)
		}
	}
}

// process handles one record. Every failure is folded into the result.
func (d *Driver) process(ctx context.Context, line source.Line, startedAt time.Time, log logger.Logger) *request.ReplayResult {
	res := &request.ReplayResult{StartedAt: startedAt}
	defer func() {
		res.Elapsed = d.now().Sub(startedAt)
	}()

	rec, err := d.profile.Decode(line.Number, line.Text)
	res.Record = rec
	if err != nil {
		return d.fail(res, fmt.Errorf("%w: %v", ErrRecordMalformed, err), log)
	}

	req, err := d.builder.Build(rec)
	if err != nil {
		return d.fail(res, err, log)
	}
	res.Method = req.Method
	res.URL = req.URL

	if d.cfg.DryRun {
		res.Success = true
		res.DryRun = true
		log.Info("Dry run", "line", line.Number, "method", req.Method, "url", req.URL)
		return res
	}

	resp, err := d.sender.Send(ctx, req)
	summaryText := ""
	if resp != nil {
		res.StatusCode = resp.StatusCode
		summaryText = forwarder.SummarizeBody(resp.ContentType, resp.Body, d.cfg.HTTP.MaxErrorChars)
		res.Body = summaryText
	}
	if err != nil {
		if summaryText != "" {
			err = fmt.Errorf("%w: %w: %s", ErrRequestFailed, err, summaryText)
		} else {
			err = fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		return d.fail(res, err, log)
	}

	values, err := d.profile.Extract(resp, summaryText)
	if err != nil {
		return d.fail(res, err, log)
	}
	res.Values = values
	res.Success = true
	log.Debug("Record replayed",
		"line", line.Number,
		"id", rec.ID(),
		"status", resp.StatusCode,
		"elapsed", resp.Elapsed,
	)
	return res
}

func (d *Driver) fail(res *request.ReplayResult, err error, log logger.Logger) *request.ReplayResult {
	res.Success = false
	res.Class = classify(err)
	res.Error = err.Error()
	raw := ""
	if res.Record != nil {
		raw = res.Record.Raw
	}
	log.Warn("Record failed",
		"line", lineOf(res.Record),
		"record", raw,
		"class", string(res.Class),
		"error", err,
	)
	return res
}

func lineOf(rec *request.InputRecord) int {
	if rec == nil {
		return 0
	}
	return rec.Line
}
