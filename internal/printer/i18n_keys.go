package printer

const (
	keyResultOK         = "cli.result.ok"
	keyResultFailed     = "cli.result.failed"
	keyResultDryRun     = "cli.result.dry_run"
	keyResultLine       = "cli.result.line"
	keyResultStatus     = "cli.result.status"
	keyResultCause      = "cli.result.cause"
	keySummaryTitle     = "cli.summary.title"
	keySummaryMode      = "cli.summary.mode"
	keySummaryLines     = "cli.summary.lines"
	keySummaryProcessed = "cli.summary.processed"
	keySummarySucceeded = "cli.summary.succeeded"
	keySummaryFailed    = "cli.summary.failed"
	keySummarySkipped   = "cli.summary.skipped"
	keySummaryAuditFile = "cli.summary.audit_file"
	keySummaryElapsed   = "cli.summary.elapsed"
	keySummaryFatal     = "cli.summary.fatal"
)

var fallbackText = map[string]string{
	keyResultOK:         "OK",
	keyResultFailed:     "FAILED",
	keyResultDryRun:     "DRY-RUN",
	keyResultLine:       "Line %d",
	keyResultStatus:     "Status",
	keyResultCause:      "Cause",
	keySummaryTitle:     "Replay Summary",
	keySummaryMode:      "Mode",
	keySummaryLines:     "Lines read",
	keySummaryProcessed: "Processed",
	keySummarySucceeded: "Succeeded",
	keySummaryFailed:    "Failed",
	keySummarySkipped:   "Skipped",
	keySummaryAuditFile: "Audit file",
	keySummaryElapsed:   "Elapsed",
	keySummaryFatal:     "Aborted",
}
