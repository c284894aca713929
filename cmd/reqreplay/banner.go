package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/funnyzak/reqreplay/internal/audit"
	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/internal/replay"
	"github.com/mattn/go-runewidth"
)

const minBoxWidth = 50

func bannerLines(cfg *config.Config, driver *replay.Driver) []string {
	profile := driver.Profile()

	var lines []string
	lines = append(lines, fmt.Sprintf("ReqReplay v%s", version), "CSV Replay & Audit Tool", "")

	input := cfg.Input.Path
	if cfg.Input.SkipFirstLine {
		input += " (header skipped)"
	}
	lines = append(lines, fmt.Sprintf("🔁 Mode:           %s", profile.Mode))
	lines = append(lines, fmt.Sprintf("📄 Input:          %s", input))
	lines = append(lines, fmt.Sprintf("🎯 Target:         %s %s", profile.Method, cfg.Target.URL))
	for _, q := range cfg.Target.Query {
		lines = append(lines, fmt.Sprintf("   └─ Query:       %s", q))
	}
	if profile.Payload {
		lines = append(lines, fmt.Sprintf("📦 Payloads:       %s", filepath.Join(cfg.Payload.Directory, "<id>"+cfg.Payload.Extension)))
	}
	lines = append(lines, fmt.Sprintf("⏱️ Wait:           %ds between requests", cfg.Throttle.WaitTimeSeconds))
	lines = append(lines, fmt.Sprintf("🧾 Audit:          %s",
		filepath.Join(cfg.Audit.Directory, strings.Repeat("X", len(audit.TimestampLayout))+"_"+profile.Suffix)))
	lines = append(lines, fmt.Sprintf("   └─ Columns:     %s", strings.Join(driver.AuditHeader(), ", ")))
	lines = append(lines, fmt.Sprintf("🆔 Run ID:         %s", driver.RunID()))

	if cfg.DryRun {
		lines = append(lines, "", "⚠️ Dry run: no request will be sent")
	}

	lines = append(lines, "")
	if cfg.Log.FileLogging.Enable {
		lines = append(lines, fmt.Sprintf("💾 File Logging:   %s", cfg.Log.FileLogging.Path))
	} else {
		lines = append(lines, "💾 File Logging:   Disabled")
	}

	lines = append(lines, "", "(Press Ctrl+C to stop)")
	return lines
}

func printStartupBanner(w io.Writer, cfg *config.Config, driver *replay.Driver) {
	lines := bannerLines(cfg, driver)

	maxLength := 0
	for _, line := range lines {
		if width := runewidth.StringWidth(line); width > maxLength {
			maxLength = width
		}
	}
	boxWidth := maxLength + 4
	if boxWidth < minBoxWidth {
		boxWidth = minBoxWidth
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	printBoxContent(w, lines[0], boxWidth, true)
	printBoxContent(w, lines[1], boxWidth, true)
	fmt.Fprintf(w, "├%s┤\n", strings.Repeat("─", boxWidth-2))
	for _, line := range lines[3:] {
		printBoxContent(w, line, boxWidth, false)
	}
	fmt.Fprintf(w, "└%s┘\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintln(w)
}

// printBoxContent pads content to the box width using its display width
func printBoxContent(w io.Writer, content string, boxWidth int, center bool) {
	padding := boxWidth - 2 - runewidth.StringWidth(content)
	if padding < 0 {
		padding = 0
	}

	var leftPad, rightPad string
	if center {
		leftPad = strings.Repeat(" ", padding/2)
		rightPad = strings.Repeat(" ", padding-padding/2)
	} else {
		leftPad = "  "
		rightPad = strings.Repeat(" ", max(padding-2, 0))
	}
	fmt.Fprintf(w, "│%s%s%s│\n", leftPad, content, rightPad)
}
