package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/internal/replay"
)

func bannerConfig() *config.Config {
	return &config.Config{
		Mode:     config.ModePost,
		DryRun:   true,
		Input:    config.InputConfig{Path: "reports.csv", SkipFirstLine: true},
		Throttle: config.ThrottleConfig{WaitTimeSeconds: 5, PollInterval: time.Second},
		Target:   config.TargetConfig{URL: "https://example.test/api/waters"},
		Auth:     config.AuthConfig{Token: "t"},
		Payload:  config.PayloadConfig{Directory: "payloads", Extension: ".csv"},
		Audit:    config.AuditConfig{Directory: "out", Columns: []string{"Report ID"}},
	}
}

func TestPrintStartupBannerIsRectangular(t *testing.T) {
	runewidth.DefaultCondition.EastAsianWidth = false

	cfg := bannerConfig()
	driver, err := replay.NewDriver(cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	var buf bytes.Buffer
	printStartupBanner(&buf, cfg, driver)

	var widths []int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		widths = append(widths, runewidth.StringWidth(line))
	}
	for i, w := range widths {
		if w != widths[0] {
			t.Fatalf("line %d has width %d, want %d:\n%s", i, w, widths[0], buf.String())
		}
	}

	out := buf.String()
	for _, want := range []string{"reports.csv (header skipped)", "POST https://example.test/api/waters", "post_results.csv", "Report ID, id, submission id", "Dry run", driver.RunID()} {
		if !strings.Contains(out, want) {
			t.Fatalf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	if err := loadEnvFile(t.TempDir() + "/absent.env"); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Fatalf("empty path should be ignored: %v", err)
	}
}
