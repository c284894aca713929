package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/funnyzak/reqreplay/internal/logger"
	"github.com/funnyzak/reqreplay/pkg/i18n"
	"github.com/funnyzak/reqreplay/pkg/request"
	"golang.org/x/term"
)

// ColorScheme color scheme
type ColorScheme struct {
	Success   *color.Color
	Failure   *color.Color
	DryRun    *color.Color
	LineNo    *color.Color
	Status    *color.Color
	Elapsed   *color.Color
	ValueKey  *color.Color
	Value     *color.Color
	Cause     *color.Color
	Separator *color.Color
	Label     *color.Color
}

// NewColorScheme creates a new color scheme
func NewColorScheme() *ColorScheme {
	return &ColorScheme{
		Success:   color.New(color.FgGreen, color.Bold),
		Failure:   color.New(color.FgRed, color.Bold),
		DryRun:    color.New(color.FgYellow, color.Bold),
		LineNo:    color.New(color.FgHiBlack),
		Status:    color.New(color.FgCyan),
		Elapsed:   color.New(color.FgHiBlack),
		ValueKey:  color.New(color.FgCyan),
		Value:     color.New(color.FgWhite),
		Cause:     color.New(color.FgHiRed),
		Separator: color.New(color.FgYellow, color.Bold),
		Label:     color.New(color.FgHiBlue),
	}
}

// ConsolePrinter console printer
type ConsolePrinter struct {
	colorScheme *ColorScheme
	logger      logger.Logger
	intl        *i18n.Translator
	locale      string
	out         io.Writer
}

// NewConsolePrinter creates a new console printer
func NewConsolePrinter(log logger.Logger, translator *i18n.Translator, locale string) *ConsolePrinter {
	resolved := strings.TrimSpace(locale)
	if resolved == "" && translator != nil {
		resolved = translator.DefaultLocale()
	}
	return &ConsolePrinter{
		colorScheme: NewColorScheme(),
		logger:      log,
		intl:        translator,
		locale:      resolved,
		out:         color.Output,
	}
}

func (p *ConsolePrinter) t(key string) string {
	if p.intl == nil || !p.intl.Has(p.locale, key) {
		if text, ok := fallbackText[key]; ok {
			return text
		}
		return key
	}
	return p.intl.Text(p.locale, key)
}

func (p *ConsolePrinter) tf(key string, args ...interface{}) string {
	if p.intl == nil || !p.intl.Has(p.locale, key) {
		return fmt.Sprintf(p.t(key), args...)
	}
	return p.intl.Textf(p.locale, key, args...)
}

// getTerminalWidth gets the current terminal width with fallback
func (p *ConsolePrinter) getTerminalWidth() int {
	if testWidth := os.Getenv("REQREPLAY_TEST_WIDTH"); testWidth != "" {
		if width, err := strconv.Atoi(testWidth); err == nil {
			return clampWidth(width)
		}
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	if width < 40 {
		return 40
	}
	if width > 150 {
		return 150
	}
	return width
}

// PrintResult prints one line per processed record, plus the cause on a
// second line for failures.
func (p *ConsolePrinter) PrintResult(res *request.ReplayResult) error {
	if res == nil {
		return nil
	}
	width := p.getTerminalWidth()

	switch {
	case res.DryRun:
		p.colorScheme.DryRun.Fprintf(p.out, "[%s]", p.t(keyResultDryRun))
	case res.Success:
		p.colorScheme.Success.Fprintf(p.out, "[%s]", p.t(keyResultOK))
	default:
		p.colorScheme.Failure.Fprintf(p.out, "[%s]", p.t(keyResultFailed))
	}

	line := 0
	if res.Record != nil {
		line = res.Record.Line
	}
	p.colorScheme.LineNo.Fprintf(p.out, " %s ", p.tf(keyResultLine, line))
	fmt.Fprint(p.out, res.Record.ID())

	if res.StatusCode != 0 {
		fmt.Fprint(p.out, "  ")
		p.colorScheme.Status.Fprintf(p.out, "%s %d", p.t(keyResultStatus), res.StatusCode)
	}
	fmt.Fprint(p.out, "  ")
	p.colorScheme.Elapsed.Fprint(p.out, formatElapsed(res.Elapsed))
	if res.Body != "" {
		p.colorScheme.Elapsed.Fprintf(p.out, " (%s)", humanize.Bytes(uint64(len(res.Body))))
	}

	if len(res.Values) > 0 {
		keys := make([]string, 0, len(res.Values))
		for key := range res.Values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprint(p.out, "  ")
			p.colorScheme.ValueKey.Fprintf(p.out, "%s=", key)
			p.colorScheme.Value.Fprint(p.out, res.Values[key])
		}
	}
	fmt.Fprintln(p.out)

	if !res.Success && res.Error != "" {
		prefix := "    " + p.t(keyResultCause) + ": "
		cause := fmt.Sprintf("[%s] %s", res.Class, res.Error)
		for i, text := range p.wrapText(cause, width-utf8.RuneCountInString(prefix)) {
			if i == 0 {
				fmt.Fprint(p.out, prefix)
			} else {
				fmt.Fprint(p.out, strings.Repeat(" ", utf8.RuneCountInString(prefix)))
			}
			p.colorScheme.Cause.Fprintln(p.out, text)
		}
	}
	return nil
}

// PrintSummary prints the end-of-run totals
func (p *ConsolePrinter) PrintSummary(s *request.RunSummary) error {
	if s == nil {
		return nil
	}
	separator := strings.Repeat("-", p.getTerminalWidth())

	fmt.Fprintln(p.out)
	p.colorScheme.Separator.Fprintln(p.out, separator)
	p.colorScheme.Separator.Fprintf(p.out, "%s  %s\n", p.t(keySummaryTitle), s.RunID)
	p.colorScheme.Separator.Fprintln(p.out, separator)

	p.printField(keySummaryMode, s.Mode)
	p.printField(keySummaryLines, humanize.Comma(int64(s.Lines)))
	p.printField(keySummarySkipped, humanize.Comma(int64(s.Skipped)))
	p.printField(keySummaryProcessed, humanize.Comma(int64(s.Processed())))
	p.printField(keySummarySucceeded, humanize.Comma(int64(s.Succeeded)))

	failed := humanize.Comma(int64(s.Failed))
	if len(s.Failures) > 0 {
		classes := make([]string, 0, len(s.Failures))
		for class, count := range s.Failures {
			classes = append(classes, fmt.Sprintf("%s=%d", class, count))
		}
		sort.Strings(classes)
		failed += " (" + strings.Join(classes, ", ") + ")"
	}
	p.printField(keySummaryFailed, failed)
	p.printField(keySummaryAuditFile, s.AuditPath)
	p.printField(keySummaryElapsed, formatElapsed(s.Elapsed))
	if s.Fatal != "" {
		p.colorScheme.Label.Fprintf(p.out, "%-12s ", p.t(keySummaryFatal)+":")
		p.colorScheme.Failure.Fprintln(p.out, s.Fatal)
	}
	p.colorScheme.Separator.Fprintln(p.out, separator)
	return nil
}

func (p *ConsolePrinter) printField(key, value string) {
	p.colorScheme.Label.Fprintf(p.out, "%-12s ", p.t(key)+":")
	fmt.Fprintln(p.out, value)
}

// wrapText wraps text to fit within the specified width, preserving words
func (p *ConsolePrinter) wrapText(text string, maxWidth int) []string {
	if maxWidth < 20 {
		maxWidth = 20
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	currentLine := words[0]
	currentWidth := utf8.RuneCountInString(currentLine)

	for _, word := range words[1:] {
		wordWidth := utf8.RuneCountInString(word)
		if currentWidth+1+wordWidth > maxWidth {
			lines = append(lines, currentLine)
			currentLine = word
			currentWidth = wordWidth
			continue
		}
		currentLine += " " + word
		currentWidth += 1 + wordWidth
	}
	return append(lines, currentLine)
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
