package printer

import (
	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/internal/logger"
	"github.com/funnyzak/reqreplay/pkg/i18n"
	"github.com/funnyzak/reqreplay/pkg/request"
)

// Printer 抽象输出接口
type Printer interface {
	PrintResult(*request.ReplayResult) error
	PrintSummary(*request.RunSummary) error
}

// New 创建指定模式的 Printer
func New(mode string, log logger.Logger, cfg *config.OutputConfig, translator *i18n.Translator, locale string) Printer {
	if cfg == nil {
		cfg = &config.OutputConfig{}
	}
	if cfg.Silence {
		return Nop{}
	}
	switch mode {
	case "json":
		return NewJSONPrinter(log)
	default:
		return NewConsolePrinter(log, translator, locale)
	}
}

// Nop discards all output
type Nop struct{}

// PrintResult implements Printer
func (Nop) PrintResult(*request.ReplayResult) error { return nil }

// PrintSummary implements Printer
func (Nop) PrintSummary(*request.RunSummary) error { return nil }
