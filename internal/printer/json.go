package printer

import (
	"encoding/json"
	"io"
	"os"

	"github.com/funnyzak/reqreplay/internal/logger"
	"github.com/funnyzak/reqreplay/pkg/request"
)

// JSONPrinter 以 JSON 行输出结果
type JSONPrinter struct {
	encoder *json.Encoder
	logger  logger.Logger
	out     io.Writer
}

// NewJSONPrinter 创建 JSON 输出器
func NewJSONPrinter(log logger.Logger) *JSONPrinter {
	p := &JSONPrinter{logger: log}
	p.SetOutput(os.Stdout)
	return p
}

// SetOutput 替换输出目标，便于测试
func (p *JSONPrinter) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	p.out = w
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	p.encoder = encoder
}

type jsonResultEnvelope struct {
	Type      string                `json:"type"`
	Result    *request.ReplayResult `json:"result"`
	ElapsedMs int64                 `json:"elapsed_ms"`
}

type jsonSummaryEnvelope struct {
	Type      string              `json:"type"`
	Summary   *request.RunSummary `json:"summary"`
	Processed int                 `json:"processed"`
	ElapsedMs int64               `json:"elapsed_ms"`
}

// PrintResult 输出单条结果 JSON
func (p *JSONPrinter) PrintResult(res *request.ReplayResult) error {
	return p.encode(jsonResultEnvelope{
		Type:      "result",
		Result:    res,
		ElapsedMs: res.Elapsed.Milliseconds(),
	})
}

// PrintSummary 输出汇总 JSON
func (p *JSONPrinter) PrintSummary(s *request.RunSummary) error {
	return p.encode(jsonSummaryEnvelope{
		Type:      "summary",
		Summary:   s,
		Processed: s.Processed(),
		ElapsedMs: s.Elapsed.Milliseconds(),
	})
}

func (p *JSONPrinter) encode(v interface{}) error {
	if err := p.encoder.Encode(v); err != nil {
		if p.logger != nil {
			p.logger.Error("Failed to encode JSON output", "error", err)
		}
		return err
	}
	return nil
}
