package report

import (
	"encoding/json"
	"os"

	"prediction-mm-go/sim"
)

// WriteTraceJSON 将全量逐步轨迹写成结构化 JSON 文档。
func WriteTraceJSON(path string, trace []sim.TraceRecord) error {
	raw, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
