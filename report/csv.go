// Package report serializes simulation output: per-market summaries to a
// flat CSV table and the full step trace to a JSON document. 仅做序列化，
// 不做任何计算；核心仿真不产生任何文件 IO。
package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"prediction-mm-go/sim"
)

// WriteSummaryCSV 将各市场汇总写成扁平 CSV 表格。调用方负责排序。
func WriteSummaryCSV(path string, summaries []sim.Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no summary data")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"market_id", "total_pnl", "total_fills", "max_drawdown",
		"final_inventory", "final_mid", "notional"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{
			s.MarketID,
			fmt.Sprintf("%.6f", s.TotalPnL),
			fmt.Sprintf("%d", s.TotalFills),
			fmt.Sprintf("%.6f", s.MaxDrawdown),
			fmt.Sprintf("%.6f", s.FinalInventory),
			fmt.Sprintf("%.6f", s.FinalMid),
			fmt.Sprintf("%.6f", s.Notional),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
