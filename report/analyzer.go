package report

import (
	"prediction-mm-go/market"
	"prediction-mm-go/sim"
)

// Stats 事后成交质量统计，全部由轨迹推导，不依赖额外状态。
type Stats struct {
	TotalFills  int     `json:"total_fills"`
	BuyFills    int     `json:"buy_fills"`
	SellFills   int     `json:"sell_fills"`
	AvgFillSize float64 `json:"avg_fill_size"`
	AvgEdge     float64 `json:"avg_edge"`  // 成交价相对当时 mid 的平均边际
	WinRate     float64 `json:"win_rate"`  // 获得正边际的成交占比
	HaltedSteps int     `json:"halted_steps"` // 单边报零量的步数
}

// Analyze 扫描单市场轨迹并统计成交质量。做市方在 mid 之下买入或
// 之上卖出即记为正边际成交。
func Analyze(trace []sim.TraceRecord) Stats {
	var st Stats
	var sizeSum, edgeSum float64
	wins := 0
	for _, rec := range trace {
		if rec.BidSize == 0 || rec.AskSize == 0 {
			st.HaltedSteps++
		}
		if !rec.Filled {
			continue
		}
		st.TotalFills++
		sizeSum += rec.FillSize

		edge := rec.Mid - rec.FillPrice // buy 视角
		if rec.FillSide == string(market.SideSell) {
			edge = rec.FillPrice - rec.Mid
			st.SellFills++
		} else {
			st.BuyFills++
		}
		edgeSum += edge
		if edge > 0 {
			wins++
		}
	}
	if st.TotalFills > 0 {
		st.AvgFillSize = sizeSum / float64(st.TotalFills)
		st.AvgEdge = edgeSum / float64(st.TotalFills)
		st.WinRate = float64(wins) / float64(st.TotalFills)
	}
	return st
}
