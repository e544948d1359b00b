// Package metrics provides Prometheus metrics for the simulator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prediction-mm-go/risk"
	"prediction-mm-go/sim"
)

// Collector 按市场维度聚合仿真指标，作为 sim.StepListener 挂接到每个 Runner。
type Collector struct {
	registry *prometheus.Registry

	steps     *prometheus.CounterVec
	fills     *prometheus.CounterVec
	volume    *prometheus.CounterVec
	halts     *prometheus.CounterVec
	pnl       *prometheus.GaugeVec
	drawdown  *prometheus.GaugeVec
	inventory *prometheus.GaugeVec
	mid       *prometheus.GaugeVec
	spread    *prometheus.GaugeVec
	riskState *prometheus.GaugeVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_steps_total",
			Help: "仿真步数",
		}, []string{"market"}),
		fills: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_fills_total",
			Help: "成交笔数",
		}, []string{"market", "side"}),
		volume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_fill_volume_total",
			Help: "累计成交数量",
		}, []string{"market"}),
		halts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_risk_halts_total",
			Help: "进入 HALTED 的次数",
		}, []string{"market"}),
		pnl: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_pnl",
			Help: "累计已实现 PnL",
		}, []string{"market"}),
		drawdown: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_drawdown",
			Help: "当前回撤",
		}, []string{"market"}),
		inventory: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_inventory",
			Help: "净库存",
		}, []string{"market"}),
		mid: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_mid_price",
			Help: "中间价",
		}, []string{"market"}),
		spread: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_spread",
			Help: "当前报价价差",
		}, []string{"market"}),
		riskState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_risk_state",
			Help: "风控状态（0=ACTIVE 1=HALTED）",
		}, []string{"market"}),
	}
}

// ObserveStep 消费一条轨迹记录并刷新该市场的指标。
func (c *Collector) ObserveStep(rec sim.TraceRecord) {
	c.steps.WithLabelValues(rec.MarketID).Inc()
	if rec.Filled {
		c.fills.WithLabelValues(rec.MarketID, rec.FillSide).Inc()
		c.volume.WithLabelValues(rec.MarketID).Add(rec.FillSize)
	}
	c.pnl.WithLabelValues(rec.MarketID).Set(rec.PnL)
	c.drawdown.WithLabelValues(rec.MarketID).Set(rec.Drawdown)
	c.inventory.WithLabelValues(rec.MarketID).Set(rec.Inventory)
	c.mid.WithLabelValues(rec.MarketID).Set(rec.Mid)
	c.spread.WithLabelValues(rec.MarketID).Set(rec.Ask - rec.Bid)
}

// ObserveRiskState 记录风控状态迁移，挂接到 risk.Controller 的监听回调。
func (c *Collector) ObserveRiskState(marketID string, state risk.State) {
	c.riskState.WithLabelValues(marketID).Set(float64(state))
	if state == risk.Halted {
		c.halts.WithLabelValues(marketID).Inc()
	}
}

// Handler 返回该 Collector 独立注册表的 HTTP 导出端点。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer 启动 Prometheus 指标服务器。
func StartMetricsServer(addr string, c *Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
