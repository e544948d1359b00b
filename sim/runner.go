package sim

import (
	"errors"
	"math"
	"math/rand"

	"prediction-mm-go/market"
	"prediction-mm-go/strategy"
)

// DefaultSteps 默认仿真步数。
const DefaultSteps = 200

// TraceRecord 每步轨迹快照。Mid 为本步报价所依据的中间价。
type TraceRecord struct {
	Step      int     `json:"step"`
	MarketID  string  `json:"market_id"`
	Mid       float64 `json:"mid"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidSize   float64 `json:"bid_size"`
	AskSize   float64 `json:"ask_size"`
	Inventory float64 `json:"inventory"`
	PnL       float64 `json:"pnl"`
	Drawdown  float64 `json:"drawdown"`
	Filled    bool    `json:"filled"`
	FillSide  string  `json:"fill_side,omitempty"`
	FillPrice float64 `json:"fill_price,omitempty"`
	FillSize  float64 `json:"fill_size,omitempty"`
}

// Summary 单市场仿真汇总。
type Summary struct {
	MarketID       string  `json:"market_id"`
	TotalPnL       float64 `json:"total_pnl"`
	TotalFills     int     `json:"total_fills"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	FinalInventory float64 `json:"final_inventory"`
	FinalMid       float64 `json:"final_mid"`
	Notional       float64 `json:"notional"`
}

// StepListener 观察每步轨迹（metrics、流式输出、日志等旁路消费）。
type StepListener func(TraceRecord)

// Result 单市场仿真结果；Err 非空表示该市场中途因不变量破坏而中止，
// Trace 保留中止前的部分轨迹。
type Result struct {
	Summary Summary
	Trace   []TraceRecord
	Err     error
}

// Runner 驱动单个市场的离散步仿真。市场间互不交互，
// 每个 Runner 独占一条随机流，可安全放到独立 goroutine 上执行。
type Runner struct {
	State  *market.State
	Engine *strategy.Engine
	Flow   OrderSource
	Window *market.FlowWindow
	Steps  int
	Rng    *rand.Rand // 仅用于中间价噪声；订单流抽样共享同一条流

	listeners []StepListener
}

// OnStep 注册每步回调，按注册顺序同步触发。
func (r *Runner) OnStep(fn StepListener) {
	if fn != nil {
		r.listeners = append(r.listeners, fn)
	}
}

// Run 执行全部仿真步。配置在 BuildRunner 中已校验，循环内唯一的
// 失败路径是数值不变量破坏：立即中止本市场并返回带步号的诊断。
func (r *Runner) Run() (Summary, []TraceRecord, error) {
	if r.State == nil || r.Engine == nil || r.Flow == nil || r.Window == nil {
		return Summary{}, nil, errors.New("runner not initialized")
	}
	steps := r.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}
	cfg := r.Engine.Config()
	trace := make([]TraceRecord, 0, steps)

	for step := 0; step < steps; step++ {
		quote := r.Engine.Quote(r.State, r.Window.Imbalance())
		r.State.Spread = quote.Spread()

		rec := TraceRecord{
			Step:     step,
			MarketID: r.State.ID,
			Mid:      r.State.Mid,
			Bid:      quote.Bid,
			Ask:      quote.Ask,
			BidSize:  quote.BidSize,
			AskSize:  quote.AskSize,
		}

		order := r.Flow.Next(r.State, quote)
		if order.Cross {
			r.applyCrossing(step, order, quote, &rec)
		}

		// 无论是否成交，中间价每步都按均值回归推进。
		noise := 0.0
		if cfg.NoiseAmp > 0 && r.Rng != nil {
			noise = (r.Rng.Float64()*2 - 1) * cfg.NoiseAmp
		}
		r.State.AdvanceMid(cfg.ReversionRate, noise)

		rec.Inventory = r.State.Inventory
		rec.PnL = r.State.PnL
		rec.Drawdown = r.State.Drawdown()

		if err := r.State.CheckInvariants(step); err != nil {
			return r.summary(), trace, err
		}

		trace = append(trace, rec)
		for _, fn := range r.listeners {
			fn(rec)
		}
	}
	return r.summary(), trace, nil
}

// applyCrossing 将越过报价的到达订单转换为做市方成交：
// taker 买单吃 ask（我们卖出），taker 卖单砸 bid（我们买入）。
func (r *Runner) applyCrossing(step int, order IncomingOrder, quote strategy.Quote, rec *TraceRecord) {
	var side market.Side
	var price, size float64
	if order.Side == market.SideBuy {
		side, price = market.SideSell, quote.Ask
		size = math.Min(order.Size, quote.AskSize)
	} else {
		side, price = market.SideBuy, quote.Bid
		size = math.Min(order.Size, quote.BidSize)
	}
	fill, ok := r.State.ApplyFill(step, side, price, size)
	if !ok {
		return
	}
	r.Window.Record(fill.Side)
	rec.Filled = true
	rec.FillSide = string(fill.Side)
	rec.FillPrice = fill.Price
	rec.FillSize = fill.Size
}

func (r *Runner) summary() Summary {
	return Summary{
		MarketID:       r.State.ID,
		TotalPnL:       r.State.PnL,
		TotalFills:     r.State.FillCount,
		MaxDrawdown:    r.State.MaxDrawdown(),
		FinalInventory: r.State.Inventory,
		FinalMid:       r.State.Mid,
		Notional:       r.State.Notional,
	}
}
