package market

import (
	"fmt"
	"math"

	"prediction-mm-go/risk"
)

// 中间价钳制在 (0,1) 的内部子区间，保证后续价差计算有效。
const (
	MidFloor = 0.01
	MidCeil  = 0.99
)

// State 持有单个二元合约市场的全部可变交易状态。
// 唯一的变更入口是 ApplyFill 与 AdvanceMid，其余字段对调用方只读。
type State struct {
	ID        string
	Mid       float64
	Spread    float64
	Inventory float64
	Exposure  float64
	PnL       float64
	Notional  float64
	FillCount int
	Fills     []Fill

	ctrl *risk.Controller
	dd   risk.DrawdownTracker
}

// Snapshot 只读快照，供最终汇报使用。
type Snapshot struct {
	ID          string  `json:"id"`
	Mid         float64 `json:"mid"`
	Spread      float64 `json:"spread"`
	Inventory   float64 `json:"inventory"`
	Exposure    float64 `json:"exposure"`
	PnL         float64 `json:"pnl"`
	FillCount   int     `json:"fill_count"`
	Notional    float64 `json:"notional"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// NewState 校验初始配置并创建市场状态；任何一项不合法则市场不会启动。
func NewState(id string, initialMid, initialSpread, inventoryLimit, exposureLimit float64) (*State, error) {
	if id == "" {
		return nil, fmt.Errorf("market id is required")
	}
	if initialMid <= 0 || initialMid >= 1 {
		return nil, fmt.Errorf("market %s: initial mid %.4f outside (0,1)", id, initialMid)
	}
	if initialSpread < 0 {
		return nil, fmt.Errorf("market %s: initial spread %.4f must be >= 0", id, initialSpread)
	}
	ctrl, err := risk.NewController(inventoryLimit, exposureLimit)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", id, err)
	}
	return &State{
		ID:     id,
		Mid:    clamp(initialMid, MidFloor, MidCeil),
		Spread: initialSpread,
		ctrl:   ctrl,
	}, nil
}

// ApplyFill 应用一笔成交：尺寸被钳制到剩余风险余量内，库存、敞口、
// PnL、峰值/回撤与成交历史作为一次操作整体更新。
// 钳制后尺寸不足时返回 ok=false，状态不变。
func (s *State) ApplyFill(step int, side Side, price, size float64) (Fill, bool) {
	if size <= 0 || price <= 0 || price >= 1 {
		return Fill{}, false
	}
	size = s.clampFillSize(side, size)
	if size <= 0 {
		return Fill{}, false
	}

	delta := side.Sign() * size
	s.Inventory += delta
	s.Exposure = math.Abs(s.Inventory) * s.Mid
	// 做市方在 mid 之下买入/之上卖出即获得边际收益。
	s.PnL += -delta * (price - s.Mid)
	s.Notional += size * price
	s.FillCount++
	s.dd.Observe(s.PnL)
	s.ctrl.Evaluate(s.Inventory, s.Exposure)

	fill := Fill{
		Step:      step,
		Side:      side,
		Price:     price,
		Size:      size,
		Inventory: s.Inventory,
		PnL:       s.PnL,
	}
	s.Fills = append(s.Fills, fill)
	return fill, true
}

// clampFillSize 将请求尺寸钳制到风险余量内，永不为负。
// 方向敏感：恶化方向受剩余余量约束，对冲方向最多允许穿越零点到对侧上限。
func (s *State) clampFillSize(side Side, size float64) float64 {
	maxAbs := s.ctrl.InventoryLimit()
	if byExposure := s.ctrl.ExposureLimit() / s.Mid; byExposure < maxAbs {
		maxAbs = byExposure
	}
	var allowed float64
	if side == SideBuy {
		allowed = maxAbs - s.Inventory
	} else {
		allowed = s.Inventory + maxAbs
	}
	if allowed <= 0 {
		return 0
	}
	return math.Min(size, allowed)
}

// AdvanceMid 按均值回归规则推进中间价：mid' = mid + rate*(0.5-mid) + noise，
// 结果钳制在 [MidFloor, MidCeil]。与成交无关，每步都会执行。
func (s *State) AdvanceMid(rate, noise float64) {
	s.Mid = clamp(s.Mid+rate*(0.5-s.Mid)+noise, MidFloor, MidCeil)
	// 敞口随价格重估，价格变动本身即可恢复敞口余量。
	s.Exposure = math.Abs(s.Inventory) * s.Mid
	s.ctrl.Evaluate(s.Inventory, s.Exposure)
}

// RiskState 返回当前风控状态。
func (s *State) RiskState() risk.State { return s.ctrl.State() }

// Risk 暴露风控控制器（只读用途：余量查询、状态监听）。
func (s *State) Risk() *risk.Controller { return s.ctrl }

func (s *State) InventoryLimit() float64 { return s.ctrl.InventoryLimit() }
func (s *State) ExposureLimit() float64  { return s.ctrl.ExposureLimit() }

// Drawdown 返回当前回撤（峰值 PnL - 当前 PnL）。
func (s *State) Drawdown() float64 { return s.dd.Peak() - s.PnL }

func (s *State) PeakPnL() float64     { return s.dd.Peak() }
func (s *State) MaxDrawdown() float64 { return s.dd.Max() }

// CheckInvariants 校验每步结束后必须成立的数值不变量。
func (s *State) CheckInvariants(step int) error {
	const eps = 1e-9
	switch {
	case s.Mid <= 0 || s.Mid >= 1:
		return &InvariantError{Market: s.ID, Step: step, Invariant: "mid in (0,1)", Value: s.Mid}
	case math.IsNaN(s.PnL) || math.IsInf(s.PnL, 0):
		return &InvariantError{Market: s.ID, Step: step, Invariant: "pnl finite", Value: s.PnL}
	case math.Abs(s.Inventory) > s.ctrl.InventoryLimit()+eps:
		return &InvariantError{Market: s.ID, Step: step, Invariant: "|inventory| <= limit", Value: s.Inventory}
	case math.IsNaN(s.Exposure) || math.IsInf(s.Exposure, 0) || s.Exposure < 0:
		// 敞口越限本身不是致命错误：重估后越限由 Halted 状态处理
		return &InvariantError{Market: s.ID, Step: step, Invariant: "exposure finite and >= 0", Value: s.Exposure}
	case s.Drawdown() < -eps:
		return &InvariantError{Market: s.ID, Step: step, Invariant: "drawdown >= 0", Value: s.Drawdown()}
	}
	return nil
}

// Snapshot 生成当前状态的只读快照。
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		ID:          s.ID,
		Mid:         s.Mid,
		Spread:      s.Spread,
		Inventory:   s.Inventory,
		Exposure:    s.Exposure,
		PnL:         s.PnL,
		FillCount:   s.FillCount,
		Notional:    s.Notional,
		MaxDrawdown: s.dd.Max(),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
