package strategy

import (
	"errors"
	"math"

	"prediction-mm-go/market"
	"prediction-mm-go/risk"
)

// 报价与 mid 之间保持的最小间隔，保证 bid < mid < ask 严格成立。
const priceEps = 1e-4

// Quote 双边报价。风控受限时对应方向的 size 为 0。
type Quote struct {
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Spread 返回报价价差。
func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// EngineConfig 控制报价引擎的核心参数。
type EngineConfig struct {
	BaseSpread           float64 `yaml:"baseSpread"`           // 基础价差（概率点）
	MinSpread            float64 `yaml:"minSpread"`            // 价差下限
	MaxSpread            float64 `yaml:"maxSpread"`            // 价差上限
	SkewCoeff            float64 `yaml:"skewCoeff"`            // 库存倾斜系数
	ImbalanceSensitivity float64 `yaml:"imbalanceSensitivity"` // 订单流失衡对价差的放大系数
	BaseSize             float64 `yaml:"baseSize"`             // 每步基础报价数量
	ReversionRate        float64 `yaml:"reversionRate"`        // 均值回归速率
	NoiseAmp             float64 `yaml:"noiseAmp"`             // 中间价噪声幅度（0 表示关闭噪声）
	WindowSize           int     `yaml:"windowSize"`           // 订单流回看窗口（笔数）
}

// 默认参数取自多市场二元合约仿真的常用档位。
func (c EngineConfig) withDefaults() EngineConfig {
	if c.BaseSpread <= 0 {
		c.BaseSpread = 0.05
	}
	if c.MinSpread <= 0 {
		c.MinSpread = 0.01
	}
	if c.MaxSpread <= 0 {
		c.MaxSpread = 0.5
	}
	if c.SkewCoeff < 0 {
		c.SkewCoeff = 0
	}
	if c.ImbalanceSensitivity < 0 {
		c.ImbalanceSensitivity = 0
	}
	if c.BaseSize <= 0 {
		c.BaseSize = 10
	}
	if c.ReversionRate <= 0 {
		c.ReversionRate = 0.005
	}
	if c.WindowSize <= 0 {
		c.WindowSize = market.DefaultFlowWindow
	}
	return c
}

// Engine 根据市场状态与订单流信号生成自适应双边报价。纯计算，无内部状态。
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	cfg = cfg.withDefaults()
	if cfg.MinSpread > cfg.MaxSpread {
		return nil, errors.New("minSpread must not exceed maxSpread")
	}
	if cfg.MinSpread < 2*priceEps {
		return nil, errors.New("minSpread too small to keep quotes strictly around mid")
	}
	if cfg.MaxSpread > 1-2*priceEps {
		return nil, errors.New("maxSpread must leave room inside (0,1)")
	}
	if cfg.ReversionRate >= 1 {
		return nil, errors.New("reversionRate must be < 1")
	}
	if cfg.NoiseAmp < 0 {
		return nil, errors.New("noiseAmp must be >= 0")
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() EngineConfig { return e.cfg }

// Quote 生成下一轮双边报价：
//  1. 报价中心 = mid - skew * (inventory / inventoryLimit)
//  2. 价差 = baseSpread * (1 + sensitivity * |imbalance|)，钳制到 [min, max]
//  3. 风控门控：Halted 时恶化方向 size 置 0，对冲方向照常报价
//  4. bid/ask 围绕中心对称展开；中心被钳制到可行区间内，使 bid < mid < ask
//     且两侧都落在 (0,1)，平移不改变价差，实际价差恒等于第 2 步的结果
func (e *Engine) Quote(st *market.State, imbalance float64) Quote {
	mid := st.Mid
	center := mid - e.cfg.SkewCoeff*(st.Inventory/st.InventoryLimit())
	spread := e.AdaptiveSpread(imbalance)
	half := spread / 2

	// 可行区间非空由 NewEngine 校验保证（minSpread >= 2*priceEps，maxSpread < 1）。
	lo := math.Max(priceEps+half, mid+priceEps-half)
	hi := math.Min(1-priceEps-half, mid-priceEps+half)
	center = clamp(center, lo, hi)

	q := Quote{
		Bid:     center - half,
		Ask:     center + half,
		BidSize: e.sizeFor(st, market.SideBuy),
		AskSize: e.sizeFor(st, market.SideSell),
	}
	if st.RiskState() == risk.Halted {
		// 恶化方向由库存符号决定：多头继续买入会加重越界，反之亦然。
		if st.Inventory > 0 {
			q.BidSize = 0
		} else if st.Inventory < 0 {
			q.AskSize = 0
		}
	}
	return q
}

// AdaptiveSpread 依据订单流失衡放大基础价差：单边流越重，价差越宽，
// 以降低逆向选择风险。结果钳制到 [MinSpread, MaxSpread]。
func (e *Engine) AdaptiveSpread(imbalance float64) float64 {
	spread := e.cfg.BaseSpread * (1 + e.cfg.ImbalanceSensitivity*math.Abs(imbalance))
	return clamp(spread, e.cfg.MinSpread, e.cfg.MaxSpread)
}

// sizeFor 按该方向的剩余风险余量收缩基础数量，余量不足时为 0。
func (e *Engine) sizeFor(st *market.State, side market.Side) float64 {
	maxAbs := st.InventoryLimit()
	if byExposure := st.ExposureLimit() / st.Mid; byExposure < maxAbs {
		maxAbs = byExposure
	}
	var allowed float64
	if side == market.SideBuy {
		allowed = maxAbs - st.Inventory
	} else {
		allowed = st.Inventory + maxAbs
	}
	if allowed <= 0 {
		return 0
	}
	return math.Min(e.cfg.BaseSize, allowed)
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
