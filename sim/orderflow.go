package sim

import (
	"math"
	"math/rand"

	"prediction-mm-go/market"
	"prediction-mm-go/strategy"
)

// IncomingOrder 一笔合成到达订单（taker 视角）。
type IncomingOrder struct {
	Side  market.Side // taker 方向：buy 吃 ask，sell 砸 bid
	Size  float64
	Cross bool // 是否越过报价成交
}

// OrderSource 每步产生一笔到达订单。实现必须独占自己的随机流，
// 同一市场内的抽样顺序不可重排。
type OrderSource interface {
	Next(st *market.State, q strategy.Quote) IncomingOrder
}

// FlowConfig 合成订单流参数。
type FlowConfig struct {
	SideNoise  float64 `yaml:"sideNoise"`  // 方向偏置噪声幅度
	MinSize    float64 `yaml:"minSize"`    // 到达订单最小数量
	MaxSize    float64 `yaml:"maxSize"`    // 到达订单最大数量
	CrossMax   float64 `yaml:"crossMax"`   // 零价差时的成交概率上限
	CrossDecay float64 `yaml:"crossDecay"` // 价差衰减系数：价差越宽越难成交
}

func (c FlowConfig) withDefaults() FlowConfig {
	if c.SideNoise <= 0 {
		c.SideNoise = 0.15
	}
	if c.MinSize <= 0 {
		c.MinSize = 4
	}
	if c.MaxSize <= c.MinSize {
		c.MaxSize = c.MinSize + 4
	}
	if c.CrossMax <= 0 || c.CrossMax > 1 {
		c.CrossMax = 0.9
	}
	if c.CrossDecay <= 0 {
		c.CrossDecay = 8
	}
	return c
}

// CrossProbability 成交概率模型：p = crossMax * exp(-crossDecay * spread)。
// 单调递减于价差，价差越紧成交概率越高；系数为可调参数。
func CrossProbability(spread float64, cfg FlowConfig) float64 {
	cfg = cfg.withDefaults()
	if spread < 0 {
		spread = 0
	}
	return cfg.CrossMax * math.Exp(-cfg.CrossDecay*spread)
}

// RandomFlow 基于市场独占随机流的合成订单发生器。
// 每步固定三次抽样（方向、数量、成交判定），顺序不可变更，
// 保证同一 (seed, config) 的轨迹逐字节可复现。
type RandomFlow struct {
	rng *rand.Rand
	cfg FlowConfig
}

func NewRandomFlow(rng *rand.Rand, cfg FlowConfig) *RandomFlow {
	return &RandomFlow{rng: rng, cfg: cfg.withDefaults()}
}

func (f *RandomFlow) Next(st *market.State, q strategy.Quote) IncomingOrder {
	// 抽样 1：方向。mid 越高买方越多（价格即概率的群体押注偏置）。
	bias := st.Mid + (f.rng.Float64()*2-1)*f.cfg.SideNoise
	side := market.SideSell
	if bias > 0.5 {
		side = market.SideBuy
	}
	// 抽样 2：数量，均匀分布于 [MinSize, MaxSize]。
	size := f.cfg.MinSize + f.rng.Float64()*(f.cfg.MaxSize-f.cfg.MinSize)
	// 抽样 3：成交判定，概率随价差衰减。
	cross := f.rng.Float64() < CrossProbability(q.Spread(), f.cfg)

	return IncomingOrder{Side: side, Size: size, Cross: cross}
}
