package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"prediction-mm-go/market"
	"prediction-mm-go/strategy"
)

// RunnerConfig 单市场仿真配置，由编排方（cmd 层）提供。
type RunnerConfig struct {
	MarketID       string
	InitialMid     float64
	InitialSpread  float64
	InventoryLimit float64
	ExposureLimit  float64
	Steps          int
	Seed           int64
	Engine         strategy.EngineConfig
	Flow           FlowConfig
}

// DeriveSeed 由基础种子与市场 id 派生该市场的独立种子，
// 保证多市场并行时随机流互不混叠。
func DeriveSeed(base int64, marketID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(marketID))
	return base ^ int64(h.Sum64())
}

// BuildRunner 校验配置并组装单市场 Runner。校验失败时该市场不会启动。
func BuildRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("market %s: stepCount must be > 0, got %d", cfg.MarketID, cfg.Steps)
	}
	// 未显式配置基础价差时沿用市场初始价差。
	if cfg.Engine.BaseSpread <= 0 {
		cfg.Engine.BaseSpread = cfg.InitialSpread
	}
	engine, err := strategy.NewEngine(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", cfg.MarketID, err)
	}
	state, err := market.NewState(cfg.MarketID, cfg.InitialMid, cfg.InitialSpread,
		cfg.InventoryLimit, cfg.ExposureLimit)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Runner{
		State:  state,
		Engine: engine,
		Flow:   NewRandomFlow(rng, cfg.Flow),
		Window: market.NewFlowWindow(engine.Config().WindowSize),
		Steps:  cfg.Steps,
		Rng:    rng,
	}, nil
}
