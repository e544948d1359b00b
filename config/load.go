package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"prediction-mm-go/infrastructure/logger"
	"prediction-mm-go/sim"
	"prediction-mm-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string                  `yaml:"env"`
	Sim      SimConfig               `yaml:"sim"`
	Strategy strategy.EngineConfig   `yaml:"strategy"`
	Flow     sim.FlowConfig          `yaml:"flow"`
	Markets  map[string]MarketConfig `yaml:"markets"`
	Log      logger.Config           `yaml:"log"`
}

// SimConfig 全局仿真参数。
type SimConfig struct {
	Steps int   `yaml:"steps"`
	Seed  int64 `yaml:"seed"`
}

// MarketConfig 单市场初始状态与风险上限。
type MarketConfig struct {
	InitialMid     float64 `yaml:"initialMid"`
	InitialSpread  float64 `yaml:"initialSpread"`
	InventoryLimit float64 `yaml:"inventoryLimit"`
	ExposureLimit  float64 `yaml:"exposureLimit"`
	Seed           *int64  `yaml:"seed"` // 缺省时由全局 seed 与市场 id 派生
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides runtime knobs from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("PMM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("PMM_SEED: %w", err)
		}
		cfg.Sim.Seed = seed
	}
	if v := os.Getenv("PMM_STEPS"); v != "" {
		steps, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("PMM_STEPS: %w", err)
		}
		cfg.Sim.Steps = steps
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Sim.Steps == 0 {
		cfg.Sim.Steps = sim.DefaultSteps
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// RunnerConfig 将应用配置展开为单市场仿真配置。
func (c AppConfig) RunnerConfig(id string) sim.RunnerConfig {
	mc := c.Markets[id]
	seed := sim.DeriveSeed(c.Sim.Seed, id)
	if mc.Seed != nil {
		seed = *mc.Seed
	}
	return sim.RunnerConfig{
		MarketID:       id,
		InitialMid:     mc.InitialMid,
		InitialSpread:  mc.InitialSpread,
		InventoryLimit: mc.InventoryLimit,
		ExposureLimit:  mc.ExposureLimit,
		Steps:          c.Sim.Steps,
		Seed:           seed,
		Engine:         c.Strategy,
		Flow:           c.Flow,
	}
}
