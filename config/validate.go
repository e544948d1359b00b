package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present and every market can start.
// 任一市场配置不合法即整体拒绝，不会有市场进入仿真循环。
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Sim.Steps <= 0 {
		return fmt.Errorf("sim.steps must be > 0, got %d", cfg.Sim.Steps)
	}
	if len(cfg.Markets) == 0 {
		return errors.New("markets config is required")
	}
	if cfg.Strategy.MinSpread > cfg.Strategy.MaxSpread &&
		cfg.Strategy.MinSpread > 0 && cfg.Strategy.MaxSpread > 0 {
		return errors.New("strategy.minSpread must not exceed strategy.maxSpread")
	}
	if cfg.Strategy.NoiseAmp < 0 {
		return errors.New("strategy.noiseAmp must be >= 0")
	}
	for id, mc := range cfg.Markets {
		if mc.InitialMid <= 0 || mc.InitialMid >= 1 {
			return fmt.Errorf("market %s: initialMid must be in (0,1), got %.4f", id, mc.InitialMid)
		}
		if mc.InitialSpread < 0 {
			return fmt.Errorf("market %s: initialSpread must be >= 0", id)
		}
		if mc.InventoryLimit <= 0 {
			return fmt.Errorf("market %s: inventoryLimit must be > 0", id)
		}
		if mc.ExposureLimit <= 0 {
			return fmt.Errorf("market %s: exposureLimit must be > 0", id)
		}
	}
	return nil
}
