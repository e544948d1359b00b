package risk

import "fmt"

// 触界判断使用微小容差：clamp 后的库存可能恰好等于上限。
const limitEps = 1e-9

// Controller 依据库存/敞口上限维护 Active/Halted 状态机。
// 触限不是错误：进入 Halted 后恶化方向停报，等待对冲成交或价格
// 变动恢复余量后自动回到 Active。
type Controller struct {
	inventoryLimit float64
	exposureLimit  float64

	state    State
	listener func(State, string)
}

func NewController(inventoryLimit, exposureLimit float64) (*Controller, error) {
	if inventoryLimit <= 0 || exposureLimit <= 0 {
		return nil, fmt.Errorf("%w: inventory=%.4f exposure=%.4f",
			ErrInvalidLimits, inventoryLimit, exposureLimit)
	}
	return &Controller{
		inventoryLimit: inventoryLimit,
		exposureLimit:  exposureLimit,
		state:          Active,
	}, nil
}

// SetStateListener 注册状态迁移回调（用于日志/监控）。
func (c *Controller) SetStateListener(fn func(state State, reason string)) {
	c.listener = fn
}

// Evaluate 根据当前库存与敞口推进状态机，返回最新状态。
func (c *Controller) Evaluate(inventory, exposure float64) State {
	next := Active
	reason := ""
	switch {
	case abs(inventory) >= c.inventoryLimit-limitEps:
		next = Halted
		reason = ErrInventoryFull.Error()
	case exposure >= c.exposureLimit-limitEps:
		next = Halted
		reason = ErrExposureFull.Error()
	}
	if next != c.state {
		c.state = next
		if c.listener != nil {
			c.listener(next, reason)
		}
	}
	return c.state
}

func (c *Controller) State() State { return c.state }

func (c *Controller) InventoryLimit() float64 { return c.inventoryLimit }
func (c *Controller) ExposureLimit() float64  { return c.exposureLimit }

// InventoryHeadroom 返回在不越过库存上限前提下还能增加的绝对仓位。
func (c *Controller) InventoryHeadroom(inventory float64) float64 {
	h := c.inventoryLimit - abs(inventory)
	if h < 0 {
		return 0
	}
	return h
}

// ExposureHeadroom 返回在不越过敞口上限前提下还能增加的名义敞口。
func (c *Controller) ExposureHeadroom(exposure float64) float64 {
	h := c.exposureLimit - exposure
	if h < 0 {
		return 0
	}
	return h
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
