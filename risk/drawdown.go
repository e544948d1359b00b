package risk

// DrawdownTracker 跟踪 PnL 峰值与回撤。
// 回撤恒等于 峰值 PnL 减 当前 PnL，初始峰值为 0（起始 PnL）。
type DrawdownTracker struct {
	peak float64
	pnl  float64
	max  float64
}

// Observe 记录一次 PnL 观测，返回当前回撤。
func (d *DrawdownTracker) Observe(pnl float64) float64 {
	d.pnl = pnl
	if pnl > d.peak {
		d.peak = pnl
	}
	dd := d.peak - pnl
	if dd > d.max {
		d.max = dd
	}
	return dd
}

// Current 返回最近一次观测的回撤。
func (d *DrawdownTracker) Current() float64 { return d.peak - d.pnl }

// Peak 返回 PnL 高水位。
func (d *DrawdownTracker) Peak() float64 { return d.peak }

// Max 返回运行以来的最大回撤。
func (d *DrawdownTracker) Max() float64 { return d.max }
