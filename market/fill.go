package market

// Side 成交方向（做市方视角：buy 表示我们买入、库存增加）。
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Sign 返回方向符号：buy=+1，sell=-1。
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// Opposite 返回对手方向。
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Fill 单笔成交记录，Inventory/PnL 为成交后的状态。
type Fill struct {
	Step      int     `json:"step"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Inventory float64 `json:"inventory"`
	PnL       float64 `json:"pnl"`
}
