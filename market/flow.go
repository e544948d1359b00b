package market

// DefaultFlowWindow 默认订单流回看窗口（笔数）。
const DefaultFlowWindow = 20

// FlowWindow 记录最近成交方向，计算买卖失衡信号。
// 失衡 = (买单数 - 卖单数) / 总数，取值 [-1, 1]。
type FlowWindow struct {
	window int
	sides  []Side
	next   int
	filled bool
}

func NewFlowWindow(window int) *FlowWindow {
	if window <= 0 {
		window = DefaultFlowWindow
	}
	return &FlowWindow{
		window: window,
		sides:  make([]Side, window),
	}
}

// Record 追加一笔成交方向，窗口满后覆盖最旧记录。
func (w *FlowWindow) Record(side Side) {
	w.sides[w.next] = side
	w.next++
	if w.next == w.window {
		w.next = 0
		w.filled = true
	}
}

// Len 返回窗口内已记录的成交笔数。
func (w *FlowWindow) Len() int {
	if w.filled {
		return w.window
	}
	return w.next
}

// Imbalance 返回当前失衡信号；窗口为空时返回 0。
func (w *FlowWindow) Imbalance() float64 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	buys := 0
	for i := 0; i < n; i++ {
		if w.sides[i] == SideBuy {
			buys++
		}
	}
	sells := n - buys
	return float64(buys-sells) / float64(n)
}
