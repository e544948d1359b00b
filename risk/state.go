package risk

// State 表示单个市场的风控状态。
type State int

const (
	// Active 正常双边报价。
	Active State = iota
	// Halted 库存或敞口触及上限，恶化方向停止报价。
	Halted
)

func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Halted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}
