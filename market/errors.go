package market

import "fmt"

// InvariantError 表示某一步的数值不变量被破坏。
// 该错误对单个市场是致命的：仿真循环据此中止本市场，其余市场不受影响。
type InvariantError struct {
	Market    string
	Step      int
	Invariant string
	Value     float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("market %s step %d: invariant %s violated (value=%v)",
		e.Market, e.Step, e.Invariant, e.Value)
}
