package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prediction-mm-go/risk"
)

// TestDrawdownTracker 验证峰值/回撤恒等式
func TestDrawdownTracker(t *testing.T) {
	var d risk.DrawdownTracker

	assert.Equal(t, 0.0, d.Observe(0))
	assert.Equal(t, 0.0, d.Observe(5)) // 创新高，无回撤
	assert.Equal(t, 5.0, d.Peak())

	assert.Equal(t, 3.0, d.Observe(2)) // 峰值 5 - 当前 2
	assert.Equal(t, 3.0, d.Current())
	assert.Equal(t, 3.0, d.Max())

	assert.Equal(t, 0.0, d.Observe(8)) // 新峰值
	assert.Equal(t, 8.0, d.Peak())
	assert.Equal(t, 3.0, d.Max()) // 历史最大回撤保留

	assert.Equal(t, 9.0, d.Observe(-1))
	assert.Equal(t, 9.0, d.Max())
}

// TestDrawdownNegativeFirst 起始即亏损时峰值停留在 0
func TestDrawdownNegativeFirst(t *testing.T) {
	var d risk.DrawdownTracker
	assert.Equal(t, 4.0, d.Observe(-4))
	assert.Equal(t, 0.0, d.Peak())
	assert.Equal(t, 4.0, d.Max())
}
