package strategy

import (
	"math"
	"testing"

	"prediction-mm-go/market"
)

func newEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	return e
}

func newMarket(t *testing.T, mid float64) *market.State {
	t.Helper()
	st, err := market.NewState("m", mid, 0.05, 200, 10000)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	return st
}

func TestNewEngineDefaults(t *testing.T) {
	e := newEngine(t, EngineConfig{})
	cfg := e.Config()
	if cfg.BaseSpread != 0.05 || cfg.MinSpread != 0.01 || cfg.MaxSpread != 0.5 {
		t.Fatalf("spread defaults = %+v", cfg)
	}
	if cfg.BaseSize != 10 || cfg.ReversionRate != 0.005 {
		t.Fatalf("size/reversion defaults = %+v", cfg)
	}
	if cfg.WindowSize != market.DefaultFlowWindow {
		t.Fatalf("window default = %d", cfg.WindowSize)
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	if _, err := NewEngine(EngineConfig{MinSpread: 0.4, MaxSpread: 0.1}); err == nil {
		t.Fatalf("expected min>max rejection")
	}
	if _, err := NewEngine(EngineConfig{ReversionRate: 1.5}); err == nil {
		t.Fatalf("expected reversion rate rejection")
	}
	if _, err := NewEngine(EngineConfig{NoiseAmp: -0.1}); err == nil {
		t.Fatalf("expected noise amp rejection")
	}
	if _, err := NewEngine(EngineConfig{MinSpread: 1e-5, MaxSpread: 0.5}); err == nil {
		t.Fatalf("expected rejection of minSpread below quote epsilon")
	}
	if _, err := NewEngine(EngineConfig{MinSpread: 0.01, MaxSpread: 1.0}); err == nil {
		t.Fatalf("expected rejection of maxSpread at 1")
	}
}

func TestQuoteBracketsMid(t *testing.T) {
	e := newEngine(t, EngineConfig{SkewCoeff: 0.05, ImbalanceSensitivity: 0.5})
	// 极端 mid、极端库存、极端失衡下界约束仍须成立
	for _, mid := range []float64{0.02, 0.30, 0.50, 0.85, 0.98} {
		for _, inv := range []float64{-200, -50, 0, 50, 200} {
			for _, imb := range []float64{-1, 0, 1} {
				st := newMarket(t, mid)
				st.Inventory = inv
				q := e.Quote(st, imb)
				if !(q.Bid < st.Mid && st.Mid < q.Ask) {
					t.Fatalf("mid=%v inv=%v imb=%v: quote %v..%v does not bracket mid",
						mid, inv, imb, q.Bid, q.Ask)
				}
				if q.Bid <= 0 || q.Ask >= 1 {
					t.Fatalf("quote outside (0,1): %v..%v", q.Bid, q.Ask)
				}
			}
		}
	}
}

func TestAdaptiveSpreadMonotone(t *testing.T) {
	e := newEngine(t, EngineConfig{BaseSpread: 0.05, ImbalanceSensitivity: 0.5, MaxSpread: 0.5})
	prev := e.AdaptiveSpread(0)
	if prev != 0.05 {
		t.Fatalf("neutral spread = %v, want base", prev)
	}
	for _, imb := range []float64{0.25, 0.5, 0.75, 1.0} {
		s := e.AdaptiveSpread(imb)
		if s < prev {
			t.Fatalf("spread shrank: imb=%v spread=%v < %v", imb, s, prev)
		}
		prev = s
	}
	// 方向无关：只看失衡绝对值
	if e.AdaptiveSpread(-0.5) != e.AdaptiveSpread(0.5) {
		t.Fatalf("spread not symmetric in imbalance sign")
	}
}

func TestAdaptiveSpreadClamped(t *testing.T) {
	e := newEngine(t, EngineConfig{BaseSpread: 0.4, ImbalanceSensitivity: 2, MaxSpread: 0.5})
	if got := e.AdaptiveSpread(1); got != 0.5 {
		t.Fatalf("spread = %v, want clamp to 0.5", got)
	}
	e = newEngine(t, EngineConfig{BaseSpread: 0.05, MinSpread: 0.08, MaxSpread: 0.5})
	if got := e.AdaptiveSpread(0); got != 0.08 {
		t.Fatalf("spread = %v, want clamp to min 0.08", got)
	}
}

func TestQuotePreservesSpreadUnderSkew(t *testing.T) {
	// 倾斜把中心推过 mid 时只允许平移，不允许单侧钳制放宽实际价差
	e := newEngine(t, EngineConfig{BaseSpread: 0.4, MaxSpread: 0.5, SkewCoeff: 0.3, ImbalanceSensitivity: 1})
	for _, mid := range []float64{0.02, 0.30, 0.50, 0.98} {
		for _, inv := range []float64{-200, 0, 200} {
			for _, imb := range []float64{-1, 0, 1} {
				st := newMarket(t, mid)
				st.Inventory = inv
				q := e.Quote(st, imb)
				want := e.AdaptiveSpread(imb)
				if math.Abs(q.Spread()-want) > 1e-12 {
					t.Fatalf("mid=%v inv=%v imb=%v: realized spread %v != computed %v",
						mid, inv, imb, q.Spread(), want)
				}
				if q.Spread() > e.Config().MaxSpread+1e-12 {
					t.Fatalf("realized spread %v exceeds maxSpread", q.Spread())
				}
				if !(q.Bid < st.Mid && st.Mid < q.Ask) || q.Bid <= 0 || q.Ask >= 1 {
					t.Fatalf("mid=%v inv=%v: quote %v..%v out of bounds", mid, inv, q.Bid, q.Ask)
				}
			}
		}
	}
}

func TestInventorySkewDirection(t *testing.T) {
	e := newEngine(t, EngineConfig{SkewCoeff: 0.05})
	long := newMarket(t, 0.5)
	long.Inventory = 100
	short := newMarket(t, 0.5)
	short.Inventory = -100
	flat := newMarket(t, 0.5)

	qLong := e.Quote(long, 0)
	qShort := e.Quote(short, 0)
	qFlat := e.Quote(flat, 0)

	// 多头压低报价中心促进卖出，空头抬高促进买入
	if !(qLong.Bid < qFlat.Bid && qLong.Ask < qFlat.Ask) {
		t.Fatalf("long skew: %+v vs flat %+v", qLong, qFlat)
	}
	if !(qShort.Bid > qFlat.Bid && qShort.Ask > qFlat.Ask) {
		t.Fatalf("short skew: %+v vs flat %+v", qShort, qFlat)
	}
}

func TestRiskGateZeroesWorseningSide(t *testing.T) {
	e := newEngine(t, EngineConfig{BaseSize: 10})
	st := newMarket(t, 0.5)
	st.ApplyFill(0, market.SideBuy, 0.45, 200) // 打满库存上限

	q := e.Quote(st, 0)
	if q.BidSize != 0 {
		t.Fatalf("bid size = %v, want 0 when long-halted", q.BidSize)
	}
	if q.AskSize != 10 {
		t.Fatalf("ask size = %v, want normal on relieving side", q.AskSize)
	}

	// 空头方向对称
	st2 := newMarket(t, 0.5)
	st2.ApplyFill(0, market.SideSell, 0.55, 200)
	q2 := e.Quote(st2, 0)
	if q2.AskSize != 0 || q2.BidSize != 10 {
		t.Fatalf("short-halted sizes = %+v", q2)
	}
}

func TestSizeShrinksWithHeadroom(t *testing.T) {
	e := newEngine(t, EngineConfig{BaseSize: 10})
	st := newMarket(t, 0.5)
	st.Inventory = 195 // 余量 5
	q := e.Quote(st, 0)
	if math.Abs(q.BidSize-5) > 1e-12 {
		t.Fatalf("bid size = %v, want headroom 5", q.BidSize)
	}
	if q.AskSize != 10 {
		t.Fatalf("ask size = %v, want full base", q.AskSize)
	}
}
