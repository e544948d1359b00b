package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"prediction-mm-go/config"
	"prediction-mm-go/infrastructure/logger"
	"prediction-mm-go/metrics"
	"prediction-mm-go/monitor"
	"prediction-mm-go/report"
	"prediction-mm-go/risk"
	"prediction-mm-go/sim"
)

// 多市场二元合约做市仿真入口：加载配置，为每个市场启动独立仿真循环，
// 汇总结果并写出 CSV 报表与 JSON 轨迹。
// 用法：
//
//	go run ./cmd/sim -config configs/config.yaml -out simulation_report.csv -trace trace.json
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	outPath := flag.String("out", "simulation_report.csv", "汇总 CSV 输出路径")
	tracePath := flag.String("trace", "trace.json", "轨迹 JSON 输出路径")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus metrics 监听地址，留空则关闭")
	streamAddr := flag.String("streamAddr", "", "WebSocket 轨迹直播监听地址，留空则关闭")
	watch := flag.Bool("watch", false, "监听配置变更并自动重跑仿真")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	collector := metrics.NewCollector()
	if *metricsAddr != "" {
		metrics.StartMetricsServer(*metricsAddr, collector)
		zlog.Info("metrics_listening", zap.String("addr", *metricsAddr))
	}

	var stream *monitor.StreamServer
	if *streamAddr != "" {
		stream = monitor.NewStreamServer()
		defer stream.Close()
		mux := http.NewServeMux()
		mux.Handle("/ws", stream)
		go func() {
			if err := http.ListenAndServe(*streamAddr, mux); err != nil {
				zlog.LogError(err, zap.String("addr", *streamAddr))
			}
		}()
		zlog.Info("stream_listening", zap.String("addr", *streamAddr))
	}

	deps := runDeps{
		log:       zlog,
		collector: collector,
		stream:    stream,
		outPath:   *outPath,
		tracePath: *tracePath,
	}
	runAll(cfg, deps)

	if !*watch {
		return
	}

	// watch 模式：配置文件变更后用新配置整体重跑
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	zlog.Info("watching_config", zap.String("path", *cfgPath))
	w := config.Watcher{Path: *cfgPath, Cooldown: 2 * time.Second}
	err = w.Start(ctx, func(next config.AppConfig) {
		zlog.Info("config_reloaded", zap.Int("markets", len(next.Markets)))
		runAll(next, deps)
	})
	if err != nil && ctx.Err() == nil {
		zlog.LogError(err)
	}
}

type runDeps struct {
	log       *logger.Logger
	collector *metrics.Collector
	stream    *monitor.StreamServer
	outPath   string
	tracePath string
}

// runAll 并行仿真全部市场。市场间互不交互，各自持有独立随机流；
// 某个市场中途失败不影响其他市场。
func runAll(cfg config.AppConfig, deps runDeps) {
	ids := make([]string, 0, len(cfg.Markets))
	for id := range cfg.Markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make(map[string]sim.Result, len(ids))
	var mu sync.Mutex
	var wg sync.WaitGroup

	start := time.Now()
	for _, id := range ids {
		runner, err := sim.BuildRunner(cfg.RunnerConfig(id))
		if err != nil {
			// 配置不合法的市场不启动，其余照常
			deps.log.LogError(err, zap.String("market", id))
			continue
		}
		attachListeners(runner, deps)

		wg.Add(1)
		go func(id string, r *sim.Runner) {
			defer wg.Done()
			summary, trace, err := r.Run()
			mu.Lock()
			results[id] = sim.Result{Summary: summary, Trace: trace, Err: err}
			mu.Unlock()
		}(id, runner)
	}
	wg.Wait()

	summaries := make([]sim.Summary, 0, len(results))
	var fullTrace []sim.TraceRecord
	for _, id := range ids {
		res, ok := results[id]
		if !ok {
			continue
		}
		if res.Err != nil {
			deps.log.LogError(res.Err, zap.String("market", id),
				zap.Int("completed_steps", len(res.Trace)))
		}
		summaries = append(summaries, res.Summary)
		fullTrace = append(fullTrace, res.Trace...)

		stats := report.Analyze(res.Trace)
		deps.log.Info("market_done",
			zap.String("market", id),
			zap.Float64("pnl", res.Summary.TotalPnL),
			zap.Int("fills", res.Summary.TotalFills),
			zap.Float64("maxDrawdown", res.Summary.MaxDrawdown),
			zap.Float64("winRate", stats.WinRate),
			zap.Float64("avgEdge", stats.AvgEdge),
			zap.Int("haltedSteps", stats.HaltedSteps),
		)
	}
	deps.log.Info("simulation_done",
		zap.Int("markets", len(summaries)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if len(summaries) == 0 {
		return
	}

	if err := report.WriteSummaryCSV(deps.outPath, summaries); err != nil {
		deps.log.LogError(err, zap.String("path", deps.outPath))
	} else {
		deps.log.Info("report_written", zap.String("path", deps.outPath))
	}
	if err := report.WriteTraceJSON(deps.tracePath, fullTrace); err != nil {
		deps.log.LogError(err, zap.String("path", deps.tracePath))
	} else {
		deps.log.Info("trace_written", zap.String("path", deps.tracePath))
	}

	printSummaries(summaries)
}

// attachListeners 挂接指标、直播与风控日志旁路。
func attachListeners(r *sim.Runner, deps runDeps) {
	id := r.State.ID
	mlog := deps.log.WithMarket(id)
	r.OnStep(deps.collector.ObserveStep)
	r.OnStep(func(rec sim.TraceRecord) {
		if rec.Filled {
			mlog.LogFill(rec.Step, rec.FillSide, rec.FillPrice, rec.FillSize, rec.PnL)
		}
	})
	if deps.stream != nil {
		r.OnStep(deps.stream.Publish)
	}
	r.State.Risk().SetStateListener(func(state risk.State, reason string) {
		deps.collector.ObserveRiskState(id, state)
		mlog.LogRisk(state.String(), reason)
	})
}

func printSummaries(summaries []sim.Summary) {
	fmt.Println("final market states:")
	for _, s := range summaries {
		fmt.Printf("  %s\n", s.MarketID)
		fmt.Printf("    pnl:          %.4f\n", s.TotalPnL)
		fmt.Printf("    fills:        %d\n", s.TotalFills)
		fmt.Printf("    max_drawdown: %.4f\n", s.MaxDrawdown)
		fmt.Printf("    inventory:    %.2f\n", s.FinalInventory)
		fmt.Printf("    mid:          %.4f\n", s.FinalMid)
		fmt.Printf("    notional:     %.2f\n", s.Notional)
	}
}
