package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 封装zap日志器，提供结构化日志功能
type Logger struct {
	*zap.Logger
}

// Config 日志配置
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json 或 console
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// New 创建新的Logger实例
func New(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg = DefaultConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return &Logger{
		Logger: zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)),
	}, nil
}

// WithMarket 返回携带市场标识字段的子日志器
func (l *Logger) WithMarket(marketID string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("market", marketID))}
}

// LogFill 记录成交事件（debug 级别，避免刷屏）
func (l *Logger) LogFill(step int, side string, price, size, pnl float64) {
	l.Debug("fill_event",
		zap.Int("step", step),
		zap.String("side", side),
		zap.Float64("price", price),
		zap.Float64("size", size),
		zap.Float64("pnl", pnl),
	)
}

// LogRisk 记录风控状态迁移
func (l *Logger) LogRisk(state string, reason string) {
	fields := []zap.Field{
		zap.String("state", state),
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	l.Warn("risk_event", fields...)
}

// LogError 记录错误并附带上下文
func (l *Logger) LogError(err error, fields ...zap.Field) {
	l.Error("error_event", append(fields, zap.Error(err))...)
}

// Close 关闭日志器
func (l *Logger) Close() error {
	return l.Sync()
}
