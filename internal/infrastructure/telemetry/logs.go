package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsEnabled reports whether logs are exported through OTLP
func (p *Providers) LogsEnabled() bool {
	return p != nil && p.logs != nil
}

// NewZapOTELCore returns a core that forwards zap entries at or above level
// to the OpenTelemetry log pipeline. It is a no-op core when logs are disabled.
func NewZapOTELCore(p *Providers, name string, level zapcore.Level) zapcore.Core {
	if !p.LogsEnabled() {
		return zapcore.NewNopCore()
	}
	core := otelzap.NewCore(name, otelzap.WithLoggerProvider(p.logs))
	return &levelFilterCore{Core: core, minLevel: level}
}

// BridgeLogger tees base into the OpenTelemetry log pipeline
func BridgeLogger(base *zap.Logger, p *Providers, name string, level zapcore.Level) *zap.Logger {
	if !p.LogsEnabled() {
		return base
	}
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, NewZapOTELCore(p, name, level))
	}))
}

// levelFilterCore adds a minimum level to a core that has none
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.minLevel && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), minLevel: c.minLevel}
}
