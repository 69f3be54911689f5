// Package zap adapts a *zap.Logger to the bqcache Logger interface.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/bqcache"
)

type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f bqcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f bqcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f bqcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f bqcache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f bqcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
