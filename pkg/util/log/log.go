// Package log provides the engine's contextual logging convention: every
// call site takes a context.Context (carrying logtags added by
// WithLogTag), a verbosity-gated helper decides whether expensive trace
// detail is worth formatting, and the actual writer is a zap logger rather
// than the ad-hoc file-group writer the engine's ancestor used internally.
package log

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
	"go.uber.org/zap"
)

// verbosity is the process-wide trace level. V(n) reports whether trace
// statements gated at level n should be evaluated and emitted. It mirrors
// the teacher's log.V(level) / VEventf(ctx, level, ...) convention.
var verbosity int32

// SetVerbosity sets the process-wide trace verbosity. Tests and callers
// that want VEventf/V-gated output use this instead of a flag, since this
// package has no CLI.
func SetVerbosity(level int32) {
	atomic.StoreInt32(&verbosity, level)
}

// V reports whether trace statements at the given level are enabled.
func V(level int32) bool {
	return atomic.LoadInt32(&verbosity) >= level
}

var (
	mu     syncMutex
	global *zap.SugaredLogger
)

// syncMutex avoids importing syncutil here to keep this leaf package
// dependency-free of the rest of the module; it is a plain sync.Mutex.
type syncMutex = sync.Mutex

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	global = l.Sugar()
}

// SetGlobal overrides the process-wide fallback logger. Tests use this to
// install an observable logger (zaptest/zapobserver) without threading a
// logger through every constructor.
func SetGlobal(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

func logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

type ctxTagKey struct{}

// WithLogTag attaches a logtags.Buffer entry to ctx, matching the teacher's
// convention of tagging a context with e.g. a transaction or partition id
// so every subsequent log line in that context carries it.
func WithLogTag(ctx context.Context, key string, value interface{}) context.Context {
	buf, _ := ctx.Value(ctxTagKey{}).(*logtags.Buffer)
	buf = buf.Add(key, value)
	return context.WithValue(ctx, ctxTagKey{}, buf)
}

func tagFields(ctx context.Context) []interface{} {
	buf, _ := ctx.Value(ctxTagKey{}).(*logtags.Buffer)
	if buf == nil {
		return nil
	}
	tags := buf.Get()
	fields := make([]interface{}, 0, len(tags)*2)
	for _, t := range tags {
		fields = append(fields, t.Key(), t.Value())
	}
	return fields
}

// Infof logs at info level, the teacher's default level for planning and
// scheduling milestones (plan constructed, speculative match found, ...).
func Infof(ctx context.Context, format string, args ...interface{}) {
	logger().With(tagFields(ctx)...).Infof(format, args...)
}

// Warningf logs at warn level, for recoverable anomalies.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logger().With(tagFields(ctx)...).Warnf(format, args...)
}

// Errorf logs at error level.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logger().With(tagFields(ctx)...).Errorf(format, args...)
}

// Fatalf logs at error level and then panics; the engine never calls
// os.Exit from a library package, unlike the teacher's original.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logger().With(tagFields(ctx)...).Errorf(format, args...)
	panic(fmt.Sprintf(format, args...))
}

// Eventf records a trace-only event. Without a distributed tracer wired in
// (out of scope for this core), it degenerates to a debug-level log line.
func Eventf(ctx context.Context, format string, args ...interface{}) {
	logger().With(tagFields(ctx)...).Debugf(format, args...)
}

// VEventf is Eventf gated on V(level): when tracing is disabled it skips
// formatting and emitting the line. Its arguments are still evaluated by
// the caller, so a call site building an expensive dump (e.g.
// BatchPlan.DebugString) checks V(level) itself first.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if !V(level) {
		return
	}
	Eventf(ctx, format, args...)
}
