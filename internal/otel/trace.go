package otel

import (
	"os"
	"sync/atomic"
)

// traceEnvVar turns on per-task main loop tracing when set to anything
// other than "", "0" or "false".
const traceEnvVar = "STORESEARCH_TRACE"

// traceEnabled is read on the main loop and written by tests.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(traceFromEnv())
}

func traceFromEnv() bool {
	switch os.Getenv(traceEnvVar) {
	case "", "0", "false":
		return false
	}
	return true
}

// TraceEnabled reports whether STORESEARCH_TRACE was set at startup.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
