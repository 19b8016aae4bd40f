package otel

import "testing"

func TestTraceFromEnv(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"loop", true},
	}
	for _, tt := range tests {
		t.Setenv(traceEnvVar, tt.val)
		if got := traceFromEnv(); got != tt.want {
			t.Errorf("%s=%q: traceFromEnv() = %v, want %v", traceEnvVar, tt.val, got, tt.want)
		}
	}
}

func TestSetTraceEnabled(t *testing.T) {
	orig := TraceEnabled()
	defer setTraceEnabled(orig)

	for _, v := range []bool{true, false, true} {
		setTraceEnabled(v)
		if TraceEnabled() != v {
			t.Errorf("TraceEnabled() = %v after setTraceEnabled(%v)", !v, v)
		}
	}
}
