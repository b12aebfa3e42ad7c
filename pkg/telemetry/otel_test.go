package telemetry

import (
	"context"
	"testing"
)

func TestSetupNoopWhenDisabled(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  bool
	}{
		{name: "no endpoint", endpoint: "", enabled: true},
		{name: "explicitly disabled", endpoint: "http://localhost:4318", enabled: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), "ims-test", tt.endpoint, tt.enabled)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if err := shutdown(ctx); err != nil {
				t.Fatalf("noop shutdown should not error: %v", err)
			}
		})
	}
}

func TestSetupCreatesProviderWhenEnabled(t *testing.T) {
	// Non-routable address: nothing is exported because no span is recorded.
	shutdown, err := Setup(context.Background(), "ims-test", "http://192.0.2.1:4318", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
