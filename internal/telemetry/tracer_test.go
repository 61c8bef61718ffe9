package telemetry

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(false, "potencia-agenda", slog.Default())
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestHTTPClient(t *testing.T) {
	c := HTTPClient()
	if c.Transport == nil {
		t.Fatal("expected an instrumented transport")
	}
	if c.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", c.Timeout)
	}
}
