// internal/integration/cancel_integration_test.go
package integration

import (
	"context"
	"io"
	"testing"
	"time"

	"rodcal/internal/app"
)

func TestCtrlC_MidSweep_Exit130(t *testing.T) {
	_, argv := stand(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	code := app.RunContext(ctx, argv, io.Discard, io.Discard)
	if code != 130 && code != 0 {
		t.Fatalf("exit %d, want 130 (or 0 if the sweep won the race)", code)
	}

	// A cancellation delivered before the sweep starts is always 130.
	done, stop := context.WithCancel(context.Background())
	stop()
	if code := app.RunContext(done, argv, io.Discard, io.Discard); code != 130 {
		t.Fatalf("pre-cancelled exit %d, want 130", code)
	}
}
