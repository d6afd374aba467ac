package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type loopHarness struct {
	ctx     context.Context
	cancel  context.CancelFunc
	clock   *clockwork.FakeClock
	metrics *Metrics
	calls   chan int
	stopped chan struct{}
	err     error
}

// startLoop runs a loop whose n-th iteration (1-based) returns results(n)
func startLoop(t *testing.T, cfg LoopConfig, results func(n int) error) *loopHarness {
	t.Helper()
	metrics, _ := newTestMetrics()
	h := &loopHarness{
		clock:   clockwork.NewFakeClock(),
		metrics: metrics,
		calls:   make(chan int, 16),
		stopped: make(chan struct{}),
	}
	h.ctx, h.cancel = context.WithCancel(context.Background())

	n := 0
	iterate := func(context.Context) error {
		n++
		h.calls <- n
		return results(n)
	}

	loop := NewLoop(cfg, iterate, h.clock, metrics, newTestLogger())
	go func() {
		h.err = loop.Run(h.ctx)
		close(h.stopped)
	}()
	t.Cleanup(func() {
		h.cancel()
		<-h.stopped
	})
	return h
}

// tick advances the fake clock by d once the loop is waiting on it
func (h *loopHarness) tick(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("loop never waited on the clock: %v", err)
	}
	h.clock.Advance(d)
}

// wait returns the error Run exited with
func (h *loopHarness) wait(t *testing.T) error {
	t.Helper()
	select {
	case <-h.stopped:
		return h.err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for loop to stop")
		return nil
	}
}

func (h *loopHarness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	return h.wait(t)
}

func TestLoop_ContinueOnErrorRunsNextTick(t *testing.T) {
	interval := 5 * time.Minute
	h := startLoop(t, LoopConfig{Name: "test", Interval: interval, Policy: ContinueOnError}, func(int) error {
		return errors.New("probe failed")
	})

	if n := waitSignal(t, h.calls); n != 1 {
		t.Fatalf("Expected first iteration, got %d", n)
	}
	h.tick(t, interval)
	if n := waitSignal(t, h.calls); n != 2 {
		t.Fatalf("Expected second iteration, got %d", n)
	}
	h.tick(t, interval)
	if n := waitSignal(t, h.calls); n != 3 {
		t.Fatalf("Expected third iteration, got %d", n)
	}

	if err := h.stop(t); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := testutil.ToFloat64(h.metrics.probeErrors.WithLabelValues("test")); got != 3 {
		t.Errorf("Expected 3 errors, got %f", got)
	}
	if got := testutil.ToFloat64(h.metrics.probeRuns.WithLabelValues("test")); got != 3 {
		t.Errorf("Expected 3 runs, got %f", got)
	}
}

func TestLoop_StopOnErrorEndsLoop(t *testing.T) {
	boom := errors.New("session expired")
	h := startLoop(t, LoopConfig{Name: "router", Interval: 5 * time.Second, Policy: StopOnError}, func(n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})

	waitSignal(t, h.calls)
	h.tick(t, 5*time.Second)
	waitSignal(t, h.calls)

	err := h.wait(t)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected loop to stop with %v, got %v", boom, err)
	}
	if got := testutil.ToFloat64(h.metrics.probeUp.WithLabelValues("router")); got != 0 {
		t.Errorf("Expected probe_up 0 after stop, got %f", got)
	}
	if got := testutil.ToFloat64(h.metrics.probeErrors.WithLabelValues("router")); got != 1 {
		t.Errorf("Expected 1 error, got %f", got)
	}
}

func TestLoop_RecoversPanic(t *testing.T) {
	h := startLoop(t, LoopConfig{Name: "panicky", Interval: time.Minute, Policy: ContinueOnError}, func(n int) error {
		if n == 1 {
			panic("index out of range")
		}
		return nil
	})

	waitSignal(t, h.calls)
	h.tick(t, time.Minute)
	if n := waitSignal(t, h.calls); n != 2 {
		t.Fatalf("Expected loop to survive panic, got iteration %d", n)
	}
	if err := h.stop(t); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := testutil.ToFloat64(h.metrics.probeErrors.WithLabelValues("panicky")); got != 1 {
		t.Errorf("Expected panic to count as 1 error, got %f", got)
	}
}

func TestLoop_WaitsForDelay(t *testing.T) {
	h := startLoop(t, LoopConfig{Name: "delayed", Interval: 5 * time.Minute, Delay: time.Minute}, func(int) error {
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("loop never waited on the delay: %v", err)
	}
	select {
	case <-h.calls:
		t.Fatal("Iteration ran before the start delay elapsed")
	default:
	}

	h.clock.Advance(time.Minute)
	waitSignal(t, h.calls)
	// the second iteration only starts once the first one has been recorded
	h.tick(t, 5*time.Minute)
	waitSignal(t, h.calls)

	if got := testutil.ToFloat64(h.metrics.probeUp.WithLabelValues("delayed")); got != 1 {
		t.Errorf("Expected probe_up 1 while running, got %f", got)
	}
	want := float64(h.clock.Now().Unix())
	if got := testutil.ToFloat64(h.metrics.probeLastSuccess.WithLabelValues("delayed")); got > want || got == 0 {
		t.Errorf("Expected last success timestamp <= %f, got %f", want, got)
	}
}

func TestLoop_CancelDuringDelay(t *testing.T) {
	h := startLoop(t, LoopConfig{Name: "delayed", Interval: time.Minute, Delay: time.Hour}, func(int) error {
		return nil
	})

	if err := h.stop(t); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	select {
	case <-h.calls:
		t.Error("Iteration ran although the loop was cancelled during its delay")
	default:
	}
}

func TestErrorPolicy_String(t *testing.T) {
	if ContinueOnError.String() != "continue" || StopOnError.String() != "stop" {
		t.Errorf("Unexpected policy names %q %q", ContinueOnError, StopOnError)
	}
}
