package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"keypad-calc/internal/calculator"
	"keypad-calc/internal/keypad"
	"keypad-calc/internal/observability"
)

func TestMain(m *testing.M) {
	if err := InitMetrics(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func keys(t testing.TB, glyphs ...string) []calculator.Key {
	t.Helper()
	ks, err := keypad.New().Parse(glyphs)
	if err != nil {
		t.Fatalf("parsing keys: %v", err)
	}
	return ks
}

func TestStorePressEvaluates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	snap := store.Create(ctx)

	steps, got, err := store.Press(ctx, snap.ID, keys(t, "2", "+", "3", "=")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[3].Outcome != "evaluated" {
		t.Fatalf("expected last step evaluated, got %q", steps[3].Outcome)
	}
	if steps[1].Display.History != "2+" {
		t.Fatalf("expected intermediate history %q, got %q", "2+", steps[1].Display.History)
	}
	if got.Display != (calculator.Display{History: "2+3=", Current: "5"}) {
		t.Fatalf("unexpected display %+v", got.Display)
	}
}

func TestStoreSessionsAreIndependent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a, b := store.Create(ctx), store.Create(ctx)

	if _, _, err := store.Press(ctx, a.ID, keys(t, "9", "9")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Snapshot(b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Display != (calculator.Display{}) {
		t.Fatalf("expected untouched session, got %+v", got.Display)
	}
}

func TestStoreAppliesEngineOptions(t *testing.T) {
	store := NewStore(WithEngineOptions(calculator.WithMaxDigits(3), calculator.WithPrecision(1)))
	ctx := context.Background()
	snap := store.Create(ctx)

	_, got, err := store.Press(ctx, snap.ID, keys(t, "1", "2", "3", "4", "/", "7", "=")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Display.Current != "17.6" {
		t.Fatalf("expected %q, got %q", "17.6", got.Display.Current)
	}
}

func TestStoreUnknownSession(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Snapshot("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, _, err := store.Press(ctx, "nope", calculator.Digit('1')); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.ToggleSound("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	snap := store.Create(ctx)

	if err := store.Delete(ctx, snap.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d sessions", store.Len())
	}
	if _, err := store.Snapshot(snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFeedbackFiresOncePerKeyUnlessMuted(t *testing.T) {
	var clicks atomic.Int32
	store := NewStore(WithFeedback(FeedbackFunc(func(ctx context.Context, sessionID string, k calculator.Key) {
		clicks.Add(1)
	})))
	ctx := context.Background()
	snap := store.Create(ctx)

	// ignored keys still click
	if _, _, err := store.Press(ctx, snap.ID, keys(t, "+", "1", ".", ".")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := clicks.Load(); got != 4 {
		t.Fatalf("expected 4 clicks, got %d", got)
	}

	muted, err := store.ToggleSound(snap.ID)
	if err != nil || !muted {
		t.Fatalf("expected muted session, got %t, %v", muted, err)
	}

	_, got, err := store.Press(ctx, snap.ID, keys(t, "5")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clicks.Load() != 4 {
		t.Fatalf("expected no clicks while muted, got %d", clicks.Load())
	}
	if got.Display.Current != "1.5" || !got.Muted {
		t.Fatalf("expected arithmetic unaffected by mute, got %+v", got)
	}
}

func TestStoreSweepEvictsIdleSessions(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := t0

	store := NewStore(WithIdleTTL(10 * time.Minute))
	store.now = func() time.Time { return now }
	ctx := context.Background()

	stale := store.Create(ctx)
	fresh := store.Create(ctx)

	now = t0.Add(8 * time.Minute)
	if _, _, err := store.Press(ctx, fresh.ID, calculator.Digit('1')); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := store.Sweep(t0.Add(11 * time.Minute)); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := store.Snapshot(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected stale session evicted, got %v", err)
	}
	if _, err := store.Snapshot(fresh.ID); err != nil {
		t.Fatalf("expected fresh session kept, got %v", err)
	}
}

func TestStorePressMarksSessionUsedBeforeKeys(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := t0

	var store *Store
	var evicted int
	store = NewStore(
		WithIdleTTL(10*time.Minute),
		WithFeedback(FeedbackFunc(func(ctx context.Context, sessionID string, k calculator.Key) {
			evicted += store.Sweep(t0.Add(11 * time.Minute))
		})),
	)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	snap := store.Create(ctx)

	now = t0.Add(9 * time.Minute)
	if _, _, err := store.Press(ctx, snap.ID, keys(t, "1", "+", "2")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evicted != 0 {
		t.Fatalf("expected no evictions during the batch, got %d", evicted)
	}
	if _, err := store.Snapshot(snap.ID); err != nil {
		t.Fatalf("expected session kept, got %v", err)
	}
}

func TestStoreRunStopsOnCancel(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStorePressSerializesConcurrentKeys(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	snap := store.Create(ctx)

	if _, _, err := store.Press(ctx, snap.ID, calculator.Digit('0')); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const workers = 25
	increment := keys(t, "+", "1", "=")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.Press(ctx, snap.ID, increment...); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Snapshot(snap.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Display.Current != "25" {
		t.Fatalf("expected %q, got %q", "25", got.Display.Current)
	}
}

func TestStoreLogsEvaluationsAndFaults(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	oldLogger := observability.Logger
	observability.Logger = zap.New(core)
	t.Cleanup(func() { observability.Logger = oldLogger })

	store := NewStore()
	ctx := context.Background()
	snap := store.Create(ctx)

	if _, _, err := store.Press(ctx, snap.ID, keys(t, "8", "÷", "2", "=", "÷", "0", "=")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evaluated := logs.FilterMessage("expression evaluated").All()
	if len(evaluated) != 1 {
		t.Fatalf("expected 1 evaluation entry, got %d", len(evaluated))
	}
	if fields := evaluated[0].ContextMap(); fields["result"] != "4" || fields["operation"] != "divide" {
		t.Fatalf("unexpected evaluation fields %#v", fields)
	}

	faults := logs.FilterMessage("expression has no result").All()
	if len(faults) != 1 || faults[0].Level != zap.WarnLevel {
		t.Fatalf("expected 1 fault warning, got %+v", faults)
	}
	if got := faults[0].ContextMap()["fault"]; got != "divide_by_zero" {
		t.Fatalf("expected fault %q, got %#v", "divide_by_zero", got)
	}
}
