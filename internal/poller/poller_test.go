package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"smokemate/internal/metrics"
	"smokemate/internal/models"
)

// stubFetcher answers every poll with fixed values and counts calls.
type stubFetcher struct {
	statusCalls, configCalls, historyCalls atomic.Int32

	mu        sync.Mutex
	status    models.DeviceStatus
	statusErr error
}

func (f *stubFetcher) FetchStatus(context.Context) (models.DeviceStatus, error) {
	f.statusCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.statusErr
}

func (f *stubFetcher) FetchConfig(context.Context) (models.DeviceConfig, error) {
	f.configCalls.Add(1)
	return models.DeviceConfig{TemperatureTarget: 225}, nil
}

func (f *stubFetcher) FetchHistory(context.Context) (models.History, error) {
	f.historyCalls.Add(1)
	return models.History{statusAt(100)}, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestPoller_PollsAndStops(t *testing.T) {
	f := &stubFetcher{status: statusAt(72)}
	store := NewStore()
	p := New(f, store, Intervals{Status: 5 * time.Millisecond, Config: 5 * time.Millisecond}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v", err)
	}
	waitFor(t, "several status polls", func() bool { return f.statusCalls.Load() >= 3 })
	p.Stop()

	if st, ok := store.Status(); !ok || st.TemperatureSmoker != 72 {
		t.Fatalf("status = %+v (ok=%v)", st, ok)
	}
	if cfg, ok := store.Config(); !ok || cfg.TemperatureTarget != 225 {
		t.Fatalf("config = %+v (ok=%v)", cfg, ok)
	}
	if n := f.historyCalls.Load(); n != 0 {
		t.Fatalf("history polled %d times with a zero interval", n)
	}

	after := f.statusCalls.Load()
	time.Sleep(30 * time.Millisecond)
	if n := f.statusCalls.Load(); n != after {
		t.Fatalf("polls continued after Stop: %d -> %d", after, n)
	}
	if p.Running() {
		t.Fatalf("Running() after Stop")
	}
}

func TestPoller_PollsImmediatelyOnStart(t *testing.T) {
	f := &stubFetcher{status: statusAt(70)}
	store := NewStore()
	p := New(f, store, Intervals{Status: time.Hour}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()
	waitFor(t, "first status", func() bool { _, ok := store.Status(); return ok })
}

func TestPoller_FailureKeepsValueAndCountsMetrics(t *testing.T) {
	f := &stubFetcher{status: statusAt(70)}
	store := NewStore()
	m := metrics.New(prometheus.NewRegistry())
	p := New(f, store, Intervals{Status: 5 * time.Millisecond}, nil, WithMetrics(m))

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()
	waitFor(t, "first status", func() bool { _, ok := store.Status(); return ok })

	f.mu.Lock()
	f.statusErr = errors.New("controller unreachable")
	f.mu.Unlock()

	waitFor(t, "a failed poll", func() bool { return !store.Connected() })
	if st, _ := store.Status(); st.TemperatureSmoker != 70 {
		t.Fatalf("failure replaced the value: %+v", st)
	}
	if got := testutil.ToFloat64(m.Polls.WithLabelValues("status", metrics.OutcomeFailed)); got < 1 {
		t.Fatalf("failed polls metric = %v", got)
	}
}

func TestPoller_ObserverSeesAppliedStatus(t *testing.T) {
	f := &stubFetcher{status: statusAt(81)}
	seen := make(chan float64, 16)
	p := New(f, NewStore(), Intervals{Status: time.Hour}, nil,
		WithStatusObserver(func(_ context.Context, st models.DeviceStatus) {
			select {
			case seen <- st.TemperatureSmoker:
			default:
			}
		}))

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	select {
	case got := <-seen:
		if got != 81 {
			t.Fatalf("observer saw %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("observer never called")
	}
}

// gatedFetcher holds the first status poll until released, ignoring ctx, to
// model a response that arrives after teardown.
type gatedFetcher struct {
	stubFetcher
	entered chan struct{}
	release chan struct{}
}

func (f *gatedFetcher) FetchStatus(ctx context.Context) (models.DeviceStatus, error) {
	close(f.entered)
	<-f.release
	return statusAt(99), nil
}

func TestPoller_CompletionAfterStopIsIgnored(t *testing.T) {
	f := &gatedFetcher{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore()
	p := New(f, store, Intervals{Status: time.Hour}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-f.entered

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	waitFor(t, "stop to begin", func() bool { return !p.Running() })
	close(f.release)
	<-stopped

	if _, ok := store.Status(); ok {
		t.Fatalf("status applied after Stop")
	}
}

func TestPoller_Refresh(t *testing.T) {
	f := &stubFetcher{status: statusAt(65)}
	store := NewStore()
	p := New(f, store, DefaultIntervals(), nil)

	p.Refresh(context.Background(), ResourceHistory)
	h, ok := store.History()
	if !ok || len(h) != 1 {
		t.Fatalf("history after Refresh = %v (ok=%v)", h, ok)
	}
}

func TestPoller_RefreshAfterStopIsIgnored(t *testing.T) {
	f := &stubFetcher{status: statusAt(72)}
	store := NewStore()
	p := New(f, store, Intervals{Status: time.Hour}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "first status", func() bool { _, ok := store.Status(); return ok })
	p.Stop()

	f.mu.Lock()
	f.status = statusAt(999)
	f.mu.Unlock()
	p.Refresh(context.Background(), ResourceStatus)

	if st, _ := store.Status(); st.TemperatureSmoker != 72 {
		t.Fatalf("Refresh after Stop changed the status to %v", st.TemperatureSmoker)
	}

	// a restart accepts completions again
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer p.Stop()
	p.Refresh(context.Background(), ResourceStatus)
	if st, _ := store.Status(); st.TemperatureSmoker != 999 {
		t.Fatalf("Refresh after restart: got %v", st.TemperatureSmoker)
	}
}

// orderedFetcher answers the first status poll at once and holds the second
// until released.
type orderedFetcher struct {
	stubFetcher
	calls      atomic.Int32
	secondGo   chan struct{}
	secondDone atomic.Bool
}

func (f *orderedFetcher) FetchStatus(ctx context.Context) (models.DeviceStatus, error) {
	if f.calls.Add(1) == 1 {
		return statusAt(70), nil
	}
	<-f.secondGo
	f.secondDone.Store(true)
	return statusAt(72), nil
}

func TestPoller_ObserversFollowApplyOrder(t *testing.T) {
	f := &orderedFetcher{secondGo: make(chan struct{})}
	firstEntered, firstRelease := make(chan struct{}), make(chan struct{})
	var (
		mu   sync.Mutex
		seen []float64
	)
	store := NewStore()
	p := New(f, store, DefaultIntervals(), nil,
		WithStatusObserver(func(_ context.Context, st models.DeviceStatus) {
			if st.TemperatureSmoker == 70 {
				close(firstEntered)
				<-firstRelease
			}
			mu.Lock()
			seen = append(seen, st.TemperatureSmoker)
			mu.Unlock()
		}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); p.Refresh(context.Background(), ResourceStatus) }()
	<-firstEntered
	go func() { defer wg.Done(); p.Refresh(context.Background(), ResourceStatus) }()
	close(f.secondGo)
	waitFor(t, "second fetch", f.secondDone.Load)
	time.Sleep(20 * time.Millisecond)
	close(firstRelease)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 70 || seen[1] != 72 {
		t.Fatalf("observer order = %v, want [70 72]", seen)
	}
	if st, _ := store.Status(); st.TemperatureSmoker != 72 {
		t.Fatalf("store status = %v, want 72", st.TemperatureSmoker)
	}
}
