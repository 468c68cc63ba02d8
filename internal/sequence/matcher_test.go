package sequence

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/schedule"
)

// testSource is a minimal Source that delivers codes synchronously.
type testSource struct {
	mu        sync.Mutex
	observers map[int]func(key.Code)
	nextID    int
}

func newTestSource() *testSource {
	return &testSource{observers: make(map[int]func(key.Code))}
}

func (s *testSource) Subscribe(observe func(key.Code)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = observe
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *testSource) press(codes ...key.Code) {
	for _, c := range codes {
		s.mu.Lock()
		obs := make([]func(key.Code), 0, len(s.observers))
		for _, o := range s.observers {
			obs = append(obs, o)
		}
		s.mu.Unlock()
		for _, o := range obs {
			o(c)
		}
	}
}

func (s *testSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// recorder counts notifications per ID.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) Notify(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

type fixture struct {
	src     *testSource
	rec     *recorder
	clock   *schedule.Manual
	metrics *Metrics
	m       *Matcher
}

func newFixture(t *testing.T, target []key.Code, timeout time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		src:     newTestSource(),
		rec:     &recorder{},
		clock:   schedule.NewManual(time.Unix(0, 0)),
		metrics: NewMetrics(),
	}
	cfg := Config{Target: target, NotificationID: "test", IdleTimeout: timeout}
	m, err := New(cfg, f.src, f.rec, WithScheduler(f.clock), WithMetrics(f.metrics))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.m = m
	t.Cleanup(m.Release)
	return f
}

func TestMatcherExactMatchFiresOnce(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 850*time.Millisecond)

	f.src.press(1, 2, 3)
	if got := f.rec.count(); got != 1 {
		t.Fatalf("notifications after one sequence = %d, want 1", got)
	}
	if len(f.m.Buffer()) != 0 {
		t.Errorf("buffer not cleared after match: %v", f.m.Buffer())
	}

	f.src.press(1, 2, 3)
	if got := f.rec.count(); got != 2 {
		t.Errorf("notifications after two sequences = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"test", "test"}, f.rec.ids); diff != "" {
		t.Errorf("notification IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestMatcherMatchSchedulesNoDeadline(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 100*time.Millisecond)

	f.src.press(1, 2)
	if got := f.clock.Pending(); got != 1 {
		t.Fatalf("pending deadlines after partial input = %d, want 1", got)
	}

	f.src.press(3)
	if got := f.clock.Pending(); got != 0 {
		t.Errorf("pending deadlines after match = %d, want 0", got)
	}
}

func TestMatcherIdleTimeoutClearsPartialBuffer(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 100*time.Millisecond)

	f.src.press(1, 2)
	if diff := cmp.Diff([]key.Code{1, 2}, f.m.Buffer()); diff != "" {
		t.Fatalf("buffer mismatch (-want +got):\n%s", diff)
	}

	f.clock.Advance(100 * time.Millisecond)
	if len(f.m.Buffer()) != 0 {
		t.Fatalf("buffer not cleared by timeout: %v", f.m.Buffer())
	}

	f.src.press(3)
	if got := f.rec.count(); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}
	if got := f.metrics.Snapshot().Timeouts; got != 1 {
		t.Errorf("timeouts = %d, want 1", got)
	}
}

func TestMatcherDebounce(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 80*time.Millisecond)

	f.src.press(1)
	f.clock.Advance(50 * time.Millisecond)
	if got := f.clock.Pending(); got != 1 {
		t.Fatalf("pending deadlines = %d, want 1", got)
	}

	f.src.press(2)
	if got := f.clock.Pending(); got != 1 {
		t.Fatalf("pending deadlines after reschedule = %d, want 1", got)
	}
	f.clock.Advance(50 * time.Millisecond)

	f.src.press(3)
	if got := f.rec.count(); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
	if got := f.metrics.Snapshot().Timeouts; got != 0 {
		t.Errorf("timeouts = %d, want 0", got)
	}
}

func TestMatcherTrailingInputAfterMatch(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 850*time.Millisecond)

	f.src.press(1, 2, 3, 4)
	if got := f.rec.count(); got != 1 {
		t.Fatalf("notifications = %d, want 1", got)
	}
	if len(f.m.Buffer()) != 0 {
		t.Fatalf("buffer after trailing symbol = %v, want empty", f.m.Buffer())
	}

	f.src.press(1, 2, 3)
	if got := f.rec.count(); got != 2 {
		t.Errorf("notifications = %d, want 2", got)
	}
}

func TestMatcherOverflowResets(t *testing.T) {
	// "12"+"3" reads as "123" like the target, so [12,3] survives the
	// compatibility check at full length without matching.
	f := newFixture(t, []key.Code{1, 23}, 850*time.Millisecond)

	f.src.press(12, 3)
	if got := f.rec.count(); got != 0 {
		t.Fatalf("[12 3] must not match [1 23] positionally, got %d notifications", got)
	}
	if diff := cmp.Diff([]key.Code{12, 3}, f.m.Buffer()); diff != "" {
		t.Fatalf("buffer mismatch (-want +got):\n%s", diff)
	}

	f.src.press(1)
	if len(f.m.Buffer()) != 0 {
		t.Fatalf("buffer after overflow = %v, want empty", f.m.Buffer())
	}
	if got := f.metrics.Snapshot().Overflows; got != 1 {
		t.Errorf("overflows = %d, want 1", got)
	}
	if got := f.clock.Pending(); got != 0 {
		t.Errorf("pending deadlines after overflow = %d, want 0", got)
	}

	f.src.press(1, 23)
	if got := f.rec.count(); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestMatcherMismatchClears(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 850*time.Millisecond)

	f.src.press(1, 2, 9)
	if len(f.m.Buffer()) != 0 {
		t.Errorf("buffer after mismatch = %v, want empty", f.m.Buffer())
	}
	if got := f.metrics.Snapshot().Mismatches; got != 1 {
		t.Errorf("mismatches = %d, want 1", got)
	}
	if got := f.clock.Pending(); got != 0 {
		t.Errorf("pending deadlines after mismatch = %d, want 0", got)
	}
}

func TestMatcherSubstringQuirk(t *testing.T) {
	f := newFixture(t, []key.Code{1, 1, 2}, 850*time.Millisecond)

	f.src.press(1)
	if diff := cmp.Diff([]key.Code{1}, f.m.Buffer()); diff != "" {
		t.Fatalf("[1] should be retained (-want +got):\n%s", diff)
	}

	// "12" occurs in "112" even though [1 2] is not a prefix of [1 1 2].
	f.src.press(2)
	if diff := cmp.Diff([]key.Code{1, 2}, f.m.Buffer()); diff != "" {
		t.Fatalf("[1 2] should be retained (-want +got):\n%s", diff)
	}
	if got := f.rec.count(); got != 0 {
		t.Fatalf("quirk must not produce a match, got %d", got)
	}

	f.src.press(2)
	if len(f.m.Buffer()) != 0 {
		t.Errorf("[1 2 2] should be cleared, got %v", f.m.Buffer())
	}
	if got := f.rec.count(); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}

	f.src.press(1, 1, 2)
	if got := f.rec.count(); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestMatcherNonPrefixRetained(t *testing.T) {
	f := newFixture(t, []key.Code{38, 38, 40}, 850*time.Millisecond)

	f.src.press(40)
	if diff := cmp.Diff([]key.Code{40}, f.m.Buffer()); diff != "" {
		t.Errorf("[40] occurs inside the target and should be retained (-want +got):\n%s", diff)
	}
}

func TestMatcherReleaseStopsObservation(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2, 3}, 100*time.Millisecond)

	f.src.press(1)
	f.m.Release()

	if f.src.count() != 0 {
		t.Errorf("matcher still subscribed after Release")
	}
	if got := f.clock.Pending(); got != 0 {
		t.Errorf("pending deadlines after Release = %d, want 0", got)
	}

	f.src.press(1, 2, 3)
	f.m.Observe(1)
	f.m.Observe(2)
	f.m.Observe(3)

	if got := f.rec.count(); got != 0 {
		t.Errorf("notifications after Release = %d, want 0", got)
	}
	if got := f.metrics.Snapshot().Ignored; got != 3 {
		t.Errorf("ignored = %d, want 3", got)
	}
	if !f.m.IsReleased() {
		t.Error("IsReleased() = false")
	}

	// Idempotent
	f.m.Release()
}

func TestMatcherReleaseFromNotifier(t *testing.T) {
	src := newTestSource()
	var m *Matcher
	var fired int

	cfg := Config{Target: []key.Code{7, 8}, IdleTimeout: time.Second}
	m, err := New(cfg, src, NotifyFunc(func(id string) {
		fired++
		m.Release()
	}), WithScheduler(schedule.NewManual(time.Unix(0, 0))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src.press(7, 8, 7, 8)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
	if src.count() != 0 {
		t.Errorf("matcher still subscribed")
	}
}

func TestMatcherIndependentInstances(t *testing.T) {
	src := newTestSource()
	rec := &recorder{}
	clock := schedule.NewManual(time.Unix(0, 0))

	a, err := New(Config{Target: []key.Code{1, 2}, NotificationID: "a", IdleTimeout: time.Second}, src, rec, WithScheduler(clock))
	if err != nil {
		t.Fatalf("New a: %v", err)
	}
	defer a.Release()
	b, err := New(Config{Target: []key.Code{2, 3}, NotificationID: "b", IdleTimeout: time.Second}, src, rec, WithScheduler(clock))
	if err != nil {
		t.Fatalf("New b: %v", err)
	}
	defer b.Release()

	src.press(1, 2, 3)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if diff := cmp.Diff([]string{"a", "b"}, rec.ids); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestMatcherWallClockTimeout(t *testing.T) {
	src := newTestSource()
	rec := &recorder{}
	m, err := New(Config{Target: []key.Code{1, 2, 3}, IdleTimeout: 20 * time.Millisecond}, src, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Release()

	src.press(1, 2)

	deadline := time.Now().Add(2 * time.Second)
	for len(m.Buffer()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffer not cleared by wall-clock timeout: %v", m.Buffer())
		}
		time.Sleep(5 * time.Millisecond)
	}

	src.press(3)
	if rec.count() != 0 {
		t.Errorf("notifications = %d, want 0", rec.count())
	}
}

func TestNewValidation(t *testing.T) {
	src := newTestSource()
	rec := &recorder{}

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"nil target", Config{IdleTimeout: time.Second}, ErrEmptyTarget},
		{"empty target", Config{Target: []key.Code{}, IdleTimeout: time.Second}, ErrEmptyTarget},
		{"zero timeout", Config{Target: []key.Code{1}}, ErrInvalidTimeout},
		{"negative timeout", Config{Target: []key.Code{1}, IdleTimeout: -time.Second}, ErrInvalidTimeout},
		{"negative code", Config{Target: []key.Code{1, -2}, IdleTimeout: time.Second}, ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg, src, rec)
			if !errors.Is(err, tt.want) {
				t.Fatalf("New error = %v, want %v", err, tt.want)
			}
			if m != nil {
				t.Error("expected nil matcher on error")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected *ConfigError, got %T", err)
			}
		})
	}

	if src.count() != 0 {
		t.Errorf("failed construction must not subscribe, got %d observers", src.count())
	}
}

func TestNewNilCollaborators(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := New(cfg, nil, &recorder{}); !errors.Is(err, ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", err)
	}
	if _, err := New(cfg, newTestSource(), nil); !errors.Is(err, ErrNilNotifier) {
		t.Errorf("expected ErrNilNotifier, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if diff := cmp.Diff([]key.Code{49, 50, 51, 52, 53}, cfg.Target); diff != "" {
		t.Errorf("default target mismatch (-want +got):\n%s", diff)
	}
	if cfg.NotificationID != "SecretCodeMatch" {
		t.Errorf("NotificationID = %q", cfg.NotificationID)
	}
	if cfg.IdleTimeout != 850*time.Millisecond {
		t.Errorf("IdleTimeout = %v", cfg.IdleTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	// Mutating the returned target must not leak into later defaults.
	cfg.Target[0] = 0
	if DefaultConfig().Target[0] != 49 {
		t.Error("DefaultConfig shares the DefaultTarget backing array")
	}
}

func TestNotificationIDDefault(t *testing.T) {
	src := newTestSource()
	m, err := New(Config{Target: []key.Code{1}, IdleTimeout: time.Second}, src, &recorder{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Release()

	if got := m.NotificationID(); got != DefaultNotificationID {
		t.Errorf("NotificationID() = %q, want %q", got, DefaultNotificationID)
	}
}

func TestMatcherTargetIsCopied(t *testing.T) {
	target := []key.Code{1, 2}
	src := newTestSource()
	rec := &recorder{}
	m, err := New(Config{Target: target, IdleTimeout: time.Second}, src, rec,
		WithScheduler(schedule.NewManual(time.Unix(0, 0))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Release()

	target[1] = 9
	src.press(1, 2)
	if rec.count() != 1 {
		t.Errorf("target changed after construction")
	}
	if diff := cmp.Diff([]key.Code{1, 2}, m.Target()); diff != "" {
		t.Errorf("Target() mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	f := newFixture(t, []key.Code{1, 2}, time.Second)

	f.src.press(1, 2, 5, 1)
	snap := f.metrics.Snapshot()

	if snap.Observed != 4 || snap.Matches != 1 || snap.Mismatches != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.LastMatch.IsZero() {
		t.Error("LastMatch not recorded")
	}

	f.metrics.Reset()
	if got := f.metrics.Snapshot(); got.Observed != 0 || !got.LastMatch.IsZero() {
		t.Errorf("Reset did not clear counters: %+v", got)
	}

	var nilMetrics *Metrics
	if (nilMetrics.Snapshot() != MetricsSnapshot{}) {
		t.Error("nil Metrics snapshot should be zero")
	}
}
