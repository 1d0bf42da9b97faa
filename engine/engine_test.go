package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-prologue/config"
	"github.com/Carmen-Shannon/oxy-prologue/engine/capability"
	"github.com/Carmen-Shannon/oxy-prologue/engine/model"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/Carmen-Shannon/oxy-prologue/engine/session"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RetryBackoff = time.Millisecond
	cfg.PageRetryBackoff = time.Millisecond
	return cfg
}

func capable() capability.Detector {
	return capability.Fixed(capability.Report{
		HasRenderContext:  true,
		HasMemoryHeadroom: true,
		Adapter:           "test adapter",
	})
}

func newTestCoordinator(t *testing.T, options ...CoordinatorBuilderOption) *coordinator {
	t.Helper()
	base := []CoordinatorBuilderOption{
		WithConfig(testConfig()),
		WithDetector(capable()),
		WithRenderLoop(false),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	c, err := New(context.Background(), append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(c.Dispose)
	return c.(*coordinator)
}

// testFactory wraps the default registry, counting calls and optionally holding
// finished builds until their gate opens.
type testFactory struct {
	mu      sync.Mutex
	calls   map[model.Type]int
	perf    []bool
	gates   map[model.Type]chan struct{}
	fail    map[model.Type]error
	built   []model.Mesh
	started chan model.Type
	next    model.Factory
}

func newTestFactory() *testFactory {
	return &testFactory{
		calls:   make(map[model.Type]int),
		gates:   make(map[model.Type]chan struct{}),
		fail:    make(map[model.Type]error),
		started: make(chan model.Type, 32),
		next:    model.DefaultRegistry(),
	}
}

func (f *testFactory) CreateModel(ctx context.Context, t model.Type, mc model.Context) (model.Mesh, error) {
	f.mu.Lock()
	f.calls[t]++
	f.perf = append(f.perf, mc.PerformanceMode)
	gate := f.gates[t]
	err := f.fail[t]
	f.mu.Unlock()
	f.started <- t

	if err != nil {
		return nil, err
	}
	m, err := f.next.CreateModel(ctx, t, mc)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.built = append(f.built, m)
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return m, nil
}

func (f *testFactory) gate(t model.Type) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[t] = ch
	return ch
}

func (f *testFactory) count(t model.Type) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[t]
}

func waitStarted(t *testing.T, f *testFactory, want model.Type) {
	t.Helper()
	select {
	case got := <-f.started:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("construction of %s never started", want)
	}
}

type transition struct{ From, To State }

type recorder struct {
	mu          sync.Mutex
	transitions []transition
	loading     []bool
	errs        []error
	fatal       []bool
	fallbacks   map[int]string
}

func newRecorder() *recorder {
	return &recorder{fallbacks: make(map[int]string)}
}

func (r *recorder) options() []CoordinatorBuilderOption {
	return []CoordinatorBuilderOption{
		WithOnStateChange(func(from, to State) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.transitions = append(r.transitions, transition{from, to})
		}),
		WithOnLoadingStateChange(func(loading bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.loading = append(r.loading, loading)
		}),
		WithOnError(func(err error, fatal bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
			r.fatal = append(r.fatal, fatal)
		}),
		WithOnPageFallback(func(page int, description string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.fallbacks[page] = description
		}),
	}
}

func (r *recorder) snapshot() ([]transition, []bool, []error, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transition(nil), r.transitions...), append([]bool(nil), r.loading...),
		append([]error(nil), r.errs...), append([]bool(nil), r.fatal...)
}

func TestNoRenderContextNeverConstructs(t *testing.T) {
	var constructs atomic.Int32
	rec := newRecorder()
	opts := append(rec.options(),
		WithDetector(capability.Fixed(capability.Report{Reason: "no adapter"})),
		WithSessionConstructor(func(context.Context, session.Settings) (session.Session, error) {
			constructs.Add(1)
			return nil, errors.New("unreachable")
		}),
	)
	c := newTestCoordinator(t, opts...)

	assert.Zero(t, constructs.Load())
	assert.True(t, c.IsInFallbackMode())
	assert.True(t, c.ErrorState().InFallback)
	assert.ErrorIs(t, c.LoadModelForPage(context.Background(), 0), ErrFallback)
	assert.False(t, c.AttemptRecovery(context.Background()))
	assert.Zero(t, constructs.Load())

	_, loading, errs, fatal := rec.snapshot()
	assert.Equal(t, []bool{true, false}, loading)
	require.Len(t, errs, 1)
	assert.Equal(t, []bool{true}, fatal)
	assert.ErrorIs(t, errs[0], ErrNoRenderContext)
	assert.Equal(t, CategoryCapability, Classify(errs[0]))
}

func TestCapabilityLoggedOnceAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	d := capability.NewDetector(
		capability.WithLogger(logger),
		capability.WithRenderProbe(func() (string, error) { return "test adapter", nil }),
		capability.WithMemoryProbe(func() uint64 { return 1 << 30 }),
	)
	newTestCoordinator(t, WithDetector(d), WithLogger(logger))

	assert.Equal(t, 1, strings.Count(buf.String(), "capability detected"))
	assert.NotContains(t, buf.String(), "capability probed")
}

func TestConstructionFailuresExhaustRetries(t *testing.T) {
	var mu sync.Mutex
	var seen []session.Settings
	rec := newRecorder()
	opts := append(rec.options(),
		WithSessionConstructor(func(_ context.Context, st session.Settings) (session.Session, error) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, st)
			return nil, errors.New("device lost")
		}),
	)
	c := newTestCoordinator(t, opts...)

	es := c.ErrorState()
	assert.Equal(t, 3, es.ErrorCount)
	assert.Equal(t, 3, es.RetryCount)
	assert.True(t, es.InFallback)
	assert.ErrorIs(t, es.LastError, ErrSessionFailed)
	assert.Equal(t, StateFallbackTextOnly, c.State())

	mu.Lock()
	require.Len(t, seen, 3)
	assert.True(t, seen[0].PostProcessing)
	assert.True(t, seen[0].Antialias)
	for _, st := range seen[1:] {
		assert.False(t, st.PostProcessing)
		assert.False(t, st.Antialias)
	}
	mu.Unlock()

	_, _, errs, fatal := rec.snapshot()
	require.Len(t, errs, 1)
	assert.Equal(t, []bool{true}, fatal)
	assert.Equal(t, CategoryEngine, Classify(errs[0]))
}

func TestFallbacksDisabledReturnsError(t *testing.T) {
	cfg := testConfig()
	cfg.EnableFallbacks = false
	c, err := New(context.Background(),
		WithConfig(cfg),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithDetector(capability.Fixed(capability.Report{Reason: "headless CI"})),
	)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrNoRenderContext)
}

func TestNoMemoryHeadroomMakesOneReducedAttempt(t *testing.T) {
	var attempts atomic.Int32
	var reduced atomic.Bool
	c := newTestCoordinator(t,
		WithDetector(capability.Fixed(capability.Report{HasRenderContext: true, Reason: "low memory"})),
		WithSessionConstructor(func(_ context.Context, st session.Settings) (session.Session, error) {
			attempts.Add(1)
			reduced.Store(!st.Antialias && !st.PostProcessing)
			return nil, errors.New("allocation failed")
		}),
	)

	assert.Equal(t, int32(1), attempts.Load())
	assert.True(t, reduced.Load())
	assert.True(t, c.IsInFallbackMode())
	assert.Equal(t, CategoryMemory, Classify(c.ErrorState().LastError))
}

func TestConstructionSucceedsOnRetry(t *testing.T) {
	var attempts atomic.Int32
	headless := session.NewHeadlessConstructor()
	c := newTestCoordinator(t,
		WithSessionConstructor(func(ctx context.Context, st session.Settings) (session.Session, error) {
			if attempts.Add(1) == 1 {
				return nil, errors.New("transient")
			}
			return headless(ctx, st)
		}),
	)

	assert.Equal(t, StateReady, c.State())
	es := c.ErrorState()
	assert.Equal(t, 1, es.ErrorCount)
	assert.Equal(t, 2, es.RetryCount)
	assert.False(t, es.InFallback)
}

func TestLoadModelForPageAttachesOneTier(t *testing.T) {
	c := newTestCoordinator(t)

	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	assert.Equal(t, 0, c.CurrentPage())
	assert.Equal(t, StateReady, c.State())

	cm := c.current
	require.NotNil(t, cm)
	require.Len(t, cm.meshes, 3)
	sc := c.sess.Scene()
	enabled := 0
	for _, m := range cm.meshes {
		assert.True(t, sc.Contains(m))
		if m.Enabled() {
			enabled++
		}
	}
	assert.Equal(t, 1, enabled)

	require.True(t, c.Frame(1.0/60))
	require.True(t, c.Frame(1.0/60))
	metrics := c.PerformanceMetrics()
	assert.Equal(t, 1, metrics.DrawCalls)
	assert.Positive(t, metrics.TriangleCount)
	assert.Positive(t, metrics.MemoryEstimate)
}

func TestSamePageTwiceConstructsOnce(t *testing.T) {
	f := newTestFactory()
	gate := f.gate(model.TypePlanet)
	c := newTestCoordinator(t, WithFactory(f))

	results := make(chan error, 2)
	for range 2 {
		go func() { results <- c.LoadModelForPage(context.Background(), 1) }()
	}
	waitStarted(t, f, model.TypePlanet)
	// The second request is a no-op while the first is in flight.
	select {
	case err := <-results:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("duplicate request did not return")
	}
	close(gate)
	assert.NoError(t, <-results)

	require.NoError(t, c.LoadModelForPage(context.Background(), 1))
	assert.Equal(t, 1, f.count(model.TypePlanet))
	assert.Equal(t, 1, c.CurrentPage())
}

func TestLaterPageSupersedesEarlierLoad(t *testing.T) {
	f := newTestFactory()
	gate := f.gate(model.TypeEmblem)
	c := newTestCoordinator(t, WithFactory(f))

	first := make(chan error, 1)
	go func() { first <- c.LoadModelForPage(context.Background(), 0) }()
	waitStarted(t, f, model.TypeEmblem)

	require.NoError(t, c.LoadModelForPage(context.Background(), 1))
	assert.Equal(t, 1, c.CurrentPage())

	close(gate)
	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, 1, c.CurrentPage())
	assert.Equal(t, StateReady, c.State())

	// The superseded model was still cached and is reused without another construction.
	assert.Equal(t, 2, c.models.Len())
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	assert.Equal(t, 1, f.count(model.TypeEmblem))
	assert.Equal(t, 0, c.CurrentPage())
}

func TestSupersededBuildsDoNotHoldUpCurrentPage(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 2
	f := newTestFactory()
	gates := []chan struct{}{f.gate(model.TypeEmblem), f.gate(model.TypePlanet)}
	c := newTestCoordinator(t, WithConfig(cfg), WithFactory(f))

	results := make(chan error, 2)
	go func() { results <- c.LoadModelForPage(context.Background(), 0) }()
	waitStarted(t, f, model.TypeEmblem)
	go func() { results <- c.LoadModelForPage(context.Background(), 1) }()
	waitStarted(t, f, model.TypePlanet)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.LoadModelForPage(ctx, 2))
	assert.Equal(t, 2, c.CurrentPage())
	assert.Equal(t, 1, f.count(model.TypeParasite))

	for _, g := range gates {
		close(g)
	}
	for range 2 {
		assert.ErrorIs(t, <-results, ErrSuperseded)
	}
	assert.Equal(t, 2, c.CurrentPage())
	assert.Equal(t, 3, c.models.Len())
}

func TestClearCacheKeepsDisplayedModel(t *testing.T) {
	c := newTestCoordinator(t)

	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	old := c.current
	require.NoError(t, c.LoadModelForPage(context.Background(), 1))
	shown := c.current
	require.Equal(t, 2, c.models.Len())

	require.NoError(t, c.ClearCache())
	assert.Equal(t, 1, c.models.Len())
	assert.Same(t, shown, c.current)
	for _, m := range shown.meshes {
		assert.False(t, m.Disposed())
	}
	for _, m := range old.meshes {
		assert.True(t, m.Disposed())
	}
	assert.True(t, c.Frame(1.0/60))
}

func TestPageFailureFallsBackToText(t *testing.T) {
	f := newTestFactory()
	f.fail[model.TypeParasite] = model.NewError(model.KindNotFound, "create parasite", errors.New("missing asset"))
	f.fail[model.TypeTerrain] = errors.New("upload timed out")
	rec := newRecorder()
	c := newTestCoordinator(t, append(rec.options(), WithFactory(f))...)

	require.NoError(t, c.LoadModelForPage(context.Background(), 0))

	err := c.LoadModelForPage(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))
	assert.Equal(t, 1, f.count(model.TypeParasite))

	err = c.LoadModelForPage(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, 3, f.count(model.TypeTerrain))

	assert.False(t, c.IsInFallbackMode())
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, -1, c.CurrentPage())

	rec.mu.Lock()
	assert.Equal(t, model.Describe(model.TypeParasite), rec.fallbacks[2])
	assert.Equal(t, model.Describe(model.TypeTerrain), rec.fallbacks[3])
	assert.Equal(t, []bool{false, false}, rec.fatal)
	rec.mu.Unlock()

	f.mu.Lock()
	// Parasite once, then terrain three times with retries in performance mode.
	assert.Equal(t, []bool{false, false, false, true, true}, f.perf)
	f.mu.Unlock()
}

func TestUnmappedPageFallsBack(t *testing.T) {
	rec := newRecorder()
	c := newTestCoordinator(t, rec.options()...)

	err := c.LoadModelForPage(context.Background(), 42)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Contains(t, rec.fallbacks, 42)
}

func TestLowPerformanceReducesAndRestoresQuality(t *testing.T) {
	cfg := testConfig()
	cfg.SampleWindow = 5
	cfg.SampleCapacity = 10
	c := newTestCoordinator(t, WithConfig(cfg))
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))

	r := c.sess.Renderer()
	require.Equal(t, renderer.MSAA4x, r.Quality().MSAA)

	for range 5 {
		c.Frame(0.05)
	}
	assert.True(t, c.PerformanceMetrics().Low)
	assert.Equal(t, renderer.MSAAOff, r.Quality().MSAA)
	assert.Equal(t, [3]bool{}, c.sess.Scene().Effects())
	assert.True(t, c.anim.Paused())
	assert.Equal(t, 1, c.lodBias)

	for range 5 {
		c.Frame(1.0 / 120)
	}
	assert.False(t, c.PerformanceMetrics().Low)
	assert.Equal(t, renderer.MSAA4x, r.Quality().MSAA)
	assert.Equal(t, [3]bool{true, true, true}, c.sess.Scene().Effects())
	assert.False(t, c.anim.Paused())
	assert.Zero(t, c.lodBias)
}

func TestCallbacksFireOncePerTransition(t *testing.T) {
	rec := newRecorder()
	c := newTestCoordinator(t, rec.options()...)

	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	c.Dispose()
	c.Dispose()

	transitions, loading, errs, _ := rec.snapshot()
	want := []transition{
		{StateUninitialized, StateInitializing},
		{StateInitializing, StateReady},
		{StateReady, StateLoading},
		{StateLoading, StateReady},
		{StateReady, StateDisposed},
	}
	if diff := cmp.Diff(want, transitions); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []bool{true, false, true, false}, loading)
	assert.Empty(t, errs)
}

func TestDisposeTwice(t *testing.T) {
	c := newTestCoordinator(t)
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	shown := c.current

	c.Dispose()
	c.Dispose()

	assert.Equal(t, StateDisposed, c.State())
	assert.ErrorIs(t, c.LoadModelForPage(context.Background(), 1), ErrDisposed)
	assert.ErrorIs(t, c.ClearCache(), ErrDisposed)
	assert.False(t, c.Frame(1.0/60))
	assert.False(t, c.AttemptRecovery(context.Background()))
	for _, m := range shown.meshes {
		assert.True(t, m.Disposed())
	}
	assert.True(t, c.models.Disposed())
	assert.True(t, c.materials.Disposed())
}

func TestDisposeDuringConstruction(t *testing.T) {
	f := newTestFactory()
	gate := f.gate(model.TypeEmblem)
	c := newTestCoordinator(t, WithFactory(f))

	result := make(chan error, 1)
	go func() { result <- c.LoadModelForPage(context.Background(), 0) }()
	waitStarted(t, f, model.TypeEmblem)

	c.Dispose()
	close(gate)
	assert.ErrorIs(t, <-result, ErrDisposed)

	f.mu.Lock()
	built := append([]model.Mesh(nil), f.built...)
	f.mu.Unlock()
	require.Len(t, built, 1)
	assert.Eventually(t, built[0].Disposed, time.Second, 5*time.Millisecond)
}

func TestCancelledLoadKeepsCurrentModel(t *testing.T) {
	f := newTestFactory()
	gate := f.gate(model.TypePlanet)
	rec := newRecorder()
	c := newTestCoordinator(t, append(rec.options(), WithFactory(f))...)
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.LoadModelForPage(ctx, 1) }()
	waitStarted(t, f, model.TypePlanet)
	cancel()
	assert.ErrorIs(t, <-result, context.Canceled)
	assert.Equal(t, 0, c.CurrentPage())
	assert.Equal(t, StateReady, c.State())

	// The construction finishes in the background and is reused.
	close(gate)
	require.Eventually(t, func() bool { return c.models.Len() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.LoadModelForPage(context.Background(), 1))
	assert.Equal(t, 1, f.count(model.TypePlanet))

	_, _, errs, _ := rec.snapshot()
	assert.Empty(t, errs)
}

func TestSessionFatalEntersFallbackAndRecovers(t *testing.T) {
	rec := newRecorder()
	c := newTestCoordinator(t, rec.options()...)
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	shown := c.current

	c.onSessionFatal(errors.New("render loop panic: device lost"))

	assert.True(t, c.IsInFallbackMode())
	assert.Equal(t, -1, c.CurrentPage())
	assert.Zero(t, c.models.Len())
	for _, m := range shown.meshes {
		assert.True(t, m.Disposed())
	}
	es := c.ErrorState()
	assert.Equal(t, 1, es.ErrorCount)
	assert.Equal(t, CategoryEngine, Classify(es.LastError))

	require.True(t, c.AttemptRecovery(context.Background()))
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, ErrorState{RetryCount: 1}, c.ErrorState())
	require.NoError(t, c.LoadModelForPage(context.Background(), 0))
	assert.True(t, c.Frame(1.0/60))

	_, _, errs, fatal := rec.snapshot()
	assert.Len(t, errs, 1)
	assert.Equal(t, []bool{true}, fatal)
}

func TestAttemptRecoveryOutsideFallback(t *testing.T) {
	c := newTestCoordinator(t)
	assert.False(t, c.AttemptRecovery(context.Background()))
	assert.Equal(t, StateReady, c.State())
}

func TestPageDescription(t *testing.T) {
	c := newTestCoordinator(t, WithPageModel(7, model.TypeTerrain))
	assert.Equal(t, model.Describe(model.TypeTerrain), c.PageDescription(7))
	assert.NotEmpty(t, c.PageDescription(0))
	assert.NotEqual(t, model.Describe(model.TypeEmblem), c.PageDescription(0))
}
