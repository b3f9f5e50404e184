package sentence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WordLeap/app/oracle"
)

// scriptedOracle proposes deterministic, never-colliding pairs keyed by the
// current sentence length, with per-length failure injection.
type scriptedOracle struct {
	mu         sync.Mutex
	calls      int
	credential string
	failAtLen  map[int]bool
	periodAt   int // -1 disables; otherwise the leap word at this length ends the sentence
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{failAtLen: map[int]bool{}, periodAt: -1}
}

func (s *scriptedOracle) FetchPair(_ context.Context, words []string, _ int) (oracle.WordPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	n := len(words)
	if s.failAtLen[n] {
		return oracle.WordPair{}, errors.New("scripted oracle failure")
	}
	pair := oracle.WordPair{
		Safe: fmt.Sprintf("safe%d", n),
		Leap: fmt.Sprintf("leap%d", n),
	}
	if s.periodAt == n {
		pair.Leap += "."
	}
	return pair, nil
}

func (s *scriptedOracle) Fetch(_ context.Context, _ string) (oracle.WordPair, error) {
	return oracle.WordPair{}, errors.New("not scripted")
}

func (s *scriptedOracle) SetCredential(key string) { s.credential = key }
func (s *scriptedOracle) ClearCredential()         { s.credential = "" }

func (s *scriptedOracle) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memStore struct {
	mu    sync.Mutex
	value string
}

func (m *memStore) SaveCredential(_ context.Context, v string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	return nil
}

func (m *memStore) GetCredential(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *memStore) DeleteCredential(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	return nil
}

func newTestController(o oracle.Interface, target int, settle time.Duration) *Controller {
	c := NewController(o, nil, settle)
	c.drawTarget = func() int { return target }
	return c
}

func assertSealed(t *testing.T, snap Snapshot) {
	t.Helper()
	require.NotEmpty(t, snap.Words)
	last := snap.Words[len(snap.Words)-1]
	assert.True(t, strings.HasSuffix(last, "."), "last word %q lacks period", last)
	assert.False(t, strings.HasSuffix(last, ".."), "last word %q has doubled period", last)
	assert.GreaterOrEqual(t, len(snap.Words), MinTargetLength)
	assert.LessOrEqual(t, len(snap.Words), MaxTargetLength)
}

func TestAlwaysLeapRunsToTargetLength(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	c := newTestController(o, 8, 0)

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	assert.Equal(t, "sk-test", o.credential)
	assert.Equal(t, PhaseChoosing, c.Phase())

	for c.Phase() == PhaseChoosing {
		require.NoError(t, c.Choose(ctx, SideLeap))
	}

	snap := c.Snapshot()
	assert.Equal(t, PhaseComplete, snap.Phase)
	require.Len(t, snap.Words, 8)
	assertSealed(t, snap)
	assert.Equal(t, int64(1), snap.SentenceCount)
	for i := 0; i < 7; i++ {
		assert.Equal(t, fmt.Sprintf("leap%d", i), snap.Words[i])
	}
	assert.Equal(t, "leap7.", snap.Words[7])
	require.Len(t, snap.Steps, 8)
	assert.Equal(t, SideLeap, snap.Steps[0].Chosen)
}

func TestPeriodWordTerminatesEarly(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	o.periodAt = 3
	c := newTestController(o, 12, 0)

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	for c.Phase() == PhaseChoosing {
		require.NoError(t, c.Choose(ctx, SideLeap))
	}

	snap := c.Snapshot()
	assert.Equal(t, PhaseComplete, snap.Phase)
	require.Len(t, snap.Words, 4, "period word should seal before target length")
	assert.Equal(t, "leap3.", snap.Words[3])
}

func TestFirstFetchFailureFallsBackToKeyEntry(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	o.failAtLen[0] = true
	c := newTestController(o, 8, 0)

	err := c.SubmitKey(ctx, "sk-test")
	assert.ErrorIs(t, err, ErrNoPair)
	assert.Equal(t, PhaseKeyEntry, c.Phase())
	assert.Error(t, c.Snapshot().Err)
}

func TestMidSentenceFailureWaitsForRetry(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	o.mu.Lock()
	o.failAtLen[1] = true
	o.mu.Unlock()
	c := newTestController(o, 8, 0)

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	err := c.Choose(ctx, SideSafe)
	assert.ErrorIs(t, err, ErrNoPair)

	snap := c.Snapshot()
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Equal(t, []string{"safe0"}, snap.Words, "partial sentence retained")
	assert.Error(t, snap.Err)

	// Not recovered yet.
	err = c.Retry(ctx)
	assert.ErrorIs(t, err, ErrNoPair)

	o.mu.Lock()
	o.failAtLen[1] = false
	o.mu.Unlock()
	require.NoError(t, c.Retry(ctx))
	assert.Equal(t, PhaseChoosing, c.Phase())
	assert.NoError(t, c.Snapshot().Err)
}

func TestRestartResetsSessionAndRedrawsTarget(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	targets := []int{8, 9}
	c := NewController(o, nil, 0)
	c.drawTarget = func() int {
		target := targets[0]
		if len(targets) > 1 {
			targets = targets[1:]
		}
		return target
	}

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	for c.Phase() == PhaseChoosing {
		require.NoError(t, c.Choose(ctx, SideSafe))
	}
	require.Equal(t, PhaseComplete, c.Phase())
	require.Equal(t, int64(1), c.SentenceCount())

	require.NoError(t, c.Restart(ctx))
	snap := c.Snapshot()
	assert.Equal(t, PhaseChoosing, snap.Phase)
	assert.Empty(t, snap.Words)
	assert.Empty(t, snap.Steps)
	assert.Equal(t, 9, snap.TargetLength)
	require.NotNil(t, snap.Pair)
	assert.Equal(t, int64(1), snap.SentenceCount, "counter survives restart")
}

func TestDrawTargetLengthStaysInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		n := DrawTargetLength()
		require.GreaterOrEqual(t, n, MinTargetLength)
		require.LessOrEqual(t, n, MaxTargetLength)
	}
}

func TestOperationsRejectedInWrongPhase(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	c := newTestController(o, 8, 0)

	assert.Error(t, c.Choose(ctx, SideSafe), "choose in key-entry")
	assert.Error(t, c.Restart(ctx), "restart in key-entry")
	assert.Error(t, c.Retry(ctx), "retry in key-entry")

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	assert.Error(t, c.Restart(ctx), "restart while choosing")
	assert.Error(t, c.Retry(ctx), "retry while choosing")
	assert.Error(t, c.SubmitKey(ctx, "sk-other"), "submit key while choosing")
}

func TestPrefetchCoversEveryStep(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	c := newTestController(o, 8, 50*time.Millisecond)

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	for c.Phase() == PhaseChoosing {
		require.NoError(t, c.Choose(ctx, SideSafe))
	}

	require.Equal(t, PhaseComplete, c.Phase())
	// One opening fetch plus one prefetch per non-terminal choice; prefetch
	// adoption means no synchronous refetches.
	assert.Equal(t, 8, o.callCount())
}

func TestStalePrefetchNeverAdopted(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	c := newTestController(o, 8, 0)

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))
	oldID := c.session.ID
	for c.Phase() == PhaseChoosing {
		require.NoError(t, c.Choose(ctx, SideSafe))
	}
	require.NoError(t, c.Restart(ctx))

	// A result dispatched during the previous sentence lands late.
	c.prefetchMu.Lock()
	c.prefetched = &prefetchResult{
		sessionID: oldID,
		step:      1,
		pair:      oracle.WordPair{Safe: "stale", Leap: "stale"},
	}
	c.prefetchMu.Unlock()

	require.NoError(t, c.Choose(ctx, SideSafe))
	snap := c.Snapshot()
	assert.NotContains(t, snap.Words, "stale")
	require.NotNil(t, snap.Pair)
	assert.NotEqual(t, "stale", snap.Pair.Safe)

	// Same session but a step the sentence has already moved past.
	c.prefetchMu.Lock()
	c.prefetched = &prefetchResult{
		sessionID: c.session.ID,
		step:      5,
		pair:      oracle.WordPair{Safe: "stale", Leap: "stale"},
	}
	c.prefetchMu.Unlock()

	require.NoError(t, c.Choose(ctx, SideSafe))
	snap = c.Snapshot()
	assert.NotContains(t, snap.Words, "stale")
	assert.NotEqual(t, "stale", snap.Pair.Safe)
}

func TestForgetKeyDuringDissolveAbandonsChoice(t *testing.T) {
	ctx := context.Background()
	o := newScriptedOracle()
	c := newTestController(o, 8, 100*time.Millisecond)

	require.NoError(t, c.SubmitKey(ctx, "sk-test"))

	done := make(chan error, 1)
	go func() { done <- c.Choose(ctx, SideSafe) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.ForgetKey(ctx))

	err := <-done
	assert.Error(t, err, "choice should be abandoned after revocation")

	snap := c.Snapshot()
	assert.Equal(t, PhaseKeyEntry, snap.Phase)
	assert.Empty(t, snap.Words)
	assert.Empty(t, o.credential)
}

func TestCredentialLifecycleWithStore(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	o := newScriptedOracle()
	c := NewController(o, store, 0)
	c.drawTarget = func() int { return 8 }

	require.NoError(t, c.SubmitKey(ctx, "sk-persist"))
	v, _ := store.GetCredential(ctx)
	assert.Equal(t, "sk-persist", v)

	require.NoError(t, c.ForgetKey(ctx))
	v, _ = store.GetCredential(ctx)
	assert.Empty(t, v)
	assert.Equal(t, PhaseKeyEntry, c.Phase())

	// Resume recalls a credential someone else stored.
	require.NoError(t, store.SaveCredential(ctx, "sk-recalled"))
	require.NoError(t, c.Resume(ctx))
	assert.Equal(t, PhaseChoosing, c.Phase())
	assert.Equal(t, "sk-recalled", o.credential)
}

func TestResumeWithoutStoredCredentialStaysInKeyEntry(t *testing.T) {
	c := NewController(newScriptedOracle(), &memStore{}, 0)
	require.NoError(t, c.Resume(context.Background()))
	assert.Equal(t, PhaseKeyEntry, c.Phase())
}
