package sentence

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"WordLeap/app/oracle"
	"WordLeap/app/storage"
)

// Controller drives the choose -> validate -> append -> terminate-or-continue
// cycle. All input is serialized through one mutex; the only background
// activity is the single-flight prefetch of the next pair.
type Controller struct {
	mu          sync.Mutex
	oracle      oracle.Interface
	store       storage.Interface
	settleDelay time.Duration
	drawTarget  func() int

	phase   Phase
	session *Session
	lastErr error

	sentenceCount atomic.Int64

	prefetchInFlight atomic.Bool
	prefetchMu       sync.Mutex
	prefetched       *prefetchResult
}

type prefetchResult struct {
	sessionID uuid.UUID
	step      int
	pair      oracle.WordPair
	err       error
}

// Snapshot is a detached copy of the visible state for presentation shells.
type Snapshot struct {
	Phase         Phase
	Words         []string
	TargetLength  int
	Pair          *oracle.WordPair
	Steps         []Step
	SentenceCount int64
	Err           error
}

func NewController(o oracle.Interface, store storage.Interface, settleDelay time.Duration) *Controller {
	return &Controller{
		oracle:      o,
		store:       store,
		settleDelay: settleDelay,
		drawTarget:  DrawTargetLength,
		phase:       PhaseKeyEntry,
	}
}

// Resume recalls a stored credential at startup. Without one the controller
// stays in key-entry.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	key, err := c.store.GetCredential(ctx)
	if err != nil {
		return fmt.Errorf("recall credential: %w", err)
	}
	if key == "" {
		return nil
	}
	c.oracle.SetCredential(key)
	return c.startFirstPair(ctx)
}

// SubmitKey stores the credential and starts the first sentence. A failed
// first fetch is treated as an invalid-credential signal: the controller
// returns to key-entry with the error recorded.
func (c *Controller) SubmitKey(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseKeyEntry {
		return fmt.Errorf("submit key: invalid in phase %s", c.phase)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("submit key: empty credential")
	}

	c.oracle.SetCredential(key)
	if c.store != nil {
		if err := c.store.SaveCredential(ctx, key); err != nil {
			log.Printf("⚠️ Error persisting credential: %v", err)
		}
	}
	return c.startFirstPair(ctx)
}

// ForgetKey revokes the credential and forces key-entry. Valid in any phase.
func (c *Controller) ForgetKey(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.oracle.ClearCredential()
	c.session = nil
	c.phase = PhaseKeyEntry
	c.lastErr = nil
	c.discardPrefetch()

	if c.store != nil {
		if err := c.store.DeleteCredential(ctx); err != nil {
			return fmt.Errorf("forget credential: %w", err)
		}
	}
	return nil
}

// Choose commits one side of the current pair. Only valid while choosing;
// selection is disabled for the whole dissolve so reentrant input is a no-op.
func (c *Controller) Choose(ctx context.Context, side Side) error {
	c.mu.Lock()
	if c.phase != PhaseChoosing {
		c.mu.Unlock()
		return fmt.Errorf("choose: invalid in phase %s", c.phase)
	}

	sess := c.session
	pair := *sess.Pair
	word := pair.Safe
	if side == SideLeap {
		word = pair.Leap
	}

	c.phase = PhaseDissolving
	sess.Steps = append(sess.Steps, Step{Pair: pair, Chosen: side})
	sess.Pair = nil

	terminal := len(sess.Words)+1 >= sess.TargetLength || strings.HasSuffix(word, ".")
	if !terminal {
		next := append(slices.Clone(sess.Words), word)
		c.startPrefetch(ctx, sess.ID, next, sess.TargetLength)
	}
	c.mu.Unlock()

	// The settle delay is a visual cooldown, not a correctness requirement.
	// A step already in flight always runs to completion.
	if c.settleDelay > 0 {
		time.Sleep(c.settleDelay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The session may have been revoked during the settle window.
	if c.session != sess || c.phase != PhaseDissolving {
		return fmt.Errorf("choose: session reset while dissolving")
	}

	sess.Words = append(sess.Words, word)
	if terminal {
		c.seal(sess)
		return nil
	}

	if next, ok := c.takePrefetch(sess.ID, len(sess.Words)); ok {
		sess.Pair = &next
		c.phase = PhaseChoosing
		return nil
	}

	next, err := c.fetchValidated(ctx, sess.Words, sess.TargetLength)
	if err != nil {
		// Mid-sentence failure: keep the partial sentence, surface the error
		// and wait for Retry instead of stalling.
		c.phase = PhaseWaiting
		c.lastErr = err
		return err
	}
	sess.Pair = &next
	c.phase = PhaseChoosing
	return nil
}

// Retry re-attempts the fetch after a mid-sentence failure left the
// controller waiting with a partial sentence.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseWaiting || c.session == nil || len(c.session.Words) == 0 {
		return fmt.Errorf("retry: invalid in phase %s", c.phase)
	}
	next, err := c.fetchValidated(ctx, c.session.Words, c.session.TargetLength)
	if err != nil {
		c.lastErr = err
		return err
	}
	c.session.Pair = &next
	c.phase = PhaseChoosing
	c.lastErr = nil
	return nil
}

// Restart discards the completed sentence, draws a fresh target length and
// fetches the opening pair.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseComplete {
		return fmt.Errorf("restart: invalid in phase %s", c.phase)
	}
	c.discardPrefetch()
	return c.startFirstPair(ctx)
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) SentenceCount() int64 {
	return c.sentenceCount.Load()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Phase:         c.phase,
		SentenceCount: c.sentenceCount.Load(),
		Err:           c.lastErr,
	}
	if c.session != nil {
		snap.Words = slices.Clone(c.session.Words)
		snap.TargetLength = c.session.TargetLength
		snap.Steps = slices.Clone(c.session.Steps)
		if c.session.Pair != nil {
			pair := *c.session.Pair
			snap.Pair = &pair
		}
	}
	return snap
}

// startFirstPair is the waiting -> choosing transition for a fresh sentence.
// Caller holds mu.
func (c *Controller) startFirstPair(ctx context.Context) error {
	c.phase = PhaseWaiting
	c.session = NewSession(c.drawTarget())

	pair, err := c.fetchValidated(ctx, nil, c.session.TargetLength)
	if err != nil {
		c.phase = PhaseKeyEntry
		c.lastErr = err
		return err
	}
	c.session.Pair = &pair
	c.phase = PhaseChoosing
	c.lastErr = nil
	return nil
}

// seal finishes the sentence: the last word gets its period in place and the
// sentence counter (presentation animation key) increments. Caller holds mu.
func (c *Controller) seal(sess *Session) {
	last := sess.Words[len(sess.Words)-1]
	if !strings.HasSuffix(last, ".") {
		sess.Words[len(sess.Words)-1] = last + "."
	}
	c.phase = PhaseComplete
	n := c.sentenceCount.Add(1)
	log.Printf("🏁 Sentence %d complete: %s", n, sess.Text())
}

func (c *Controller) fetchValidated(ctx context.Context, words []string, targetLength int) (oracle.WordPair, error) {
	raw, err := c.oracle.FetchPair(ctx, words, targetLength)
	if err != nil {
		return oracle.WordPair{}, fmt.Errorf("%w: %w", ErrNoPair, err)
	}
	return RepairPair(raw, NewUsedWords(words))
}

// startPrefetch speculatively fetches the pair for the step after the word
// being committed. At most one prefetch is ever in flight.
func (c *Controller) startPrefetch(ctx context.Context, sessionID uuid.UUID, words []string, targetLength int) {
	if !c.prefetchInFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		pair, err := c.fetchValidated(ctx, words, targetLength)
		c.prefetchMu.Lock()
		c.prefetched = &prefetchResult{
			sessionID: sessionID,
			step:      len(words),
			pair:      pair,
			err:       err,
		}
		c.prefetchMu.Unlock()
		c.prefetchInFlight.Store(false)
	}()
}

// takePrefetch adopts a finished prefetch only when it matches the exact
// session and step; anything stale is dropped on the floor.
func (c *Controller) takePrefetch(sessionID uuid.UUID, step int) (oracle.WordPair, bool) {
	c.prefetchMu.Lock()
	defer c.prefetchMu.Unlock()

	pf := c.prefetched
	c.prefetched = nil
	if pf == nil || pf.err != nil || pf.sessionID != sessionID || pf.step != step {
		return oracle.WordPair{}, false
	}
	return pf.pair, true
}

func (c *Controller) discardPrefetch() {
	c.prefetchMu.Lock()
	c.prefetched = nil
	c.prefetchMu.Unlock()
}
