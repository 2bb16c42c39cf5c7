package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

// DefaultRefreshTimeout bounds a single provider refresh call.
const DefaultRefreshTimeout = 10 * time.Second

// Event kinds reported to SyncRecorder.
const (
	EventKindSignedIn  = "signed_in"
	EventKindSignedOut = "signed_out"
)

// ErrUnusableToken is returned for refreshed tokens that cannot be decoded or are already expired.
var ErrUnusableToken = errors.New("provider returned an unusable token")

// SyncPhase is the lifecycle phase of a TokenSynchronizer.
type SyncPhase int

const (
	PhaseUninitialized SyncPhase = iota
	PhaseSyncing
	PhaseSettled
	PhaseStopped
)

func (p SyncPhase) String() string {
	switch p {
	case PhaseSyncing:
		return "syncing"
	case PhaseSettled:
		return "settled"
	case PhaseStopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

// SyncState is a point-in-time snapshot of the synchronizer for UI consumers.
type SyncState struct {
	Phase         SyncPhase
	Epoch         uint64
	Authenticated bool
	Subject       string
	// Loading is true while a refresh for the current epoch is outstanding.
	Loading bool
	// LastError is the most recent refresh failure for the current epoch, if any.
	LastError error
}

// SyncRecorder receives synchronizer telemetry. Implementations must not block.
type SyncRecorder interface {
	EventReceived(kind string)
	RefreshFinished(epoch uint64, took time.Duration, err error)
	StaleDiscarded(epoch uint64)
}

type nopSyncRecorder struct{}

func (nopSyncRecorder) EventReceived(string) {}
func (nopSyncRecorder) RefreshFinished(uint64, time.Duration, error) {}
func (nopSyncRecorder) StaleDiscarded(uint64) {}

// TokenSynchronizerOptions groups dependencies for TokenSynchronizer.
type TokenSynchronizerOptions struct {
	Provider ports.IdentityProvider
	Store    ports.CredentialStore
	// RefreshTimeout bounds each RefreshToken call. Zero selects DefaultRefreshTimeout.
	RefreshTimeout time.Duration
	// Leeway is applied when checking that a refreshed token is still unexpired.
	Leeway   time.Duration
	Recorder SyncRecorder
	Logger   *slog.Logger
	Now      func() time.Time
}

type refreshResult struct {
	epoch uint64
	user  domainauth.ProviderUser
	token string
	err   error
	took  time.Duration
}

// TokenSynchronizer keeps a CredentialStore consistent with an IdentityProvider's event stream.
//
// A single goroutine owns the epoch counter and is the only writer to the store. Every received
// event bumps the epoch and cancels the in-flight refresh; refresh results are posted back to the
// owning goroutine tagged with the epoch that started them and are dropped unless that epoch is
// still current. The store therefore always reflects the most recently received event, whatever
// order the refresh calls complete in.
//
// The refresh timeout is enforced by the loop, not only through the context handed to the
// provider: a provider that ignores ctx still settles the epoch as a failed refresh once the
// timeout elapses, and its eventual result is discarded.
type TokenSynchronizer struct {
	provider ports.IdentityProvider
	store    ports.CredentialStore
	timeout  time.Duration
	leeway   time.Duration
	recorder SyncRecorder
	logger   *slog.Logger
	now      func() time.Time

	events  chan domainauth.AuthEvent
	results chan refreshResult
	done    chan struct{}
	stopped chan struct{}

	started  atomic.Bool
	stopOnce sync.Once

	// owned by the run goroutine
	epoch   uint64
	pending uint64 // epoch of the outstanding refresh, 0 when none
	cancel  context.CancelFunc
	timer   *time.Timer

	mu           sync.RWMutex
	unsubscribe  func()
	tornDown     bool
	state        SyncState
	listeners    map[int]func(SyncState)
	nextListener int
}

// NewTokenSynchronizer constructs a TokenSynchronizer. Call Start to begin consuming events.
func NewTokenSynchronizer(opts TokenSynchronizerOptions) (*TokenSynchronizer, error) {
	if opts.Provider == nil {
		return nil, errors.New("Provider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}

	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	leeway := opts.Leeway
	if leeway < 0 {
		leeway = 0
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopSyncRecorder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &TokenSynchronizer{
		provider:  opts.Provider,
		store:     opts.Store,
		timeout:   timeout,
		leeway:    leeway,
		recorder:  recorder,
		logger:    logger.With("component", "token_synchronizer"),
		now:       now,
		events:    make(chan domainauth.AuthEvent),
		results:   make(chan refreshResult),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		listeners: make(map[int]func(SyncState)),
	}, nil
}

// Start subscribes to the provider and begins processing events until ctx is done or Stop is
// called. The provider's current user is processed as the first event. Start may be called once.
func (s *TokenSynchronizer) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("token synchronizer already started")
	}

	go s.run(ctx)

	// Subscribe before snapshotting so no change between the two is missed.
	unsubscribe := s.provider.Subscribe(s.deliver)
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.deliver(domainauth.AuthEvent{User: s.provider.CurrentUser()})
	return nil
}

// Run starts the synchronizer and blocks until ctx is done, then tears it down.
func (s *TokenSynchronizer) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop tears the synchronizer down: the subscription is removed, the in-flight refresh is
// cancelled and its result will not be written. Stop blocks until the event loop has exited
// and is safe to call more than once.
func (s *TokenSynchronizer) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	if s.started.Load() {
		<-s.stopped
	}
}

// State returns the current snapshot.
func (s *TokenSynchronizer) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnStateChange registers fn to be called with every new state. fn runs on the event loop
// and must not block or call back into the synchronizer's Stop. The returned function
// removes the listener.
func (s *TokenSynchronizer) OnStateChange(fn func(SyncState)) (cancel func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// deliver hands an event to the loop. It is the provider subscription callback.
func (s *TokenSynchronizer) deliver(ev domainauth.AuthEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
	case <-s.stopped:
	}
}

func (s *TokenSynchronizer) run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return
		case <-s.done:
			s.teardown()
			return
		case ev := <-s.events:
			s.handleEvent(ctx, ev)
		case res := <-s.results:
			s.handleResult(ctx, res)
		}
	}
}

func (s *TokenSynchronizer) handleEvent(ctx context.Context, ev domainauth.AuthEvent) {
	s.epoch++
	epoch := s.epoch
	s.cancelInflight()

	if !ev.SignedIn() {
		s.recorder.EventReceived(EventKindSignedOut)
		s.logger.InfoContext(ctx, "identity signed out", "epoch", epoch)
		if err := s.store.Clear(ctx); err != nil {
			s.logger.ErrorContext(ctx, "clear credential store", "epoch", epoch, "error", err)
		}
		s.setState(SyncState{Phase: PhaseSettled, Epoch: epoch})
		return
	}

	user := *ev.User
	s.recorder.EventReceived(EventKindSignedIn)
	s.logger.DebugContext(ctx, "identity changed, refreshing token", "epoch", epoch, "subject", user.UserID)
	s.setState(SyncState{
		Phase:         PhaseSyncing,
		Epoch:         epoch,
		Authenticated: true,
		Subject:       user.UserID,
		Loading:       true,
	})

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	s.cancel = cancel
	s.pending = epoch
	s.timer = time.AfterFunc(s.timeout, func() {
		s.post(refreshResult{epoch: epoch, user: user, err: context.DeadlineExceeded, took: s.timeout})
	})
	go s.refresh(rctx, epoch, user)
}

func (s *TokenSynchronizer) refresh(ctx context.Context, epoch uint64, user domainauth.ProviderUser) {
	started := s.now()
	token, err := s.provider.RefreshToken(ctx, user)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	s.post(refreshResult{epoch: epoch, user: user, token: token, err: err, took: s.now().Sub(started)})
}

// post hands a refresh outcome to the loop, giving up once the loop has exited.
func (s *TokenSynchronizer) post(res refreshResult) {
	select {
	case s.results <- res:
	case <-s.stopped:
	}
}

func (s *TokenSynchronizer) handleResult(ctx context.Context, res refreshResult) {
	// A result for an epoch that already settled (the timeout won the race) is stale too.
	if res.epoch != s.epoch || res.epoch != s.pending {
		s.recorder.StaleDiscarded(res.epoch)
		s.logger.DebugContext(ctx, "discarding stale refresh result", "epoch", res.epoch, "current_epoch", s.epoch)
		return
	}
	s.cancelInflight()

	err := res.err
	if err == nil {
		err = s.checkToken(res.token, res.user)
	}
	if err == nil {
		if setErr := s.store.Set(ctx, res.token); setErr != nil {
			err = fmt.Errorf("write credential store: %w", setErr)
		}
	}
	s.recorder.RefreshFinished(res.epoch, res.took, err)

	if err != nil {
		// The previous credential stays in place until it expires or a later event replaces it.
		s.logger.WarnContext(ctx, "token refresh failed; keeping existing session",
			"epoch", res.epoch, "subject", res.user.UserID, "error", err)
	} else {
		s.logger.InfoContext(ctx, "credential refreshed", "epoch", res.epoch, "subject", res.user.UserID)
	}

	s.setState(SyncState{
		Phase:         PhaseSettled,
		Epoch:         res.epoch,
		Authenticated: true,
		Subject:       res.user.UserID,
		LastError:     err,
	})
}

func (s *TokenSynchronizer) checkToken(token string, user domainauth.ProviderUser) error {
	claims, err := domainauth.DecodeClaims(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnusableToken, err)
	}
	if !claims.IsUnexpired(s.now(), s.leeway) {
		return fmt.Errorf("%w: token already expired", ErrUnusableToken)
	}
	if claims.Subject != "" && user.UserID != "" && claims.Subject != user.UserID {
		return fmt.Errorf("%w: subject %q does not match user", ErrUnusableToken, claims.Subject)
	}
	return nil
}

func (s *TokenSynchronizer) teardown() {
	// Bumping the epoch marks any pending result as stale.
	s.epoch++
	s.cancelInflight()

	s.mu.Lock()
	s.tornDown = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}

	prev := s.State()
	s.setState(SyncState{
		Phase:         PhaseStopped,
		Epoch:         s.epoch,
		Authenticated: prev.Authenticated,
		Subject:       prev.Subject,
	})
	s.logger.Debug("token synchronizer stopped", "epoch", s.epoch)
}

func (s *TokenSynchronizer) cancelInflight() {
	s.pending = 0
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *TokenSynchronizer) setState(st SyncState) {
	s.mu.Lock()
	s.state = st
	fns := make([]func(SyncState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
