// Package refetch provides the request lifecycle and concurrency engine
// behind a UI data-fetching binding.
//
// The core type is Orchestrator, which issues transport calls as its
// configuration changes, deduplicates them through a response cache,
// decodes and reduces the results, and publishes observable state
// transitions to the binding.
//
// # Orchestrator
//
// An Orchestrator processes each operation through a pipeline:
//
//	Issue → Transport → Decode → Reduce → Publish
//
// Operations may settle in any order. Completions are totally ordered by a
// sequence watermark: whenever an operation settles after a newer one has
// already been published, its result is discarded and no state transition
// occurs. The most recently issued result that has settled always wins.
//
// # Caching
//
// Each orchestrator owns a private Cache by default; several orchestrators
// may share one instance via the Cache chainable. Issues with a signature
// already present in the cache adopt the existing future instead of
// starting another transport call, so at most one call per signature is
// ever in flight across all sharers.
//
// # Observers
//
// The render observer passed to New receives every publish while the
// orchestrator is live. A second observer registered with OnPublish
// receives every publish including those that settle after Dispose, for
// side effects that must outlive the consumer.
//
// # Example
//
//	orc := refetch.New(func(s refetch.State) {
//	    render(s)
//	})
//
//	err := orc.Activate(ctx, refetch.Config{
//	    Target: "https://api.example.com/todos",
//	    Reduce: func(next, prev any) (any, bool) {
//	        list, _ := prev.([]any)
//	        return append(list, next), true
//	    },
//	})
package refetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the default debounce duration for Bind.
const DefaultDebounce = 100 * time.Millisecond

var (
	// ErrDisposed is returned by operations invoked after Dispose.
	ErrDisposed = errors.New("refetch: orchestrator disposed")

	// ErrNoTarget is returned by Trigger when neither the configuration
	// nor the trigger supplies a target.
	ErrNoTarget = errors.New("refetch: no target configured")
)

// Orchestrator sequences fetch operations for a single consumer: it issues
// transport calls as configuration changes, reuses cached futures, discards
// stale completions, and publishes state transitions in issue order.
//
// Observers are invoked synchronously while the orchestrator holds its
// lock, which is what totally orders publishes. Observers must not call
// back into the orchestrator; the binding schedules re-entrant work on its
// own loop.
type Orchestrator struct {
	channel  *stateChannel
	pipeline pipz.Chainable[*Exchange]
	clock    clockz.Clock
	metrics  MetricsProvider
	cache    *Cache
	noCache  bool
	strict   bool
	history  *errorRing
	debounce time.Duration

	mu          sync.Mutex
	cfg         Config
	activated   bool
	disposed    bool
	seq         uint64
	watermark   uint64
	outstanding map[uint64]*Operation
	lastError   error
}

// New creates an Orchestrator that reports state transitions to render.
// Pipeline options (With*) wrap the transport call. Instance configuration
// uses chainable methods before calling Activate().
//
// Example:
//
//	orc := refetch.New(render,
//	    refetch.WithRetry(3),
//	).Cache(shared).StrictStatus()
func New(render func(State), opts ...Option) *Orchestrator {
	o := &Orchestrator{
		channel:     newStateChannel(render),
		clock:       clockz.RealClock,
		cache:       NewCache(),
		outstanding: make(map[uint64]*Operation),
		debounce:    DefaultDebounce,
	}
	terminal := pipz.Apply(pipz.Name("transport"), o.callTransport)
	o.pipeline = buildPipeline(terminal, opts)
	return o
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Activate().
func (o *Orchestrator) Clock(clock clockz.Clock) *Orchestrator {
	o.clock = clock
	return o
}

// Metrics sets a metrics provider for observability integration.
// The provider receives callbacks on issue, completion, discard and
// failure. Must be called before Activate().
func (o *Orchestrator) Metrics(provider MetricsProvider) *Orchestrator {
	o.metrics = provider
	return o
}

// Cache shares an externally owned cache with this orchestrator. Multiple
// orchestrators sharing one Cache deduplicate transport calls by request
// signature. Must be called before Activate().
func (o *Orchestrator) Cache(c *Cache) *Orchestrator {
	o.cache = c
	return o
}

// NoCache disables response caching entirely: every issue performs its own
// transport call. Must be called before Activate().
func (o *Orchestrator) NoCache() *Orchestrator {
	o.noCache = true
	return o
}

// OnPublish registers the always-observer. It receives every publish,
// including those that settle after Dispose. Use it for side effects that
// must outlive the consumer, like navigation after a redirect response.
// Must be called before Activate().
func (o *Orchestrator) OnPublish(fn func(State)) *Orchestrator {
	o.channel.always = fn
	return o
}

// StrictStatus classifies non-2xx responses as failures: the published Err
// is a *StatusError carrying the decoded body. Without it, any decodable
// response populates Data regardless of status. Must be called before
// Activate().
func (o *Orchestrator) StrictStatus() *Orchestrator {
	o.strict = true
	return o
}

// ErrorHistorySize sets the number of recent operation failures to retain.
// Use 0 (default) to only retain the most recent failure via LastError().
// Must be called before Activate().
func (o *Orchestrator) ErrorHistorySize(n int) *Orchestrator {
	o.history = newErrorRing(n)
	return o
}

// Debounce sets the debounce duration used by Bind. Configuration changes
// arriving within this window are coalesced into a single reconfiguration.
// Default: 100ms. Must be called before Bind().
func (o *Orchestrator) Debounce(d time.Duration) *Orchestrator {
	o.debounce = d
	return o
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// State returns the current observable state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channel.snapshot()
}

// Pending returns a snapshot of the outstanding operations in issue order.
func (o *Orchestrator) Pending() []*Operation {
	o.mu.Lock()
	defer o.mu.Unlock()
	ops := make([]*Operation, 0, len(o.outstanding))
	for _, op := range o.outstanding {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].seq < ops[j].seq })
	return ops
}

// LastError returns the last operation failure, or nil.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// ErrorHistory returns the recent failure history, oldest first.
// Returns nil unless ErrorHistorySize was set.
func (o *Orchestrator) ErrorHistory() []error {
	return o.history.all()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Activate applies the first configuration. When the target is non-empty
// and manual mode is off, an operation is issued immediately.
//
// Activate can only be called once. Use Reconfigure for subsequent
// snapshots.
func (o *Orchestrator) Activate(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return ErrDisposed
	}
	if o.activated {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already activated")
	}
	o.activated = true
	o.cfg = cfg
	o.mu.Unlock()

	capitan.Emit(ctx, OrchestratorActivated,
		KeyTarget.Field(cfg.Target),
		KeyMethod.Field(cfg.descriptor().Method),
	)

	if cfg.Target == "" || cfg.Manual {
		return nil
	}
	o.issue(ctx, cfg, false)
	return nil
}

// Reconfigure applies a new configuration snapshot. Outside manual mode a
// non-empty target issues a fresh operation; in manual mode the
// configuration is recorded and nothing is issued until Trigger.
func (o *Orchestrator) Reconfigure(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return ErrDisposed
	}
	o.activated = true
	o.cfg = cfg
	o.mu.Unlock()

	if cfg.Target == "" || cfg.Manual {
		return nil
	}
	o.issue(ctx, cfg, false)
	return nil
}

// TriggerOption adjusts a single explicit trigger.
type TriggerOption func(*triggerOptions)

type triggerOptions struct {
	target     string
	body       []byte
	hasBody    bool
	ignorePrev bool
}

// WithTarget overrides the configured target for this trigger only.
func WithTarget(target string) TriggerOption {
	return func(t *triggerOptions) {
		t.target = target
	}
}

// WithBody overrides the configured body for this trigger only.
func WithBody(body []byte) TriggerOption {
	return func(t *triggerOptions) {
		t.body = body
		t.hasBody = true
	}
}

// IgnorePreviousData restarts reducer accumulation for this trigger: the
// reducer sees nil previous data.
func IgnorePreviousData() TriggerOption {
	return func(t *triggerOptions) {
		t.ignorePrev = true
	}
}

// Trigger explicitly issues an operation using the current configuration,
// regardless of manual mode. It returns the issued operation so callers can
// await its settlement.
func (o *Orchestrator) Trigger(ctx context.Context, opts ...TriggerOption) (*Operation, error) {
	var topt triggerOptions
	for _, opt := range opts {
		opt(&topt)
	}

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return nil, ErrDisposed
	}
	cfg := o.cfg
	o.mu.Unlock()

	if topt.target != "" {
		cfg.Target = topt.target
	}
	if topt.hasBody {
		cfg.Body = topt.body
	}
	if cfg.Target == "" {
		return nil, ErrNoTarget
	}
	return o.issue(ctx, cfg, topt.ignorePrev), nil
}

// ClearData clears held data unconditionally and publishes the resulting
// state. Outstanding operations, the loading phase and the error field are
// unaffected.
func (o *Orchestrator) ClearData() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.channel.publish(func(s *State) {
		s.Data = nil
	})
}

// Dispose mutes the render observer. Outstanding operations are not
// cancelled: they run to completion and their terminal publishes reach only
// the OnPublish observer. No operations may be issued after Dispose.
func (o *Orchestrator) Dispose(ctx context.Context) {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	o.mu.Unlock()

	o.channel.kill()
	capitan.Emit(ctx, OrchestratorDisposed)
}

// Settle blocks until every currently outstanding operation has been
// published or discarded, or the context is done.
func (o *Orchestrator) Settle(ctx context.Context) error {
	for _, op := range o.Pending() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-op.Settled():
		}
	}
	return nil
}

// Bind consumes configuration snapshots from source, applying each through
// Reconfigure with debouncing. It blocks until the context is done or the
// source channel closes. Validation failures are recorded via LastError and
// the binding keeps watching.
func (o *Orchestrator) Bind(ctx context.Context, source ConfigSource) error {
	changes, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start config source: %w", err)
	}

	var (
		timer      clockz.Timer
		pending    Config
		hasPending bool
	)

	apply := func(cfg Config) {
		if err := o.Reconfigure(ctx, cfg); err != nil {
			o.mu.Lock()
			o.lastError = err
			o.mu.Unlock()
			o.history.push(err)
		}
	}

	for {
		// Get timer channel or nil if no timer
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case cfg, ok := <-changes:
			if !ok {
				// Channel closed, apply any pending change
				if hasPending {
					apply(pending)
				}
				return nil
			}
			pending = cfg
			hasPending = true

			// Reset or start debounce timer
			if timer == nil {
				timer = o.clock.NewTimer(o.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(o.debounce)
			}

		case <-timerC:
			if hasPending {
				apply(pending)
				hasPending = false
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Operation lifecycle
// -----------------------------------------------------------------------------

// issue assigns the next sequence number, registers the operation, and
// publishes the loading transition. The transport call is skipped when the
// cache already holds a future for the same signature.
func (o *Orchestrator) issue(ctx context.Context, cfg Config, ignorePrev bool) *Operation {
	desc := cfg.descriptor()
	sig := desc.Signature()

	o.mu.Lock()
	o.seq++
	op := &Operation{seq: o.seq, sig: sig, settled: make(chan struct{})}
	reused := false
	if o.noCache {
		op.fut = NewFuture()
	} else {
		op.fut, reused = o.cache.Add(sig, NewFuture())
	}
	o.outstanding[op.seq] = op
	o.channel.publish(func(s *State) {
		s.Phase = PhaseLoading
		s.Request = desc
	})
	o.mu.Unlock()

	capitan.Emit(ctx, OperationIssued,
		KeySequence.Field(int(op.seq)),
		KeySignature.Field(sig.String()),
		KeyTarget.Field(desc.Target),
		KeyMethod.Field(desc.Method),
	)
	if reused {
		capitan.Emit(ctx, OperationReused,
			KeySequence.Field(int(op.seq)),
			KeySignature.Field(sig.String()),
		)
	}
	if o.metrics != nil {
		o.metrics.OnIssue(reused)
	}

	if !reused {
		go o.dispatch(ctx, desc, op.fut)
	}
	go o.settle(ctx, cfg, op, ignorePrev)

	return op
}

// callTransport is the pipeline terminal: it resolves the configured
// transport at call time and records the response on the exchange.
func (o *Orchestrator) callTransport(ctx context.Context, ex *Exchange) (*Exchange, error) {
	o.mu.Lock()
	transport := o.cfg.Transport
	o.mu.Unlock()
	if transport == nil {
		transport = DefaultTransport
	}

	resp, err := transport(ctx, ex.Request)
	if err != nil {
		return ex, err
	}
	ex.Response = resp
	return ex, nil
}

// dispatch runs the transport pipeline and settles the future. Errors are
// captured on the future, never left to escape.
func (o *Orchestrator) dispatch(ctx context.Context, desc RequestDescriptor, fut *Future) {
	ex, err := o.pipeline.Process(ctx, &Exchange{Request: desc})
	if err != nil {
		fut.settle(nil, err)
		return
	}
	fut.settle(ex.Response, nil)
}

// settle waits for the operation's future and applies the watermark rule:
// a completion older than an already published one is discarded without a
// state transition, but is still removed from the outstanding set.
func (o *Orchestrator) settle(ctx context.Context, cfg Config, op *Operation, ignorePrev bool) {
	start := o.clock.Now()
	<-op.fut.Done()
	resp, terr := op.fut.Result()

	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.outstanding, op.seq)
	defer close(op.settled)

	if op.seq < o.watermark {
		capitan.Emit(ctx, OperationDiscarded,
			KeySequence.Field(int(op.seq)),
			KeyWatermark.Field(int(o.watermark)),
		)
		if o.metrics != nil {
			o.metrics.OnDiscard()
		}
		return
	}
	o.watermark = op.seq

	if terr != nil {
		o.fail(ctx, op, "transport", terr, nil, start)
		return
	}

	payload, derr := decodePayload(cfg, resp)
	if derr != nil {
		o.fail(ctx, op, "decode", derr, resp, start)
		return
	}

	if o.strict && (resp.Status < 200 || resp.Status >= 300) {
		o.fail(ctx, op, "status", &StatusError{Status: resp.Status, Payload: payload}, resp, start)
		return
	}

	o.channel.publish(func(s *State) {
		s.Phase = PhaseSettled
		s.Err = nil
		s.Response = resp
		prev := s.Data
		if ignorePrev {
			prev = nil
		}
		if cfg.Reduce != nil {
			if next, ok := cfg.Reduce(payload, prev); ok {
				s.Data = next
			}
		} else {
			s.Data = payload
		}
	})

	capitan.Emit(ctx, OperationCompleted,
		KeySequence.Field(int(op.seq)),
		KeyStatus.Field(resp.Status),
		KeyElapsed.Field(o.clock.Since(start)),
	)
	if o.metrics != nil {
		o.metrics.OnComplete(o.clock.Since(start))
	}
}

// fail records the failure and publishes the terminal error state. Held
// data is retained; a transport failure attaches no new response metadata,
// a decode or status failure attaches the response it came from.
func (o *Orchestrator) fail(ctx context.Context, op *Operation, stage string, err error, resp *Response, start time.Time) {
	o.lastError = err
	o.history.push(err)

	o.channel.publish(func(s *State) {
		s.Phase = PhaseSettled
		s.Err = err
		if resp != nil {
			s.Response = resp
		}
	})

	capitan.Emit(ctx, OperationFailed,
		KeySequence.Field(int(op.seq)),
		KeyStage.Field(stage),
		KeyError.Field(err.Error()),
	)
	if o.metrics != nil {
		o.metrics.OnFailure(stage, o.clock.Since(start))
	}
}

// decodePayload resolves the decoder for this configuration: explicit
// override or type map when set, the built-in table otherwise.
func decodePayload(cfg Config, resp *Response) (any, error) {
	dec := cfg.Decode
	if dec == nil {
		dec = DefaultDecoder{Transform: cfg.Transform}
	}
	return dec.Decode(resp)
}
