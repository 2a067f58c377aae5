package refetch

import "sync"

// Future is the shared completion handle for a transport call. A Future may
// be adopted by several orchestrators through a shared Cache, so settlement
// is idempotent: the first settle wins and later attempts are ignored.
type Future struct {
	done chan struct{}
	once sync.Once
	resp *Response
	err  error
}

// NewFuture creates an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the settled response or error. Only valid after Done is
// closed.
func (f *Future) Result() (*Response, error) {
	return f.resp, f.err
}

func (f *Future) settle(resp *Response, err error) {
	f.once.Do(func() {
		f.resp = resp
		f.err = err
		close(f.done)
	})
}

// Operation is one issued fetch attempt, uniquely sequenced within its
// orchestrator. Operations that reuse a cached future still carry their own
// sequence numbers; ordering is per orchestrator, the future is shared.
type Operation struct {
	seq     uint64
	sig     Signature
	fut     *Future
	settled chan struct{}
}

// Sequence returns the issue-order sequence number.
func (o *Operation) Sequence() uint64 {
	return o.seq
}

// Signature returns the cache identity of the issued request.
func (o *Operation) Signature() Signature {
	return o.sig
}

// Future returns the completion handle backing this operation.
func (o *Operation) Future() *Future {
	return o.fut
}

// Settled is closed once the result has been published or discarded and the
// operation removed from the outstanding set.
func (o *Operation) Settled() <-chan struct{} {
	return o.settled
}
