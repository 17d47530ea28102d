package safesim

import "context"

// Call is any of the RemoteClient operations bound to its arguments.
type Call func(ctx context.Context) (RemoteResponse, error)

// Pending is the eventual outcome of a call started with Go.
type Pending struct {
	done chan struct{}
	resp RemoteResponse
	err  error
}

// Go runs call on its own goroutine and returns immediately.
func Go(ctx context.Context, call Call) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.resp, p.err = call(ctx)
	}()
	return p
}

// Done is closed once the outcome is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the call completes and returns its outcome.
func (p *Pending) Wait() (RemoteResponse, error) {
	<-p.done
	return p.resp, p.err
}
