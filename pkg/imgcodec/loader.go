package imgcodec

import (
	"context"
	"sync"
)

// Loader confirms that a data URL holds an image that can actually be
// displayed. Load blocks until the image has loaded or failed, and must
// return promptly once ctx is done.
type Loader interface {
	Load(ctx context.Context, dataURL string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, dataURL string) error

func (f LoaderFunc) Load(ctx context.Context, dataURL string) error {
	return f(ctx, dataURL)
}

// Pending is an in-flight decode. It resolves exactly once.
type Pending struct {
	once     sync.Once
	done     chan struct{}
	artifact *DecodedArtifact
	err      error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(artifact *DecodedArtifact, err error) {
	p.once.Do(func() {
		p.artifact = artifact
		p.err = err
		close(p.done)
	})
}

// Done is closed when the decode has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome. It must only be called after Done is closed.
func (p *Pending) Result() (*DecodedArtifact, error) {
	return p.artifact, p.err
}

// Wait blocks until the decode resolves or ctx is done. Giving up on the
// wait does not stop the decode.
func (p *Pending) Wait(ctx context.Context) (*DecodedArtifact, error) {
	select {
	case <-p.done:
		return p.artifact, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
