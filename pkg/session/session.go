// Package session keeps the state of one interactive conversion session: at
// most one live encoded artifact and the outcome of the latest decode.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/birdayz/b64img/pkg/imgcodec"
	"github.com/birdayz/b64img/pkg/source"
)

// ErrSuperseded is returned by Decode when a newer decode was started before
// this one resolved. The older result is dropped.
var ErrSuperseded = errors.New("decode superseded by a newer request")

// Session is safe for concurrent use.
type Session struct {
	decoder *imgcodec.Decoder

	mu         sync.Mutex
	encoded    *imgcodec.EncodedArtifact
	decoded    *imgcodec.DecodedArtifact
	decodeErr  error
	generation uint64
}

// New returns an empty Session decoding with decoder.
func New(decoder *imgcodec.Decoder) *Session {
	return &Session{decoder: decoder}
}

// Encode replaces the live artifact with one built from buf.
func (s *Session) Encode(buf *source.Buffer) imgcodec.EncodedArtifact {
	a := imgcodec.Encode(buf.Bytes, buf.MediaType, buf.Name, buf.Size)

	s.mu.Lock()
	s.encoded = &a
	s.mu.Unlock()
	return a
}

// Encoded returns the live artifact, if any.
func (s *Session) Encoded() (imgcodec.EncodedArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.encoded == nil {
		return imgcodec.EncodedArtifact{}, false
	}
	return *s.encoded, true
}

// Decode decodes raw and records the outcome, unless another Decode started
// in the meantime. In that case the result is discarded and ErrSuperseded is
// returned; the superseded decode is not cancelled.
func (s *Session) Decode(ctx context.Context, raw string) (*imgcodec.DecodedArtifact, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.decoded = nil
	s.decodeErr = nil
	s.mu.Unlock()

	artifact, err := s.decoder.DecodeAsync(ctx, raw).Wait(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrSuperseded
	}
	s.decoded = artifact
	s.decodeErr = err
	return artifact, err
}

// Decoded returns the outcome of the latest resolved decode. Both values
// are nil if nothing has resolved since the last input change.
func (s *Session) Decoded() (*imgcodec.DecodedArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decoded, s.decodeErr
}

// InputChanged clears a stale decode error, as editing the input does.
func (s *Session) InputChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decodeErr = nil
}
