package imgcodec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

var (
	schemeMarker   = regexp.MustCompile(`^data:image/([A-Za-z0-9.+-]+);base64,`)
	base64Alphabet = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

// DecodedArtifact is validated image data recovered from Base64 text.
type DecodedArtifact struct {
	Binary    []byte    `json:"-"`
	MediaType MediaType `json:"mediaType"`
}

// DataURL renders the artifact back into scheme-prefixed text.
func (d DecodedArtifact) DataURL() string {
	return DataURL(d.MediaType, d.Binary)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithFallbackMediaType sets the type assumed for payloads that carry no
// scheme marker. Unrecognized types are ignored.
func WithFallbackMediaType(mt MediaType) Option {
	return func(d *Decoder) {
		if mt.Recognized() {
			d.fallback = mt
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder turns user-supplied text into validated image bytes. It holds no
// per-call state and is safe for concurrent use.
type Decoder struct {
	loader   Loader
	fallback MediaType
	logger   *slog.Logger
}

// NewDecoder returns a Decoder that uses loader as the final validation
// gate.
func NewDecoder(loader Loader, opts ...Option) *Decoder {
	d := &Decoder{
		loader:   loader,
		fallback: DefaultMediaType,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FallbackMediaType returns the type assumed for bare payloads.
func (d *Decoder) FallbackMediaType() MediaType {
	return d.fallback
}

// Decode validates raw and returns the image it holds. Classified failures
// are *DecodeError. If the loader gives up because ctx is done, the context
// error is returned unclassified.
func (d *Decoder) Decode(ctx context.Context, raw string) (*DecodedArtifact, error) {
	artifact, err := d.parse(raw)
	if err != nil {
		d.logger.Debug("decode rejected", slog.String("kind", kindOf(err)), slog.Any("error", err))
		return nil, err
	}

	if d.loader == nil {
		return nil, newDecodeError(UnloadableImage, errors.New("no image loader configured"))
	}
	if err := d.loader.Load(ctx, artifact.DataURL()); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("load image: %w", err)
		}
		d.logger.Debug("image did not load", slog.String("media_type", artifact.MediaType.String()), slog.Any("error", err))
		return nil, newDecodeError(UnloadableImage, err)
	}

	d.logger.Debug("decoded image",
		slog.String("media_type", artifact.MediaType.String()),
		slog.Int("bytes", len(artifact.Binary)),
	)
	return artifact, nil
}

// DecodeAsync runs Decode in the background. The returned Pending resolves
// exactly once.
func (d *Decoder) DecodeAsync(ctx context.Context, raw string) *Pending {
	p := newPending()
	go func() {
		p.resolve(d.Decode(ctx, raw))
	}()
	return p
}

// parse runs every check except loadability.
func (d *Decoder) parse(raw string) (*DecodedArtifact, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, newDecodeError(EmptyInput, nil)
	}

	mediaType := d.fallback
	payload := text
	if m := schemeMarker.FindStringSubmatch(text); m != nil {
		mediaType = MediaType("image/" + strings.ToLower(m[1]))
		payload = text[len(m[0]):]
	}

	// Pasted text sometimes carries the marker twice.
	for {
		loc := schemeMarker.FindStringIndex(payload)
		if loc == nil {
			break
		}
		payload = payload[loc[1]:]
	}

	if len(payload)%4 != 0 {
		return nil, newDecodeError(InvalidEncoding, fmt.Errorf("payload length %d is not a multiple of 4", len(payload)))
	}
	if !base64Alphabet.MatchString(payload) {
		return nil, newDecodeError(InvalidEncoding, errors.New("payload contains characters outside the Base64 alphabet"))
	}

	binary, err := base64.StdEncoding.Strict().DecodeString(payload)
	if err != nil {
		return nil, newDecodeError(InvalidEncoding, err)
	}

	return &DecodedArtifact{Binary: binary, MediaType: mediaType}, nil
}

func kindOf(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind.String()
	}
	return "unknown"
}
