// Package imageprobe checks whether a data URL holds an image that can be
// displayed. It is the production imgcodec.Loader.
package imageprobe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	// Decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/birdayz/b64img/pkg/imgcodec"
)

// DefaultMaxPixels matches the largest canvas common browsers will decode.
const DefaultMaxPixels = 16384 * 16384

var (
	ErrNotDataURL    = errors.New("not a base64 data url")
	ErrEmptyImage    = errors.New("image data is empty")
	ErrNotSVG        = errors.New("document root is not <svg>")
	ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")
)

// Prober decodes images fully, the way a browser would before firing onload.
type Prober struct {
	logger    *slog.Logger
	maxPixels int64
}

// Option configures a Prober.
type Option func(*Prober)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxPixels caps width*height of raster images. Headers claiming more
// are rejected before any pixel buffer is allocated. Zero disables the cap.
func WithMaxPixels(n int64) Option {
	return func(p *Prober) {
		if n >= 0 {
			p.maxPixels = n
		}
	}
}

// New returns a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{logger: slog.Default(), maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ imgcodec.Loader = (*Prober)(nil)

// Load decodes the image in dataURL on a separate goroutine and reports the
// outcome, or ctx.Err() if ctx finishes first.
func (p *Prober) Load(ctx context.Context, dataURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mediaType, data, err := parseDataURL(dataURL)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- p.probe(mediaType, data)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Prober) probe(mediaType imgcodec.MediaType, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}

	// Markup is only parsed when labelled SVG; browsers do not sniff it.
	if mediaType == imgcodec.MediaTypeSVG {
		if err := checkSVG(data); err != nil {
			return err
		}
		p.logger.Debug("probed image", slog.String("format", "svg"), slog.Int("bytes", len(data)))
		return nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%s image has no pixels (%dx%d)", format, cfg.Width, cfg.Height)
	}
	if p.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return fmt.Errorf("%w: %s image is %dx%d", ErrTooManyPixels, format, cfg.Width, cfg.Height)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode %s image: %w", format, err)
	}

	p.logger.Debug("probed image",
		slog.String("format", format),
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height),
	)
	return nil
}

func parseDataURL(dataURL string) (imgcodec.MediaType, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mediaType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return imgcodec.ParseMediaType(mediaType), data, nil
}

// checkSVG requires a well-formed document whose root element is <svg>.
func checkSVG(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	rootSeen := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !rootSeen {
				return ErrNotSVG
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse svg: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && !rootSeen {
			if se.Name.Local != "svg" {
				return ErrNotSVG
			}
			rootSeen = true
		}
	}
}
