package imgcodec

import (
	"bytes"
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func mediaTypeGen() gopter.Gen {
	return gen.OneConstOf(
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/svg+xml",
		"image/webp",
	)
}

// TestRoundTrip verifies decode(encode(b)).Binary == b for any buffer.
func TestRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	d := NewDecoder(acceptAll)

	properties.Property("decode inverts encode", prop.ForAll(
		func(buf []byte, mediaType string) bool {
			a := Encode(buf, mediaType, "x", int64(len(buf)))
			got, err := d.Decode(context.Background(), a.Text)
			if err != nil {
				return false
			}
			return bytes.Equal(got.Binary, buf) && got.MediaType == MediaType(mediaType)
		},
		gen.SliceOf(gen.UInt8()),
		mediaTypeGen(),
	))

	properties.Property("re-encoding a decoded artifact reproduces the text", prop.ForAll(
		func(buf []byte, mediaType string) bool {
			text := Encode(buf, mediaType, "x", int64(len(buf))).Text
			got, err := d.Decode(context.Background(), text)
			if err != nil {
				return false
			}
			return Encode(got.Binary, string(got.MediaType), "x", int64(len(got.Binary))).Text == text
		},
		gen.SliceOf(gen.UInt8()),
		mediaTypeGen(),
	))

	properties.Property("payload length is ceil(n/3)*4", prop.ForAll(
		func(buf []byte) bool {
			return len(Encode(buf, "image/png", "x", 0).Payload()) == (len(buf)+2)/3*4
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
