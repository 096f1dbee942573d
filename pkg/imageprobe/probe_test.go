package imageprobe

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/rand"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/birdayz/b64img/pkg/imgcodec"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		img.Set(x, 1, color.RGBA{G: 200, A: 255})
	}
	return img
}

func encodeWith(t *testing.T, enc func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf))
	return buf.Bytes()
}

// pngWithHeader builds a PNG whose IHDR claims width x height RGBA pixels
// while carrying only a tiny IDAT chunk.
func pngWithHeader(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha
	writeChunk(&buf, "IHDR", ihdr)

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	_, err := zw.Write(make([]byte, 1000))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	writeChunk(&buf, "IDAT", idat.Bytes())
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	buf.Write(n[:])
}

const svgDoc = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`

func TestProber_Load(t *testing.T) {
	pngBytes := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, testImage()) })
	jpegBytes := encodeWith(t, func(b *bytes.Buffer) error { return jpeg.Encode(b, testImage(), nil) })
	gifBytes := encodeWith(t, func(b *bytes.Buffer) error { return gif.Encode(b, testImage(), nil) })

	random := make([]byte, 256)
	_, err := rand.Read(random)
	require.NoError(t, err)

	tests := []struct {
		name      string
		mediaType string
		data      []byte
		wantErr   bool
	}{
		{name: "png", mediaType: "image/png", data: pngBytes},
		{name: "jpeg", mediaType: "image/jpeg", data: jpegBytes},
		{name: "gif", mediaType: "image/gif", data: gifBytes},
		{name: "jpeg labelled png", mediaType: "image/png", data: jpegBytes},
		{name: "svg", mediaType: "image/svg+xml", data: []byte(svgDoc)},
		{name: "svg labelled png", mediaType: "image/png", data: []byte(svgDoc), wantErr: true},
		{name: "html is not svg", mediaType: "image/svg+xml", data: []byte("<html><body/></html>"), wantErr: true},
		{name: "broken svg", mediaType: "image/svg+xml", data: []byte("<svg><g></svg>"), wantErr: true},
		{name: "empty", mediaType: "image/png", data: nil, wantErr: true},
		{name: "random bytes", mediaType: "image/png", data: random, wantErr: true},
		{name: "truncated png", mediaType: "image/png", data: pngBytes[:len(pngBytes)/2], wantErr: true},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Load(context.Background(), imgcodec.DataURL(imgcodec.MediaType(tt.mediaType), tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProber_NotDataURL(t *testing.T) {
	p := New()
	require.ErrorIs(t, p.Load(context.Background(), "https://example.com/a.png"), ErrNotDataURL)
	require.ErrorIs(t, p.Load(context.Background(), "data:image/png,AAAA"), ErrNotDataURL)
}

func TestProber_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().Load(ctx, "data:image/png;base64,AAAA")
	require.ErrorIs(t, err, context.Canceled)
}

// The decoder and prober together: empty and corrupt payloads are well-formed
// Base64 that does not load.
func TestDecoderWithProber(t *testing.T) {
	d := imgcodec.NewDecoder(New())
	ctx := context.Background()

	empty := imgcodec.Encode(nil, "image/png", "x.png", 0)
	require.Equal(t, "data:image/png;base64,", empty.Text)
	_, err := d.Decode(ctx, empty.Text)
	require.ErrorIs(t, err, imgcodec.ErrUnloadableImage)

	random := make([]byte, 300)
	_, err = rand.Read(random)
	require.NoError(t, err)
	_, err = d.Decode(ctx, imgcodec.Encode(random, "image/png", "r.png", 300).Text)
	require.ErrorIs(t, err, imgcodec.ErrUnloadableImage)

	_, err = d.Decode(ctx, "data:image/png;base64,not_base64!!")
	require.ErrorIs(t, err, imgcodec.ErrInvalidEncoding)

	pngBytes := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, testImage()) })
	a := imgcodec.Encode(pngBytes, "image/png", "x.png", int64(len(pngBytes)))
	got, err := d.Decode(ctx, a.Payload())
	require.NoError(t, err)
	require.Equal(t, imgcodec.MediaTypePNG, got.MediaType)
	require.Equal(t, pngBytes, got.Binary)
	require.Equal(t, a.Text, imgcodec.Encode(got.Binary, string(got.MediaType), "x.png", int64(len(got.Binary))).Text)
}

func TestProber_PixelLimit(t *testing.T) {
	huge := pngWithHeader(t, 60000, 60000)
	text := imgcodec.DataURL(imgcodec.MediaTypePNG, huge)

	err := New().Load(context.Background(), text)
	require.ErrorIs(t, err, ErrTooManyPixels)

	_, err = imgcodec.NewDecoder(New()).Decode(context.Background(), text)
	require.ErrorIs(t, err, imgcodec.ErrUnloadableImage)
	require.ErrorIs(t, err, ErrTooManyPixels)

	// testImage is 4x3.
	small := imgcodec.DataURL(imgcodec.MediaTypePNG, encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, testImage()) }))
	require.ErrorIs(t, New(WithMaxPixels(11)).Load(context.Background(), small), ErrTooManyPixels)
	require.NoError(t, New(WithMaxPixels(12)).Load(context.Background(), small))
}

func TestDecoderWithProber_BareSVGNeedsSVGLabel(t *testing.T) {
	payload := imgcodec.Encode([]byte(svgDoc), "image/svg+xml", "logo.svg", int64(len(svgDoc))).Payload()

	_, err := imgcodec.NewDecoder(New()).Decode(context.Background(), payload)
	require.ErrorIs(t, err, imgcodec.ErrUnloadableImage)

	got, err := imgcodec.NewDecoder(New(), imgcodec.WithFallbackMediaType(imgcodec.MediaTypeSVG)).Decode(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, imgcodec.MediaTypeSVG, got.MediaType)
}
