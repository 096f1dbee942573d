package interactive

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdayz/b64img/pkg/app"
	"github.com/birdayz/b64img/pkg/clipboard"
	"github.com/birdayz/b64img/pkg/export"
	"github.com/birdayz/b64img/pkg/imageprobe"
)

type step struct {
	choice int
	input  string
}

// scripted replays steps and then interrupts, like Ctrl-C on the menu.
type scripted struct {
	steps []step
	next  int
}

func (s *scripted) Select(string, []string) (int, error) {
	if s.next >= len(s.steps) {
		return 0, promptui.ErrInterrupt
	}
	s.next++
	return s.steps[s.next-1].choice, nil
}

func (s *scripted) Input(string) (string, error) {
	return s.steps[s.next-1].input, nil
}

func newTestRunner(t *testing.T, steps ...step) (*runner, *bytes.Buffer, *clipboard.Memory, string) {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	clip := &clipboard.Memory{}

	a := app.New()
	a.ColorableOut = out
	a.Clipboard = clip
	a.Loader = imageprobe.New()
	require.NoError(t, a.Cfg.Set("encode-delay", "0s"))

	exporter, err := export.New(dir, "", "", export.WithClock(func() time.Time { return time.UnixMilli(42) }))
	require.NoError(t, err)

	r := newRunner(a, &scripted{steps: steps}, exporter)
	return r, out, clip, dir
}

func pngFile(t *testing.T, dir string) (string, []byte) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path, buf.Bytes()
}

func TestRunner_EncodeCopySave(t *testing.T) {
	src := t.TempDir()
	path, raw := pngFile(t, src)
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	r, out, clip, dir := newTestRunner(t,
		step{choice: actionEncode, input: path},
		step{choice: actionCopy},
		step{choice: actionSaveText},
	)
	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, out.String(), "File:   photo.png")
	assert.Contains(t, out.String(), "Copied to clipboard.")

	copied, err := clip.ReadText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, copied)

	saved, err := os.ReadFile(filepath.Join(dir, "photo_base64.txt"))
	require.NoError(t, err)
	assert.Equal(t, want, string(saved))
}

func TestRunner_PasteDecodeSave(t *testing.T) {
	src := t.TempDir()
	_, raw := pngFile(t, src)

	r, out, clip, dir := newTestRunner(t,
		step{choice: actionPaste},
		step{choice: actionSaveImage},
		step{choice: actionQuit},
		step{choice: actionCopy},
	)
	require.NoError(t, clip.WriteText(context.Background(), base64.StdEncoding.EncodeToString(raw)))
	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, out.String(), "Type:   image/png")
	saved, err := os.ReadFile(filepath.Join(dir, "decoded_image_42.png"))
	require.NoError(t, err)
	assert.Equal(t, raw, saved)
	assert.NotContains(t, out.String(), "Copied to clipboard.")
}

func TestRunner_ErrorsKeepSessionAlive(t *testing.T) {
	r, out, _, _ := newTestRunner(t,
		step{choice: actionCopy},
		step{choice: actionSaveImage},
		step{choice: actionDecode, input: "data:image/png;base64,@@@@"},
		step{choice: actionSaveImage},
		step{choice: actionDecode, input: ""},
	)
	require.NoError(t, r.run(context.Background()))

	s := out.String()
	assert.Contains(t, s, "Error: nothing encoded yet")
	assert.Contains(t, s, "Error: nothing decoded yet\n")
	assert.Contains(t, s, "Error: invalid Base64 image encoding")
	assert.Contains(t, s, "Error: nothing decoded yet: last decode failed: invalid Base64 image encoding")
	assert.Contains(t, s, "Error: please enter a Base64 string")
}

func TestRunner_EncodeDelayHonoursContext(t *testing.T) {
	src := t.TempDir()
	path, _ := pngFile(t, src)

	r, out, _, _ := newTestRunner(t, step{choice: actionEncode, input: path})
	r.delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Converting...")
	_, ok := r.session.Encoded()
	assert.False(t, ok)
}
