package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/birdayz/b64img/pkg/app"
	"github.com/birdayz/b64img/pkg/export"
	"github.com/birdayz/b64img/pkg/logger"
	"github.com/birdayz/b64img/pkg/session"
	"github.com/birdayz/b64img/pkg/source"
)

// NewCommand returns the "b64img interactive" command.
func NewCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"ui"},
		Short:   "Encode and decode images in an interactive session",
		Long:    "Start a menu-driven session that keeps the latest encoded text and decoded image, so they can be copied to the clipboard or saved.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := a.NewExporter("")
			if err != nil {
				return err
			}
			return newRunner(a, promptUI{}, exporter).run(cmd.Context())
		},
	}
}

type prompter interface {
	Select(label string, items []string) (int, error)
	Input(label string) (string, error)
}

type promptUI struct{}

func (promptUI) Select(label string, items []string) (int, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	i, _, err := p.Run()
	return i, err
}

func (promptUI) Input(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
	}
	return p.Run()
}

const (
	actionEncode = iota
	actionCopy
	actionSaveText
	actionDecode
	actionPaste
	actionSaveImage
	actionQuit
)

var menu = []string{
	actionEncode:    "Encode an image file",
	actionCopy:      "Copy encoded text to clipboard",
	actionSaveText:  "Save encoded text",
	actionDecode:    "Decode Base64 text",
	actionPaste:     "Paste from clipboard and decode",
	actionSaveImage: "Save decoded image",
	actionQuit:      "Quit",
}

var (
	errNothingEncoded = errors.New("nothing encoded yet")
	errNothingDecoded = errors.New("nothing decoded yet")
)

type runner struct {
	a        *app.App
	prompt   prompter
	session  *session.Session
	exporter *export.Exporter
	out      io.Writer
	delay    time.Duration
}

func newRunner(a *app.App, p prompter, exporter *export.Exporter) *runner {
	return &runner{
		a:        a,
		prompt:   p,
		session:  session.New(a.NewDecoder()),
		exporter: exporter,
		out:      a.ColorableOut,
		delay:    a.Cfg.EncodeDelayOrDefault(),
	}
}

func (r *runner) run(ctx context.Context) error {
	for {
		choice, err := r.prompt.Select("What next?", menu)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		if choice == actionQuit {
			return nil
		}

		if err := r.do(ctx, choice); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				continue
			}
			logger.FromContext(ctx).Debug("action failed", slog.String("action", menu[choice]), slog.Any("error", err))
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

func (r *runner) do(ctx context.Context, choice int) error {
	switch choice {
	case actionEncode:
		return r.encode(ctx)
	case actionCopy:
		res, ok := r.session.Encoded()
		if !ok {
			return errNothingEncoded
		}
		if err := r.a.Clipboard.WriteText(ctx, res.Text); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Copied to clipboard.")
	case actionSaveText:
		res, ok := r.session.Encoded()
		if !ok {
			return errNothingEncoded
		}
		path, err := r.exporter.SaveEncoded(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Saved %s\n", path)
	case actionDecode:
		text, err := r.prompt.Input("Base64 text")
		if err != nil {
			return err
		}
		return r.decode(ctx, text)
	case actionPaste:
		text, err := r.a.Clipboard.ReadText(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Pasted %d characters.\n", len(text))
		return r.decode(ctx, text)
	case actionSaveImage:
		res, err := r.session.Decoded()
		if res == nil {
			if err != nil {
				return fmt.Errorf("%w: last decode failed: %v", errNothingDecoded, err)
			}
			return errNothingDecoded
		}
		path, err := r.exporter.SaveDecoded(*res)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Saved %s\n", path)
	default:
		return fmt.Errorf("unknown action %d", choice)
	}
	return nil
}

func (r *runner) encode(ctx context.Context) error {
	path, err := r.prompt.Input("Image file")
	if err != nil {
		return err
	}
	buf, err := source.Open(strings.TrimSpace(path), "")
	if err != nil {
		return err
	}

	if r.delay > 0 {
		fmt.Fprintln(r.out, "Converting...")
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	res := r.session.Encode(buf)
	return r.a.PrintEncoded(r.out, res, "", app.OutputFormatDefault)
}

func (r *runner) decode(ctx context.Context, text string) error {
	r.session.InputChanged()

	probeCtx, cancel := r.a.ProbeContext(ctx)
	defer cancel()

	res, err := r.session.Decode(probeCtx, text)
	if err != nil {
		return err
	}
	return r.a.PrintDecoded(r.out, res, "", app.OutputFormatDefault)
}
