package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdayz/b64img/pkg/app"
	"github.com/birdayz/b64img/pkg/export"
)

const stdoutPath = "-"

// NewCommand returns the "b64img decode" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		pasteFlag  bool
		fileFlag   string
		outFlag    string
		dirFlag    string
		checkFlag  bool
		outputFlag = app.OutputFormatDefault
	)

	cmd := &cobra.Command{
		Use:   "decode [TEXT]",
		Short: "Decode Base64 text back into an image",
		Long: `Decode a data URL or a bare Base64 payload and check that it holds a loadable image.

The text is taken from the argument, --file, the clipboard (--paste) or stdin, in that order.
Bare payloads without a data:image/...;base64, prefix are assumed to be image/png (see
fallback-media-type in the config). The image is saved to the output directory unless
--check or --out is given.`,
		Example: `  b64img decode 'data:image/png;base64,iVBORw0KGgo...'
  b64img decode --paste
  b64img decode -f logo_base64.txt --out logo.png
  pbpaste | b64img decode --check --output json
  b64img decode -f logo_base64.txt --out - > logo.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkFlag && outFlag != "" {
				return fmt.Errorf("--check and --out are mutually exclusive")
			}

			raw, err := readInput(cmd, a, args, fileFlag, pasteFlag)
			if err != nil {
				return err
			}

			probeCtx, cancel := a.ProbeContext(cmd.Context())
			defer cancel()

			res, err := a.NewDecoder().Decode(probeCtx, raw)
			if err != nil {
				return err
			}

			summary := a.ColorableOut
			var savedTo string
			switch {
			case checkFlag:
			case outFlag == stdoutPath:
				if _, err := a.OutWriter.Write(res.Binary); err != nil {
					return fmt.Errorf("failed to write image: %w", err)
				}
				summary = a.ErrWriter
			case outFlag != "":
				if err := export.WriteFileAtomic(outFlag, res.Binary, 0o644); err != nil {
					return fmt.Errorf("failed to save image: %w", err)
				}
				savedTo = outFlag
			default:
				e, err := a.NewExporter(dirFlag)
				if err != nil {
					return err
				}
				savedTo, err = e.SaveDecoded(*res)
				if err != nil {
					return fmt.Errorf("failed to save image: %w", err)
				}
			}

			return a.PrintDecoded(summary, res, savedTo, outputFlag)
		},
	}

	cmd.Flags().BoolVar(&pasteFlag, "paste", false, "Read the Base64 text from the clipboard")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the Base64 text from a file (- for stdin)")
	cmd.Flags().StringVar(&outFlag, "out", "", "Write the image to this path (- for stdout) instead of the output directory")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Output directory (default from config output-dir)")
	cmd.Flags().BoolVar(&checkFlag, "check", false, "Only validate; do not write the image")
	cmd.Flags().VarP(&outputFlag, "output", "o", "Set output format: default, raw (normalized data URL), json, hex (dump of the image bytes)")

	if err := cmd.RegisterFlagCompletionFunc("output", app.CompleteOutputFormat); err != nil {
		panic(fmt.Sprintf("Failed to register flag completion: %v", err))
	}

	return cmd
}

func readInput(cmd *cobra.Command, a *app.App, args []string, file string, paste bool) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file == stdoutPath:
		return readAll(a.InReader)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(b), nil
	case paste:
		text, err := a.Clipboard.ReadText(cmd.Context())
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		return text, nil
	default:
		return readAll(a.InReader)
	}
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}
