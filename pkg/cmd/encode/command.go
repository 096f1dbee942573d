package encode

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/b64img/pkg/app"
	"github.com/birdayz/b64img/pkg/export"
	"github.com/birdayz/b64img/pkg/imgcodec"
	"github.com/birdayz/b64img/pkg/logger"
	"github.com/birdayz/b64img/pkg/source"
)

const stdinArg = "-"

// NewCommand returns the "b64img encode" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		typeFlag        string
		nameFlag        string
		dirFlag         string
		copyFlag        bool
		saveFlag        bool
		concurrencyFlag int
		outputFlag      = app.OutputFormatDefault
	)

	cmd := &cobra.Command{
		Use:   "encode FILE...",
		Short: "Encode image files as Base64 data URLs",
		Long:  "Encode one or more image files as data:<type>;base64,<payload> text. Use - to read from stdin. The media type comes from --type, the file extension or the file content, in that order.",
		Example: `  b64img encode logo.png
  b64img encode logo.png --copy
  b64img encode a.png b.jpg --save --dir ./out
  cat logo.svg | b64img encode - --name logo.svg --output raw`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFlag == app.OutputFormatHex {
				return fmt.Errorf("--output hex is only supported by decode")
			}
			if concurrencyFlag < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if copyFlag && len(args) != 1 {
				return fmt.Errorf("--copy needs exactly one file")
			}
			stdinCount := 0
			for _, arg := range args {
				if arg == stdinArg {
					stdinCount++
				}
			}
			if stdinCount > 1 {
				return fmt.Errorf("stdin (-) can only be read once")
			}

			log := logger.FromContext(cmd.Context())
			results := make([]imgcodec.EncodedArtifact, len(args))

			g, _ := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrencyFlag)
			for i, path := range args {
				g.Go(func() error {
					var (
						buf *source.Buffer
						err error
					)
					if path == stdinArg {
						buf, err = source.Read(a.InReader, nameFlag, typeFlag)
					} else {
						buf, err = source.Open(path, typeFlag)
					}
					if err != nil {
						return err
					}
					results[i] = imgcodec.Encode(buf.Bytes, buf.MediaType, buf.Name, buf.Size)
					log.Debug("encoded source",
						slog.String("name", buf.Name),
						slog.String("media_type", buf.MediaType),
						slog.Int64("bytes", buf.Size),
					)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			var exporter *export.Exporter
			if saveFlag {
				var err error
				exporter, err = a.NewExporter(dirFlag)
				if err != nil {
					return err
				}
			}

			for _, res := range results {
				var savedTo string
				if exporter != nil {
					path, err := exporter.SaveEncoded(res)
					if err != nil {
						return fmt.Errorf("failed to save %s: %w", res.SourceName, err)
					}
					savedTo = path
				}
				if err := a.PrintEncoded(a.ColorableOut, res, savedTo, outputFlag); err != nil {
					return err
				}
			}

			if copyFlag {
				if err := a.Clipboard.WriteText(cmd.Context(), results[0].Text); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				fmt.Fprintln(a.ErrWriter, "Copied to clipboard.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Media type to declare, e.g. image/png. Detected when empty")
	cmd.Flags().StringVar(&nameFlag, "name", "stdin", "Source name reported for stdin input")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Directory for --save (default from config output-dir)")
	cmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the data URL to the clipboard")
	cmd.Flags().BoolVar(&saveFlag, "save", false, "Save each data URL to a text file")
	cmd.Flags().IntVar(&concurrencyFlag, "concurrency", 4, "Number of files read in parallel")
	cmd.Flags().VarP(&outputFlag, "output", "o", "Set output format: default, raw (data URL only), json")

	if err := cmd.RegisterFlagCompletionFunc("output", app.CompleteOutputFormat); err != nil {
		panic(fmt.Sprintf("Failed to register flag completion: %v", err))
	}
	if err := cmd.RegisterFlagCompletionFunc("type", app.ValidMediaTypes); err != nil {
		panic(fmt.Sprintf("Failed to register flag completion: %v", err))
	}

	return cmd
}
