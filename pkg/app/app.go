package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/birdayz/b64img/pkg/clipboard"
	"github.com/birdayz/b64img/pkg/config"
	"github.com/birdayz/b64img/pkg/export"
	"github.com/birdayz/b64img/pkg/imageprobe"
	"github.com/birdayz/b64img/pkg/imgcodec"
	"github.com/birdayz/b64img/pkg/logger"
)

// App holds all shared mutable state for the CLI. It is created once per
// invocation and threaded into every command package.
type App struct {
	// I/O
	OutWriter    io.Writer
	ErrWriter    io.Writer
	InReader     io.Reader
	ColorableOut io.Writer

	// Config state
	Cfg     config.Config
	CfgFile string
	Verbose bool

	// Collaborators
	Logger    *slog.Logger
	Clipboard clipboard.Clipboard
	Loader    imgcodec.Loader
	Now       func() time.Time

	// Display
	JSONFmt *prettyjson.Formatter

	// Root command reference (for completion generation)
	Root *cobra.Command
}

// New creates an App with sane defaults.
func New() *App {
	jsonfmt := prettyjson.NewFormatter()
	jsonfmt.DisabledColor = !isatty.IsTerminal(os.Stdout.Fd())

	return &App{
		OutWriter:    os.Stdout,
		ErrWriter:    os.Stderr,
		InReader:     os.Stdin,
		ColorableOut: colorable.NewColorableStdout(),
		Logger:       logger.L,
		Clipboard:    clipboard.System{},
		Now:          time.Now,
		JSONFmt:      jsonfmt,
	}
}

// InitConfig reads the config file and sets up logging and the image
// loader. Called by PersistentPreRunE on the root command.
func (a *App) InitConfig() error {
	var err error
	a.Cfg, err = config.ReadConfig(a.CfgFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := a.Cfg.Log.Level
	if level == "" {
		level = "warn"
	}
	if a.Verbose {
		level = "debug"
	}
	a.Logger = logger.Init(a.ErrWriter, level, a.Cfg.Log.Format)

	if a.Loader == nil {
		a.Loader = imageprobe.New(
			imageprobe.WithLogger(a.Logger),
			imageprobe.WithMaxPixels(a.Cfg.MaxPixelsOrDefault()),
		)
	}
	return nil
}

// NewDecoder returns a Decoder configured from the config file.
func (a *App) NewDecoder() *imgcodec.Decoder {
	return imgcodec.NewDecoder(a.Loader,
		imgcodec.WithFallbackMediaType(a.Cfg.Fallback()),
		imgcodec.WithLogger(a.Logger),
	)
}

// NewExporter returns an Exporter for dir, or for the configured output
// directory if dir is empty.
func (a *App) NewExporter(dir string) (*export.Exporter, error) {
	if dir == "" {
		dir = a.Cfg.OutputDirOrDefault()
	}
	return export.New(dir,
		a.Cfg.EncodedTemplateOrDefault(),
		a.Cfg.DecodedTemplateOrDefault(),
		export.WithClock(a.Now),
	)
}

// ProbeContext bounds the image probe by the configured timeout.
func (a *App) ProbeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := a.Cfg.ProbeTimeoutOrDefault(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// ValidConfigKeys provides shell completion for config keys.
func (a *App) ValidConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}

// ValidMediaTypes provides shell completion for --type flags.
func ValidMediaTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	types := imgcodec.RecognizedMediaTypes()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
