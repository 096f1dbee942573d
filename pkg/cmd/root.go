package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/birdayz/b64img/pkg/app"
	"github.com/birdayz/b64img/pkg/cmd/completion"
	b64config "github.com/birdayz/b64img/pkg/cmd/config"
	"github.com/birdayz/b64img/pkg/cmd/decode"
	"github.com/birdayz/b64img/pkg/cmd/encode"
	"github.com/birdayz/b64img/pkg/cmd/interactive"
	"github.com/birdayz/b64img/pkg/logger"
)

// Execute is the single entry point for the CLI.
func Execute(version, commit string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(app.New(), version, commit).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree around a.
func NewRootCommand(a *app.App, version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:          "b64img",
		Short:        "Convert images to Base64 data URLs and back",
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.OutWriter = cmd.OutOrStdout()
			a.ErrWriter = cmd.ErrOrStderr()
			a.InReader = cmd.InOrStdin()

			if a.OutWriter != os.Stdout {
				a.ColorableOut = a.OutWriter
				a.JSONFmt.DisabledColor = true
			}

			if err := a.InitConfig(); err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), a.Logger))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.CfgFile, "config", "", "config file (default is $HOME/.b64img/config)")
	root.PersistentFlags().BoolVarP(&a.Verbose, "verbose", "v", false, "Enable debug logging on stderr")

	root.AddCommand(
		encode.NewCommand(a),
		decode.NewCommand(a),
		interactive.NewCommand(a),
		b64config.NewCommand(a),
		completion.NewCommand(root, a),
	)

	a.Root = root
	return root
}
