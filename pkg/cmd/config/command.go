package config

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/birdayz/b64img/pkg/app"
	"github.com/birdayz/b64img/pkg/imgcodec"
)

// NewCommand returns the "b64img config" command with subcommands.
func NewCommand(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Handle b64img configuration",
	}

	cmd.AddCommand(
		newViewCommand(a),
		newPathCommand(a),
		newSetCommand(a),
		newSelectFallbackCommand(a),
	)

	return cmd
}

func newViewCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the configuration file contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(&a.Cfg)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			if strings.TrimSpace(string(out)) == "{}" {
				return nil
			}
			_, err = a.OutWriter.Write(out)
			return err
		},
	}
}

func newPathCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path of the configuration file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.OutWriter, a.Cfg.Path())
		},
	}
}

func newSetCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:               "set KEY VALUE",
		Short:             "Set a configuration value",
		Example:           "  b64img config set fallback-media-type image/jpeg\n  b64img config set encode-delay 0s\n  b64img config set output-dir ~/Pictures/b64",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: a.ValidConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.Cfg.Write(); err != nil {
				return fmt.Errorf("unable to write config: %w", err)
			}
			fmt.Fprintf(a.OutWriter, "Set %s to %q.\n", args[0], args[1])
			return nil
		},
	}
}

func newSelectFallbackCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "select-fallback",
		Short: "Interactively select the media type assumed for bare Base64 payloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := a.Cfg.Fallback()
			var names []string
			pos := 0
			for k, mt := range imgcodec.RecognizedMediaTypes() {
				names = append(names, mt.String())
				if mt == current {
					pos = k
				}
			}

			p := promptui.Select{
				Label:     "Select fallback media type",
				Items:     names,
				Size:      len(names),
				CursorPos: pos,
			}

			_, selected, err := p.Run()
			if err != nil {
				// User cancelled (e.g. Ctrl-C). Not an error.
				return nil
			}

			if err := a.Cfg.Set("fallback-media-type", selected); err != nil {
				return err
			}
			if err := a.Cfg.Write(); err != nil {
				return fmt.Errorf("unable to write config: %w", err)
			}
			fmt.Fprintf(a.OutWriter, "Bare payloads are now decoded as %s.\n", selected)
			return nil
		},
	}
}
