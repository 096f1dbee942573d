package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/birdayz/b64img/pkg/imgcodec"
)

// OutputFormat controls how results are printed.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatRaw     OutputFormat = "raw"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatHex     OutputFormat = "hex"
)

func (e *OutputFormat) String() string {
	return string(*e)
}

func (e *OutputFormat) Set(v string) error {
	switch v {
	case "default", "raw", "json", "hex":
		*e = OutputFormat(v)
		return nil
	default:
		return fmt.Errorf("must be one of: default, raw, json, hex")
	}
}

func (e *OutputFormat) Type() string {
	return "OutputFormat"
}

// CompleteOutputFormat provides shell completion for --output.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"default", "raw", "json", "hex"}, cobra.ShellCompDirectiveNoFileComp
}

// FormatSize renders a byte count the way the original web page did: KB
// with two decimals.
func FormatSize(n int64) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

// EncodedJSON is the wire format for encode --output json.
type EncodedJSON struct {
	SourceName       string `json:"sourceName"`
	MediaType        string `json:"mediaType"`
	SourceByteLength int64  `json:"sourceByteLength"`
	TextLength       int    `json:"textLength"`
	Text             string `json:"text"`
	SavedTo          string `json:"savedTo,omitempty"`
}

// DecodedJSON is the wire format for decode --output json.
type DecodedJSON struct {
	MediaType  string `json:"mediaType"`
	ByteLength int    `json:"byteLength"`
	SavedTo    string `json:"savedTo,omitempty"`
}

// PrintEncoded writes one encode result. savedTo is the exported file, if
// any.
func (a *App) PrintEncoded(w io.Writer, res imgcodec.EncodedArtifact, savedTo string, format OutputFormat) error {
	switch format {
	case OutputFormatRaw:
		_, err := fmt.Fprintln(w, res.Text)
		return err
	case OutputFormatJSON:
		return a.printJSON(w, EncodedJSON{
			SourceName:       res.SourceName,
			MediaType:        res.MediaType.String(),
			SourceByteLength: res.SourceByteLength,
			TextLength:       len(res.Text),
			Text:             res.Text,
			SavedTo:          savedTo,
		})
	case OutputFormatHex:
		return fmt.Errorf("--output hex is only supported by decode")
	default:
		fmt.Fprintf(w, "File:   %s\n", res.SourceName)
		fmt.Fprintf(w, "Type:   %s\n", res.MediaType)
		fmt.Fprintf(w, "Size:   %s\n", FormatSize(res.SourceByteLength))
		fmt.Fprintf(w, "Length: %d characters\n", len(res.Text))
		if savedTo != "" {
			fmt.Fprintf(w, "Saved:  %s\n", savedTo)
		}
		_, err := fmt.Fprintln(w, res.Text)
		return err
	}
}

// PrintDecoded writes one decode result.
func (a *App) PrintDecoded(w io.Writer, res *imgcodec.DecodedArtifact, savedTo string, format OutputFormat) error {
	switch format {
	case OutputFormatRaw:
		_, err := fmt.Fprintln(w, res.DataURL())
		return err
	case OutputFormatJSON:
		return a.printJSON(w, DecodedJSON{
			MediaType:  res.MediaType.String(),
			ByteLength: len(res.Binary),
			SavedTo:    savedTo,
		})
	case OutputFormatHex:
		_, err := fmt.Fprint(w, hex.Dump(res.Binary))
		return err
	default:
		fmt.Fprintf(w, "Type:   %s\n", res.MediaType)
		fmt.Fprintf(w, "Size:   %s\n", FormatSize(int64(len(res.Binary))))
		if savedTo != "" {
			fmt.Fprintf(w, "Saved:  %s\n", savedTo)
		}
		return nil
	}
}

func (a *App) printJSON(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f := a.JSONFmt
	if f == nil {
		f = prettyjson.NewFormatter()
		f.DisabledColor = true
	}
	out, err := f.Format(raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
