// Package export writes encoded text and decoded images to named files.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/birdayz/b64img/pkg/imgcodec"
)

const (
	DefaultEncodedNameTemplate = "{{ .Stem }}_base64.txt"
	DefaultDecodedNameTemplate = "decoded_image_{{ .UnixMilli }}.png"
)

// NameData is what the file name templates can refer to.
type NameData struct {
	// Name is the source file name; empty for decoded images.
	Name string
	// Stem is Name up to its first dot, or "image" if that is empty.
	Stem      string
	Ext       string
	MediaType string
	Subtype   string
	UnixMilli int64
	Time      time.Time
}

// Exporter renders file names and writes files into one directory.
type Exporter struct {
	dir         string
	encodedName *template.Template
	decodedName *template.Template
	now         func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock replaces time.Now for file name rendering.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// New returns an Exporter writing into dir. Empty templates select the
// defaults. A leading ~ in dir is expanded.
func New(dir, encodedTemplate, decodedTemplate string, opts ...Option) (*Exporter, error) {
	if dir == "" {
		dir = "."
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expand output dir: %w", err)
	}

	if encodedTemplate == "" {
		encodedTemplate = DefaultEncodedNameTemplate
	}
	if decodedTemplate == "" {
		decodedTemplate = DefaultDecodedNameTemplate
	}

	enc, err := parseTemplate("encoded-name", encodedTemplate)
	if err != nil {
		return nil, err
	}
	dec, err := parseTemplate("decoded-name", decodedTemplate)
	if err != nil {
		return nil, err
	}

	e := &Exporter{
		dir:         expanded,
		encodedName: enc,
		decodedName: dec,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tpl, err := template.New(name).Funcs(sprig.HermeticTxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	return tpl, nil
}

// Dir is the directory files are written to.
func (e *Exporter) Dir() string {
	return e.dir
}

// EncodedName renders the file name for an encoded artifact.
func (e *Exporter) EncodedName(a imgcodec.EncodedArtifact) (string, error) {
	return render(e.encodedName, e.nameData(a.SourceName, a.MediaType))
}

// DecodedName renders the file name for a decoded image.
func (e *Exporter) DecodedName(d imgcodec.DecodedArtifact) (string, error) {
	return render(e.decodedName, e.nameData("", d.MediaType))
}

// SaveEncoded writes the artifact's text and returns the path written.
func (e *Exporter) SaveEncoded(a imgcodec.EncodedArtifact) (string, error) {
	name, err := e.EncodedName(a)
	if err != nil {
		return "", err
	}
	return e.WriteFile(name, []byte(a.Text))
}

// SaveDecoded writes the image bytes and returns the path written.
func (e *Exporter) SaveDecoded(d imgcodec.DecodedArtifact) (string, error) {
	name, err := e.DecodedName(d)
	if err != nil {
		return "", err
	}
	return e.WriteFile(name, d.Binary)
}

// WriteFile atomically writes data to name inside the output directory.
func (e *Exporter) WriteFile(name string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (e *Exporter) nameData(sourceName string, mt imgcodec.MediaType) NameData {
	now := e.now()
	stem, _, _ := strings.Cut(sourceName, ".")
	if stem == "" {
		stem = "image"
	}
	return NameData{
		Name:      sourceName,
		Stem:      stem,
		Ext:       mt.Extension(),
		MediaType: mt.String(),
		Subtype:   mt.Subtype(),
		UnixMilli: now.UnixMilli(),
		Time:      now,
	}
}

func render(tpl *template.Template, data NameData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", tpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("file name %q must not contain a path separator", name)
	}
	return nil
}
