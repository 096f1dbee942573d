// Package source loads whole image files into memory for encoding.
package source

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/birdayz/b64img/pkg/imgcodec"
)

const octetStream = "application/octet-stream"

// Buffer is one source file: its bytes and what the source reports about
// them.
type Buffer struct {
	Bytes     []byte
	MediaType string
	Name      string
	Size      int64
}

// Open reads the file at path. declared overrides media type detection when
// non-empty.
func Open(path, declared string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %q is a directory", path)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	name := filepath.Base(path)
	return &Buffer{
		Bytes:     data,
		MediaType: DetectMediaType(name, declared, data),
		Name:      name,
		Size:      info.Size(),
	}, nil
}

// Read consumes r completely. It is used for stdin.
func Read(r io.Reader, name, declared string) (*Buffer, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return &Buffer{
		Bytes:     data,
		MediaType: DetectMediaType(name, declared, data),
		Name:      name,
		Size:      int64(len(data)),
	}, nil
}

// DetectMediaType picks the media type for a source. An explicit declaration
// wins; then an image type implied by the file extension; then one sniffed
// from the content; then whatever the extension says.
func DetectMediaType(name, declared string, data []byte) string {
	if mt := imgcodec.ParseMediaType(declared); mt != "" {
		return mt.String()
	}

	byExt := imgcodec.ParseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))
	if byExt.IsImage() {
		return byExt.String()
	}

	if sniffed := sniff(data); sniffed.IsImage() {
		return sniffed.String()
	}

	if byExt != "" {
		return byExt.String()
	}
	return octetStream
}

func sniff(data []byte) imgcodec.MediaType {
	if len(data) == 0 {
		return ""
	}
	header := data
	if len(header) > 512 {
		header = header[:512]
	}
	mt := imgcodec.ParseMediaType(http.DetectContentType(header))
	if mt == "text/xml" || mt == "text/plain" {
		if strings.Contains(string(header), "<svg") {
			return imgcodec.MediaTypeSVG
		}
	}
	return mt
}
