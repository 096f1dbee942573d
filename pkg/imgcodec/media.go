package imgcodec

import "strings"

// MediaType is the MIME type declared for, or assumed of, an image payload.
type MediaType string

const (
	MediaTypePNG  MediaType = "image/png"
	MediaTypeJPEG MediaType = "image/jpeg"
	MediaTypeGIF  MediaType = "image/gif"
	MediaTypeSVG  MediaType = "image/svg+xml"
	MediaTypeWebP MediaType = "image/webp"
)

// DefaultMediaType is assumed for payloads pasted without a scheme marker.
const DefaultMediaType = MediaTypePNG

var extensions = map[MediaType]string{
	MediaTypePNG:  ".png",
	MediaTypeJPEG: ".jpg",
	MediaTypeGIF:  ".gif",
	MediaTypeSVG:  ".svg",
	MediaTypeWebP: ".webp",
}

// RecognizedMediaTypes lists the types that may be assumed when decoding a
// payload that carries no scheme marker.
func RecognizedMediaTypes() []MediaType {
	return []MediaType{MediaTypePNG, MediaTypeJPEG, MediaTypeGIF, MediaTypeSVG, MediaTypeWebP}
}

// ParseMediaType lowercases and strips parameters from raw, e.g.
// "IMAGE/PNG; charset=binary" becomes "image/png".
func ParseMediaType(raw string) MediaType {
	mt := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return MediaType(mt)
}

func (m MediaType) String() string {
	return string(m)
}

// Subtype returns the part after the slash, e.g. "png" for image/png.
func (m MediaType) Subtype() string {
	_, sub, ok := strings.Cut(string(m), "/")
	if !ok {
		return ""
	}
	return sub
}

// IsImage reports whether m is in the image/* tree.
func (m MediaType) IsImage() bool {
	return strings.HasPrefix(string(m), "image/") && m.Subtype() != ""
}

// Recognized reports whether m is one of the well-known image types.
func (m MediaType) Recognized() bool {
	_, ok := extensions[m]
	return ok
}

// Extension returns the usual file extension for m, including the dot.
// Unrecognized image types fall back to their subtype; everything else
// gets ".bin".
func (m MediaType) Extension() string {
	if ext, ok := extensions[m]; ok {
		return ext
	}
	if m.IsImage() {
		sub := m.Subtype()
		if idx := strings.IndexAny(sub, "+;"); idx >= 0 {
			sub = sub[:idx]
		}
		return "." + sub
	}
	return ".bin"
}
