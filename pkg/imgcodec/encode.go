// Package imgcodec converts image bytes to Base64 data URLs and validates
// pasted Base64 text back into image bytes.
package imgcodec

import (
	"encoding/base64"
	"strings"
)

const (
	schemePrefix = "data:"
	base64Marker = ";base64,"
)

// EncodedArtifact is the result of encoding one source buffer.
type EncodedArtifact struct {
	Text             string    `json:"text"`
	MediaType        MediaType `json:"mediaType"`
	SourceByteLength int64     `json:"sourceByteLength"`
	SourceName       string    `json:"sourceName"`
}

// Payload returns the Base64 segment of Text, without the scheme marker.
func (a EncodedArtifact) Payload() string {
	_, payload, _ := strings.Cut(a.Text, base64Marker)
	return payload
}

// Encode renders buf as a data URL carrying mediaType. The media type is not
// checked. fileName and fileSize are carried into the artifact as reported
// by the source.
func Encode(buf []byte, mediaType, fileName string, fileSize int64) EncodedArtifact {
	return EncodedArtifact{
		Text:             DataURL(MediaType(mediaType), buf),
		MediaType:        MediaType(mediaType),
		SourceByteLength: fileSize,
		SourceName:       fileName,
	}
}

// DataURL builds "data:<mediaType>;base64,<payload>" for buf.
func DataURL(mediaType MediaType, buf []byte) string {
	var sb strings.Builder
	sb.Grow(len(schemePrefix) + len(mediaType) + len(base64Marker) + EncodedLen(len(buf)))
	sb.WriteString(schemePrefix)
	sb.WriteString(string(mediaType))
	sb.WriteString(base64Marker)
	sb.WriteString(base64.StdEncoding.EncodeToString(buf))
	return sb.String()
}

// EncodedLen is the padded Base64 length for n input bytes, ceil(n/3)*4.
func EncodedLen(n int) int {
	return base64.StdEncoding.EncodedLen(n)
}
