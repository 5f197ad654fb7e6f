// ABOUTME: Format negotiation for candidate asset sources
// ABOUTME: Probes decodable codecs and ranks sources by preference
package decode

import (
	"path"
	"strings"
)

// preference orders codecs best-first for file assets. Lossless formats
// rank above lossy; Opus last because it lacks container demuxing here.
var preference = []string{"wav", "flac", "mp3", "opus"}

// Negotiator knows which codecs the runtime can decode and in what
// order candidate sources should be attempted.
type Negotiator struct {
	supported map[string]bool
}

// NewNegotiator probes the runtime once for decodable codecs
func NewNegotiator() *Negotiator {
	n := &Negotiator{supported: make(map[string]bool)}

	for _, codec := range preference {
		dec, err := New(codec)
		if err != nil {
			continue
		}
		dec.Close()
		n.supported[codec] = true
	}

	return n
}

// Supports reports whether the runtime can decode the codec
func (n *Negotiator) Supports(codec string) bool {
	return n.supported[codec]
}

// Preference returns the supported codecs best-first
func (n *Negotiator) Preference() []string {
	var out []string
	for _, codec := range preference {
		if n.supported[codec] {
			out = append(out, codec)
		}
	}
	return out
}

// Rank orders candidate source URIs by codec preference, dropping sources
// whose codec cannot be decoded. Relative order is kept within a codec.
func (n *Negotiator) Rank(sources []string) []string {
	var ranked []string
	for _, codec := range preference {
		if !n.supported[codec] {
			continue
		}
		for _, src := range sources {
			if CodecForSource(src) == codec {
				ranked = append(ranked, src)
			}
		}
	}
	return ranked
}

// CodecForSource maps a source URI to its codec by file extension.
// Returns "" for unknown extensions.
func CodecForSource(uri string) string {
	// Strip query strings from URLs
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}

	switch strings.ToLower(path.Ext(uri)) {
	case ".wav":
		return "wav"
	case ".flac":
		return "flac"
	case ".mp3":
		return "mp3"
	case ".opus":
		return "opus"
	default:
		return ""
	}
}
