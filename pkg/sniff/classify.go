package sniff

import (
	"bytes"
	"mime"
	"strings"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// Classifies a resource with no usable declared type
// When forTextOrBinary is set, scriptable types can't be returned, either from the table or from the oracle
func (s *ContentSniffer) sniffUnknown(uri string, sample []byte, forTextOrBinary bool) string {
	sample = window(sample)

	for i := range patterns {
		p := &patterns[i]
		if forTextOrBinary && p.Scriptable {
			continue
		}
		if p.Match(sample) {
			return p.Type
		}
	}

	guess, certain := s.oracle.Guess(uri, sample)
	guess = stripParams(guess)
	if guess != "" && forTextOrBinary && isScriptableType(guess) {
		s.logger.Debug("Discarded scriptable guess from the oracle", "uri", uri, "guess", guess)
		guess = ""
	}
	if guess != "" {
		s.logger.Debug("Using guess from the oracle", "uri", uri, "guess", guess, "certain", certain)
		return guess
	}

	return OctetStream
}

// Returns text/plain unless the sample looks binary
func (s *ContentSniffer) sniffTextOrBinary(uri string, sample []byte) string {
	sample = window(sample)

	// The BOM shortcut needs a complete 4-byte signature
	if len(sample) >= 4 &&
		(bytes.HasPrefix(sample, bomUTF16BE) ||
			bytes.HasPrefix(sample, bomUTF16LE) ||
			bytes.HasPrefix(sample, bomUTF8)) {
		return TextPlain
	}

	if !looksBinary(sample) {
		return TextPlain
	}

	return s.sniffUnknown(uri, sample, true)
}

// Only image signatures are considered; the declared type is trusted if none matches
func (s *ContentSniffer) sniffImages(sample []byte, declared string) string {
	sample = window(sample)

	for i := range patterns {
		p := &patterns[i]
		if !strings.HasPrefix(p.Type, "image/") {
			continue
		}
		// All image rules have an all-ones mask
		if bytes.HasPrefix(sample, p.Bytes[:p.Length]) {
			return p.Type
		}
	}

	return declared
}

func looksBinary(sample []byte) bool {
	for _, b := range sample {
		if binaryBytes[b] {
			return true
		}
	}
	return false
}

// Returns true if t is the type of a scriptable rule in the table
func isScriptableType(t string) bool {
	for i := range patterns {
		if patterns[i].Scriptable && strings.EqualFold(patterns[i].Type, t) {
			return true
		}
	}
	return false
}

// Removes parameters such as "; charset=utf-8" from a media type
func stripParams(t string) string {
	if t == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		// Keep the part before the first ";" if the parameters are malformed
		mt, _, _ = strings.Cut(t, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}
