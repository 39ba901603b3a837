package sniff

import "bytes"

// SampleSize is the number of body bytes the sniffer needs before it can classify a resource
const SampleSize = 512

// Generic media types returned by the classifiers
const (
	OctetStream = "application/octet-stream"
	TextPlain   = "text/plain"
	TextHTML    = "text/html"
	RSS         = "application/rss+xml"
	Atom        = "application/atom+xml"
)

// Marks a position in a pattern that matches any run of generic whitespace
const wsSentinel = ' '

// Pattern is a single rule in the signature table
type Pattern struct {
	// Mask is applied to each sample byte before comparing it with Bytes
	Mask []byte
	// Bytes to match; for LeadingWS rules, leading positions may contain the whitespace sentinel
	Bytes []byte
	// Number of significant positions (sentinels are not counted)
	Length int
	// Media type of the resource if the rule matches
	Type string
	// If true, the resource could be executed as active content
	Scriptable bool
	// If true, the pattern starts with generic whitespace and is matched in whitespace-tolerant mode
	LeadingWS bool
}

// Signature table, in priority order
// Based on the "unknown type" table of the HTML content sniffing algorithm
var patterns = []Pattern{
	{
		Mask:       []byte("\xFF\xFF\xDF\xDF\xDF\xDF\xDF\xDF\xDF\xFF\xDF\xDF\xDF\xDF"),
		Bytes:      []byte("<!DOCTYPE HTML"),
		Length:     14,
		Type:       TextHTML,
		Scriptable: true,
	},
	{
		Mask:       []byte("\xFF\xFF\xDF\xDF\xDF\xDF"),
		Bytes:      []byte(" <HTML"),
		Length:     5,
		Type:       TextHTML,
		Scriptable: true,
		LeadingWS:  true,
	},
	{
		Mask:       []byte("\xFF\xFF\xDF\xDF\xDF\xDF"),
		Bytes:      []byte(" <HEAD"),
		Length:     5,
		Type:       TextHTML,
		Scriptable: true,
		LeadingWS:  true,
	},
	{
		Mask:       []byte("\xFF\xFF\xDF\xDF\xDF\xDF\xDF\xDF"),
		Bytes:      []byte(" <SCRIPT"),
		Length:     7,
		Type:       TextHTML,
		Scriptable: true,
		LeadingWS:  true,
	},
	{
		Mask:       []byte("\xFF\xFF\xFF\xFF\xFF"),
		Bytes:      []byte("%PDF-"),
		Length:     5,
		Type:       "application/pdf",
		Scriptable: true,
	},
	{
		Mask:   []byte("\xFF\xFF\xFF\xFF\xFF\xFF\xFF\xFF\xFF\xFF\xFF"),
		Bytes:  []byte("%!PS-Adobe-"),
		Length: 11,
		Type:   "application/postscript",
	},
	// UTF-16BE BOM
	{
		Mask:   []byte{0xFF, 0xFF, 0x00, 0x00},
		Bytes:  []byte{0xFE, 0xFF, 0x00, 0x00},
		Length: 4,
		Type:   TextPlain,
	},
	// UTF-16LE BOM
	{
		Mask:   []byte{0xFF, 0xFF, 0x00, 0x00},
		Bytes:  []byte{0xFF, 0xFE, 0x00, 0x00},
		Length: 4,
		Type:   TextPlain,
	},
	// UTF-8 BOM
	{
		Mask:   []byte{0xFF, 0xFF, 0xFF, 0x00},
		Bytes:  []byte{0xEF, 0xBB, 0xBF, 0x00},
		Length: 4,
		Type:   TextPlain,
	},
	{
		Mask:   []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		Bytes:  []byte("GIF87a"),
		Length: 6,
		Type:   "image/gif",
	},
	{
		Mask:   []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		Bytes:  []byte("GIF89a"),
		Length: 6,
		Type:   "image/gif",
	},
	{
		Mask:   []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		Bytes:  []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
		Length: 8,
		Type:   "image/png",
	},
	{
		Mask:   []byte{0xFF, 0xFF, 0xFF},
		Bytes:  []byte{0xFF, 0xD8, 0xFF},
		Length: 3,
		Type:   "image/jpeg",
	},
	{
		Mask:   []byte{0xFF, 0xFF},
		Bytes:  []byte("BM"),
		Length: 2,
		Type:   "image/bmp",
	},
	{
		Mask:   []byte{0xFF, 0xFF, 0xFF, 0xFF},
		Bytes:  []byte{0x00, 0x00, 0x01, 0x00},
		Length: 4,
		Type:   "image/vnd.microsoft.icon",
	},
}

// Patterns returns a copy of the signature table, in priority order
// Changes to the returned rules, including their byte slices, do not affect the table
func Patterns() []Pattern {
	res := make([]Pattern, len(patterns))
	for i, p := range patterns {
		p.Mask = bytes.Clone(p.Mask)
		p.Bytes = bytes.Clone(p.Bytes)
		res[i] = p
	}
	return res
}

// Bytes that look like they belong to binary content
// 0x09 (HT), 0x0A (LF), 0x0C (FF), 0x0D (CR) and 0x1B (ESC) are the only exempted control characters
var binaryBytes = [256]bool{
	0x00: true, 0x01: true, 0x02: true, 0x03: true, 0x04: true, 0x05: true, 0x06: true, 0x07: true,
	0x08: true, 0x0B: true, 0x0E: true, 0x0F: true,
	0x10: true, 0x11: true, 0x12: true, 0x13: true, 0x14: true, 0x15: true, 0x16: true, 0x17: true,
	0x18: true, 0x19: true, 0x1A: true, 0x1C: true, 0x1D: true, 0x1E: true, 0x1F: true,
}

// LooksBinary returns true if b is a control character that is not expected in text
func LooksBinary(b byte) bool {
	return binaryBytes[b]
}

// Generic whitespace: HT, LF, FF, CR, SP
func isWhitespace(b byte) bool {
	switch b {
	case 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

// Returns at most SampleSize bytes of the sample
func window(sample []byte) []byte {
	if len(sample) > SampleSize {
		return sample[:SampleSize]
	}
	return sample
}
