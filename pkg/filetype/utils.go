package filetype

import (
	"mime"
	"strings"
)

// Parses a sequence of 4 bytes into an ID3 "uint32 sync-safe integer"
// See also https://stackoverflow.com/a/7913100/192024
func parseID3SyncSafeUint32(b [4]byte) uint32 {
	return uint32(b[3]&0x7F) | uint32(b[2]&0x7F)<<7 | uint32(b[1]&0x7F)<<14 | uint32(b[0]&0x7F)<<21
}

// Returns the media type without parameters, lowercased
// Returns an empty string if t can't be parsed
func cleanMediaType(t string) string {
	if t == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		mt, _, _ = strings.Cut(t, ";")
		mt = strings.TrimSpace(mt)
	}
	if !strings.Contains(mt, "/") {
		return ""
	}
	return strings.ToLower(mt)
}
