package sniff

import "bytes"

// Decides whether a resource declared as text/html is actually an RSS or Atom feed
// Only the first real tag matters: comments, declarations and processing instructions before it are skipped
// Running off the end of the sample at any point means text/html
func sniffFeedOrHTML(sample []byte) string {
	sample = window(sample)
	pos := 0

	if bytes.HasPrefix(sample, bomUTF8) {
		pos = 3
	}

	for {
		for pos < len(sample) && isWhitespace(sample[pos]) {
			pos++
		}
		if pos >= len(sample) || sample[pos] != '<' {
			return TextHTML
		}
		pos++

		rest := sample[pos:]
		switch {
		case bytes.HasPrefix(rest, []byte("!--")):
			end := bytes.Index(rest[3:], []byte("-->"))
			if end < 0 {
				return TextHTML
			}
			pos += 3 + end + 3

		case bytes.HasPrefix(rest, []byte("!")):
			end := bytes.IndexByte(rest[1:], '>')
			if end < 0 {
				return TextHTML
			}
			pos += 1 + end + 1

		case bytes.HasPrefix(rest, []byte("?")):
			end := bytes.Index(rest[1:], []byte("?>"))
			if end < 0 {
				return TextHTML
			}
			pos += 1 + end + 2

		case bytes.HasPrefix(rest, []byte("rss")):
			return RSS

		case bytes.HasPrefix(rest, []byte("feed")):
			return Atom

		default:
			return TextHTML
		}
	}
}
