package sniff

import (
	"io"
	"log/slog"
	"mime"
	"strings"
)

// Sniffer decides the effective media type of a resource
// Implementations must be safe for concurrent use
type Sniffer interface {
	// Sniff returns the media type consumers should treat the resource as
	Sniff(req Request) Result
	// RequiredSampleSize returns how many body bytes must be buffered before Sniff is invoked
	RequiredSampleSize() int
}

// Request contains the inputs for a single sniff operation
type Request struct {
	// Media type declared by the server, without parameters
	// An empty string means that no type was declared
	DeclaredType string
	// Parameters of the declared type, such as charset
	Params map[string]string
	// Raw value of the Content-Type header, including parameters
	Header string
	// URI of the resource
	URI string
	// First bytes of the body; at most SampleSize are considered
	Sample []byte
}

// Result of a sniff operation
type Result struct {
	// Effective media type; never empty
	Type string
	// Parameters of the declared type, passed through unchanged when the declared type is retained
	Params map[string]string
}

// String returns the media type formatted with its parameters
func (r Result) String() string {
	if len(r.Params) == 0 {
		return r.Type
	}
	res := mime.FormatMediaType(r.Type, r.Params)
	if res == "" {
		return r.Type
	}
	return res
}

// Values of the Content-Type header that route to the text-or-binary classifier
// These are compared byte-for-byte, as they are the values commonly sent by misconfigured servers
var textPlainHeaders = map[string]struct{}{
	"text/plain":                     {},
	"text/plain; charset=ISO-8859-1": {},
	"text/plain; charset=iso-8859-1": {},
	"text/plain; charset=UTF-8":      {},
}

// Options for New
type Options struct {
	// Oracle consulted when no signature matches; defaults to NoOracle
	Oracle Oracle
	// Logger for debug messages; defaults to a logger that discards everything
	Logger *slog.Logger
}

// ContentSniffer implements Sniffer using the HTML content sniffing algorithm
type ContentSniffer struct {
	oracle Oracle
	logger *slog.Logger
}

// New returns a new ContentSniffer
func New(opts *Options) *ContentSniffer {
	s := &ContentSniffer{
		oracle: NoOracle,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if opts != nil {
		if opts.Oracle != nil {
			s.oracle = opts.Oracle
		}
		if opts.Logger != nil {
			s.logger = opts.Logger
		}
	}
	return s
}

// RequiredSampleSize implements Sniffer
func (s *ContentSniffer) RequiredSampleSize() int {
	return SampleSize
}

// Sniff implements Sniffer
func (s *ContentSniffer) Sniff(req Request) Result {
	route, sniffed := s.dispatch(req)
	s.logger.Debug("Sniffed content type",
		"uri", req.URI,
		"declared", req.DeclaredType,
		"route", route,
		"type", sniffed,
	)

	res := Result{Type: sniffed}
	if req.DeclaredType != "" && strings.EqualFold(sniffed, req.DeclaredType) {
		res.Params = req.Params
	}
	return res
}

func (s *ContentSniffer) dispatch(req Request) (route string, sniffed string) {
	declared := req.DeclaredType

	switch {
	case declared == "",
		strings.EqualFold(declared, "unknown/unknown"),
		strings.EqualFold(declared, "application/unknown"),
		declared == "*/*":
		return "unknown", s.sniffUnknown(req.URI, req.Sample, false)

	// Includes image/svg+xml, which is deliberately never sniffed
	case hasSuffixFold(declared, "+xml"),
		strings.EqualFold(declared, "text/xml"),
		strings.EqualFold(declared, "application/xml"):
		return "xml", declared

	case hasPrefixFold(declared, "image/"):
		return "image", s.sniffImages(req.Sample, declared)
	}

	if _, ok := textPlainHeaders[req.Header]; ok {
		return "text-or-binary", s.sniffTextOrBinary(req.URI, req.Sample)
	}

	if strings.EqualFold(declared, TextHTML) {
		return "feed-or-html", sniffFeedOrHTML(req.Sample)
	}

	return "declared", declared
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// Used by SniffType
var defaultSniffer = New(nil)

// SniffType classifies a resource with a sniffer that has no oracle
// It is a shorthand for tests and callers that only have a header value at hand
func SniffType(declared string, header string, uri string, sample []byte) string {
	return defaultSniffer.Sniff(Request{
		DeclaredType: declared,
		Header:       header,
		URI:          uri,
		Sample:       sample,
	}).Type
}
