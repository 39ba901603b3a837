package filetype

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Oracle guesses the media type of a resource for which no signature in the sniffing table matched
// Layers are consulted in order: magic numbers (certain), the URI's extension, then deep content inspection
type Oracle struct {
	// Look for magic numbers with Detect
	Magic bool
	// Look at the extension of the URI's path
	Extension bool
	// Inspect the content with the mimetype library
	Deep bool
	// Additional extension to media type mappings, checked before the system's ones
	// Keys include the leading dot, for example ".md"
	Extensions map[string]string
}

// NewOracle returns an Oracle with all layers enabled
func NewOracle() *Oracle {
	return &Oracle{
		Magic:     true,
		Extension: true,
		Deep:      true,
	}
}

// Guess returns the media type of the resource, without parameters, or an empty string if it can't be determined
// The result is certain only when it comes from magic numbers
func (o *Oracle) Guess(uri string, sample []byte) (mediaType string, certain bool) {
	if o.Magic && len(sample) > 0 {
		_, mt, err := Detect(NewBytesBuffer(sample))
		if err == nil && mt != "" {
			return mt, true
		}
	}

	if o.Extension {
		mt := o.byExtension(uri)
		if mt != "" {
			return mt, false
		}
	}

	if o.Deep && len(sample) > 0 {
		detected := mimetype.Detect(sample)
		if !detected.Is("application/octet-stream") {
			return cleanMediaType(detected.String()), false
		}
	}

	return "", false
}

func (o *Oracle) byExtension(uri string) string {
	ext := strings.ToLower(path.Ext(uriPath(uri)))
	if ext == "" || ext == "." {
		return ""
	}
	if mt, ok := o.Extensions[ext]; ok {
		return cleanMediaType(mt)
	}
	return cleanMediaType(mime.TypeByExtension(ext))
}

// Returns the path component of a URI, falling back to stripping the query and fragment by hand
func uriPath(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		return u.Path
	}
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return uri
}
