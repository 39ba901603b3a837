// Package sniffhttp runs the content sniffer on HTTP responses
package sniffhttp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sync"

	"github.com/italypaleale/content-sniffer-go/pkg/filetype"
	"github.com/italypaleale/content-sniffer-go/pkg/sniff"
)

// SniffedTypeHeader is the response header that contains the sniffed media type
const SniffedTypeHeader = "X-Sniffed-Content-Type"

// Transport is a http.RoundTripper that sniffs the content type of every response
// The original Content-Type header is left untouched; the result is stored in SniffedTypeHeader
type Transport struct {
	// Base is the RoundTripper that performs the requests; defaults to http.DefaultTransport
	Base http.RoundTripper
	// Feature attaches the sniffer to in-flight responses
	// If nil, a Feature with a sniffer that has no oracle is created on first use
	Feature *sniff.Feature
	// Logger; optional
	Logger *slog.Logger

	featureOnce sync.Once
}

// NewTransport returns a Transport that uses s on top of base
func NewTransport(base http.RoundTripper, s sniff.Sniffer, logger *slog.Logger) *Transport {
	return &Transport{
		Base:    base,
		Feature: sniff.NewFeature(s, logger),
		Logger:  logger,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	msg := &message{uri: req.URL.String()}
	lease := t.feature().Acquire(msg)

	res, err := base.RoundTrip(req)
	if err != nil {
		lease.Release()
		return nil, err
	}

	result, err := msg.sniff(res)
	if err != nil {
		_ = res.Body.Close()
		lease.Release()
		return nil, fmt.Errorf("failed to buffer response for sniffing: %w", err)
	}

	res.Header.Set(SniffedTypeHeader, result.String())
	if t.Logger != nil {
		t.Logger.Debug("Sniffed response",
			"url", msg.uri,
			"status", res.StatusCode,
			"declared", res.Header.Get("Content-Type"),
			"sniffed", result.Type,
		)
	}

	res.Body = &releasingBody{
		Reader: msg.body,
		closer: res.Body,
		lease:  lease,
	}
	return res, nil
}

func (t *Transport) feature() *sniff.Feature {
	t.featureOnce.Do(func() {
		if t.Feature == nil {
			t.Feature = sniff.NewFeature(sniff.New(&sniff.Options{Logger: t.Logger}), t.Logger)
		}
	})
	return t.Feature
}

// SniffedType returns the media type sniffed for a response obtained through a Transport
// It returns an empty string if the response was not sniffed
func SniffedType(res *http.Response) string {
	if res == nil {
		return ""
	}
	return res.Header.Get(SniffedTypeHeader)
}

// In-flight response, which implements sniff.Message
type message struct {
	uri string

	lock       sync.Mutex
	sniffer    sniff.Sniffer
	sampleSize int

	body io.Reader
}

func (m *message) AttachSniffer(s sniff.Sniffer, sampleSize int) {
	m.lock.Lock()
	m.sniffer = s
	m.sampleSize = sampleSize
	m.lock.Unlock()
}

func (m *message) DetachSniffer() {
	m.lock.Lock()
	m.sniffer = nil
	m.sampleSize = 0
	m.lock.Unlock()
}

// Buffers the sample from the response's body and invokes the sniffer
// After this returns successfully, m.body replays the full body
func (m *message) sniff(res *http.Response) (sniff.Result, error) {
	m.lock.Lock()
	s := m.sniffer
	size := m.sampleSize
	m.lock.Unlock()

	buf := filetype.NewBuffer(res.Body)
	sample, err := buf.Peek(size)
	if err != nil {
		return sniff.Result{}, err
	}
	m.body = buf.Reader()

	header := res.Header.Get("Content-Type")
	req := sniff.Request{
		Header: header,
		URI:    m.uri,
		Sample: sample,
	}
	req.DeclaredType, req.Params = parseContentType(header)

	return s.Sniff(req), nil
}

// Returns the declared media type and its parameters
// Malformed parameters are dropped but the type is kept, so a declared type is never downgraded to "unknown"
func parseContentType(header string) (string, map[string]string) {
	if header == "" {
		return "", nil
	}
	declared, params, err := mime.ParseMediaType(header)
	switch {
	case err == nil:
		return declared, params
	case errors.Is(err, mime.ErrInvalidMediaParameter) && declared != "":
		return declared, nil
	default:
		return "", nil
	}
}

// Body that releases the lease when closed
type releasingBody struct {
	io.Reader
	closer io.Closer
	lease  *sniff.Lease
}

func (b *releasingBody) Close() error {
	defer b.lease.Release()
	return b.closer.Close()
}
