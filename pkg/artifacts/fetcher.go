// Package artifacts fetches circuit artifacts (symbol tables, proving and
// verifying keys, constraint sets) by URI. A "#sha256=<hex>" fragment pins
// the expected content.
package artifacts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

const (
	digestPrefix = "sha256="

	// DefaultMaxBytes bounds a single artifact; proving keys of large
	// circuits run to a few hundred megabytes.
	DefaultMaxBytes int64 = 1 << 30
)

// Source opens the raw content behind one URI scheme.
type Source interface {
	Open(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

type Fetcher struct {
	sources  map[string]Source
	maxBytes int64
	log      *logger.Logger
}

type Option func(*Fetcher)

// WithSource registers src for scheme, replacing any earlier one.
func WithSource(scheme string, src Source) Option {
	return func(f *Fetcher) { f.sources[strings.ToLower(scheme)] = src }
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// NewFetcher serves file and http(s) URIs out of the box. Cloud schemes
// need their source registered.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		sources:  map[string]Source{},
		maxBytes: DefaultMaxBytes,
		log:      logger.New(),
	}
	file := FileSource{}
	web := NewHTTPSource(nil)
	f.sources[""] = file
	f.sources["file"] = file
	f.sources["http"] = web
	f.sources["https"] = web
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch reads the artifact at uri and checks its digest when the uri pins one.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("artifacts: parse %q: %w", uri, err)
	}
	want, err := pinnedDigest(u)
	if err != nil {
		return nil, err
	}
	u.Fragment = ""
	u.RawFragment = ""

	src, ok := f.sources[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("artifacts: no source for scheme %q", u.Scheme)
	}
	rc, err := src.Open(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("artifacts: open %s: %w", u.Redacted(), err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("artifacts: read %s: %w", u.Redacted(), err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("artifacts: %s exceeds %d bytes", u.Redacted(), f.maxBytes)
	}

	if want != nil {
		got := sha256.Sum256(data)
		if !bytes.Equal(got[:], want) {
			return nil, reasoncodes.Newf(reasoncodes.ArtifactDigestMismatch, uri, "got sha256 %s", hex.EncodeToString(got[:]))
		}
	}
	f.log.Debugf("fetched artifact %s (%d bytes)", u.Redacted(), len(data))
	return data, nil
}

func pinnedDigest(u *url.URL) ([]byte, error) {
	if u.Fragment == "" {
		return nil, nil
	}
	if !strings.HasPrefix(u.Fragment, digestPrefix) {
		return nil, fmt.Errorf("artifacts: unsupported fragment %q", u.Fragment)
	}
	raw := strings.TrimPrefix(u.Fragment, digestPrefix)
	d, err := hex.DecodeString(raw)
	if err != nil || len(d) != sha256.Size {
		return nil, fmt.Errorf("artifacts: malformed sha256 digest %q", raw)
	}
	return d, nil
}

// Pin appends the content digest of data to uri.
func Pin(uri string, data []byte) string {
	sum := sha256.Sum256(data)
	return uri + "#" + digestPrefix + hex.EncodeToString(sum[:])
}
