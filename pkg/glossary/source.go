package glossary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	// ErrSourceNotFound means the glossary file or URL does not exist.
	ErrSourceNotFound = errors.New("glossary: source not found")

	// ErrSourceTooLarge means a remote glossary exceeded SourceOptions.MaxBytes.
	ErrSourceTooLarge = errors.New("glossary: source too large")
)

const (
	defaultMaxBytes = 10 * 1024 * 1024
	defaultTimeout  = 30 * time.Second
	userAgent       = "termgraph-cli"
)

// SourceOptions controls how remote glossaries are fetched.
type SourceOptions struct {
	MaxBytes int64
	Timeout  time.Duration
	// Client overrides the HTTP client; its Timeout wins over Timeout.
	Client *http.Client
}

// IsRemote reports whether src is fetched over HTTP rather than read from disk.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open returns a reader for a local path or an http(s) URL.
func Open(ctx context.Context, src string, opts SourceOptions) (io.ReadCloser, error) {
	if IsRemote(src) {
		return fetch(ctx, src, opts)
	}
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return nil, err
	}
	return f, nil
}

func fetch(ctx context.Context, url string, opts SourceOptions) (io.ReadCloser, error) {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: content-length %d exceeds %d bytes", ErrSourceTooLarge, resp.ContentLength, maxBytes)
	}
	// Read one byte past the limit so an exactly-full body is still accepted.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrSourceTooLarge, maxBytes)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
