// Package http fetches remote images over HTTP(S).
package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/jmylchreest/kpalette/internal/security"
	"github.com/jmylchreest/kpalette/internal/version"
)

const (
	// UserAgentName is the application name used in the User-Agent header.
	UserAgentName = "kpalette"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps the size of a downloaded body.
	DefaultMaxBytes int64 = 64 * 1024 * 1024

	acceptImages = "image/avif,image/webp,image/png,image/jpeg,image/gif;q=0.9,*/*;q=0.5"
)

// FetchOptions configures HTTP fetch behaviour.
type FetchOptions struct {
	// Timeout is the request timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxBytes limits the body size. Zero means DefaultMaxBytes.
	MaxBytes int64

	// Headers are sent in addition to User-Agent and Accept.
	Headers map[string]string

	// AllowPrivate permits connections to loopback and private addresses.
	AllowPrivate bool
}

// Fetch downloads url and returns the body.
// Non-200 responses and bodies larger than MaxBytes are errors.
func Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	client := &http.Client{Timeout: timeout}
	if !opts.AllowPrivate {
		client.Transport = guardedTransport()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", UserAgentName, version.Version))
	req.Header.Set("Accept", acceptImages)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("response too large: %d bytes (limit %d)", resp.ContentLength, maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxBytes)
	}

	return data, nil
}

// guardedTransport refuses to dial loopback and private addresses, so
// hostnames that resolve to them are blocked as well as IP literals.
func guardedTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			return checkDialAddress(address)
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return transport
}

func checkDialAddress(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("dial address %q is not an IP", address)
	}
	if security.IsBlockedIP(ip) {
		return fmt.Errorf("refusing to connect to local or private address %s", ip)
	}
	return nil
}
