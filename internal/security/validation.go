// Package security provides input validation helpers for remote and compressed images.
package security

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// ValidateHTTPURL validates an HTTP(S) URL for safe downloads.
// Only allows HTTPS from non-local hosts.
func ValidateHTTPURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	// Parse the URL
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow HTTPS (not HTTP)
	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("only HTTPS URLs are allowed (got %s)", parsed.Scheme)
	}

	// Require a host
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	// Block localhost and private IPs to prevent SSRF
	host := strings.ToLower(parsed.Hostname())
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("URL cannot point to local or private hosts: %s", host)
	}

	return nil
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// It bounds how much a compressed image may expand to.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		// At the limit: only an error if the stream has more to give.
		var peek [1]byte
		n, err := l.R.Read(peek[:])
		if n == 0 && err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("decompression size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}

// cgnat is the shared address space from RFC 6598.
var cgnat = &net.IPNet{IP: net.IPv4(100, 64, 0, 0).To4(), Mask: net.CIDRMask(10, 32)}

// isLocalOrPrivateHost checks if a hostname is localhost or a non-public IP literal.
func isLocalOrPrivateHost(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return false
	}
	return IsBlockedIP(ip)
}

// IsBlockedIP reports whether ip is loopback, private, link-local, unspecified or CGNAT.
// IPv4-mapped IPv6 addresses are checked as IPv4.
func IsBlockedIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		cgnat.Contains(ip)
}
