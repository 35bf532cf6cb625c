package security

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://images.example.com/photo.jpg", false},
		{"http://images.example.com/photo.jpg", true},
		{"https://localhost/a.png", true},
		{"https://192.168.1.4/a.png", true},
		{"https://172.20.0.1/a.png", true},
		{"https://127.0.0.2/a.png", true},
		{"https://0.0.0.0/a.png", true},
		{"https://[::ffff:127.0.0.1]/a.png", true},
		{"https://[fd12::1]/a.png", true},
		{"https://[fe80::1]/a.png", true},
		{"https://100.64.0.1/a.png", true},
		{"https://169.254.169.254/latest", true},
		{"https://localhost./a.png", true},
		{"https://img.localhost/a.png", true},
		{"https://100.128.0.1/a.png", false},
		{"https://8.8.8.8/a.png", false},
		{"https://[2606:4700::1111]/a.png", false},
		{"https:///a.png", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestLimitedReader(t *testing.T) {
	r := NewLimitedReader(strings.NewReader("0123456789"), 4)
	data, err := io.ReadAll(r)
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Errorf("expected size limit error, got %v", err)
	}
	if !bytes.Equal(data, []byte("0123")) {
		t.Errorf("read %q before limit, want %q", data, "0123")
	}

	ok := NewLimitedReader(strings.NewReader("abc"), 10)
	data, err = io.ReadAll(ok)
	if err != nil || string(data) != "abc" {
		t.Errorf("ReadAll = %q, %v", data, err)
	}
}

func TestLimitedReaderExactLimit(t *testing.T) {
	r := NewLimitedReader(strings.NewReader("0123"), 4)
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("stream of exactly the limit should end cleanly, got %v", err)
	}
	if string(data) != "0123" {
		t.Errorf("ReadAll = %q, want %q", data, "0123")
	}

	over := NewLimitedReader(strings.NewReader("01234"), 4)
	data, err = io.ReadAll(over)
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Errorf("expected size limit error one byte over, got %v", err)
	}
	if string(data) != "0123" {
		t.Errorf("read %q before limit, want %q", data, "0123")
	}
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"::ffff:192.168.0.1", true},
		{"100.127.255.255", true},
		{"fc00::5", true},
		{"1.1.1.1", false},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := IsBlockedIP(net.ParseIP(tt.ip)); got != tt.blocked {
				t.Errorf("IsBlockedIP(%s) = %v, want %v", tt.ip, got, tt.blocked)
			}
		})
	}
}
