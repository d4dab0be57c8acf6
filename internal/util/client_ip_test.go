package util

import (
	"net/http/httptest"
	"testing"
)

func TestNewTrustedProxies(t *testing.T) {
	if tp, err := NewTrustedProxies(nil); err != nil || tp != nil {
		t.Fatalf("empty list: got %v, %v; want nil, nil", tp, err)
	}
	if _, err := NewTrustedProxies([]string{"10.0.0.0/8", "2001:db8::/32", "192.168.1.1"}); err != nil {
		t.Fatalf("valid entries rejected: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("invalid entry accepted")
	}
}

func TestClientIP(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("trusted proxies: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		trusted    *TrustedProxies
		want       string
	}{
		{
			name:       "untrusted peer keeps its own address",
			remoteAddr: "198.51.100.9:4411",
			xff:        "203.0.113.50",
			want:       "198.51.100.9",
		},
		{
			name:       "trusted peer yields forwarded client",
			remoteAddr: "10.1.2.3:4411",
			xff:        "203.0.113.50",
			trusted:    trusted,
			want:       "203.0.113.50",
		},
		{
			name:       "chain stops at first untrusted hop from the right",
			remoteAddr: "10.1.2.3:4411",
			xff:        "203.0.113.50, 10.9.9.9",
			trusted:    trusted,
			want:       "203.0.113.50",
		},
		{
			name:       "garbage xff falls back to x-real-ip",
			remoteAddr: "10.1.2.3:4411",
			xff:        "banana",
			realIP:     "203.0.113.51",
			trusted:    trusted,
			want:       "203.0.113.51",
		},
		{
			name:       "fully trusted chain returns leftmost hop",
			remoteAddr: "10.1.2.3:4411",
			xff:        "10.5.5.5, 10.6.6.6",
			trusted:    trusted,
			want:       "10.5.5.5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
