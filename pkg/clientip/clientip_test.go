package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/flagsync/pkg/clientip"
)

func request(headers map[string]string, remoteAddr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	r.RemoteAddr = remoteAddr
	return r
}

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"peer address", nil, "192.0.2.10:4000", "192.0.2.10"},
		{"peer address without port", nil, "192.0.2.10", "192.0.2.10"},
		{"ipv6 peer", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"cloudflare header first", map[string]string{"CF-Connecting-IP": "203.0.113.1", "X-Forwarded-For": "198.51.100.1"}, "10.0.0.1:1", "203.0.113.1"},
		{"first forwarded entry", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "10.0.0.1:1", "198.51.100.1"},
		{"skips invalid forwarded entries", map[string]string{"X-Forwarded-For": "unknown, 198.51.100.7"}, "10.0.0.1:1", "198.51.100.7"},
		{"real ip header", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1", "198.51.100.2"},
		{"invalid header falls through", map[string]string{"CF-Connecting-IP": "not-an-ip"}, "10.0.0.1:1", "10.0.0.1"},
		{"ipv4 mapped ipv6 is unmapped", map[string]string{"X-Real-IP": "::ffff:192.0.2.5"}, "", "192.0.2.5"},
		{"zoned ipv6 rejected", map[string]string{"X-Real-IP": "fe80::1%eth0"}, "10.0.0.1:1", "10.0.0.1"},
		{"nothing valid", nil, "garbage", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, clientip.GetIP(request(tt.headers, tt.remoteAddr)))
		})
	}
}

func TestResolver(t *testing.T) {
	t.Parallel()

	t.Run("only trusted headers", func(t *testing.T) {
		t.Parallel()
		res := clientip.NewResolver(" x-real-ip ", "")
		r := request(map[string]string{"X-Forwarded-For": "198.51.100.1", "X-Real-IP": "198.51.100.2"}, "10.0.0.1:1")
		assert.Equal(t, "198.51.100.2", res.Resolve(r))
	})

	t.Run("no headers trusts peer only", func(t *testing.T) {
		t.Parallel()
		res := clientip.NewResolver()
		r := request(map[string]string{"X-Forwarded-For": "198.51.100.1"}, "10.0.0.1:1")
		assert.Equal(t, "10.0.0.1", res.Resolve(r))
	})
}

func BenchmarkGetIP(b *testing.B) {
	r := request(map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2, 10.0.0.3"}, "10.0.0.1:1")
	for b.Loop() {
		_ = clientip.GetIP(r)
	}
}
