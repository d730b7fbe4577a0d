package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/briefly-bot/briefly/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name: "CF-Connecting-IP takes priority",
			headers: map[string]string{
				"CF-Connecting-IP": "203.0.113.195",
				"X-Forwarded-For":  "192.168.1.1",
				"X-Real-IP":        "10.0.0.1",
			},
			remoteAddr: "172.16.0.1:54321",
			expected:   "203.0.113.195",
		},
		{
			name: "X-Forwarded-For first valid IP",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.178, 203.0.113.195",
				"X-Real-IP":       "192.168.1.1",
			},
			remoteAddr: "10.0.0.1:54321",
			expected:   "198.51.100.178",
		},
		{
			name: "X-Forwarded-For skips invalid entries",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-ip, 203.0.113.195",
			},
			remoteAddr: "10.0.0.1:54321",
			expected:   "203.0.113.195",
		},
		{
			name: "X-Real-IP fallback",
			headers: map[string]string{
				"X-Real-IP": "198.51.100.178",
			},
			remoteAddr: "10.0.0.1:54321",
			expected:   "198.51.100.178",
		},
		{
			name:       "RemoteAddr fallback",
			remoteAddr: "198.51.100.178:54321",
			expected:   "198.51.100.178",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "198.51.100.178",
			expected:   "198.51.100.178",
		},
		{
			name: "spoofed header with garbage ignored",
			headers: map[string]string{
				"CF-Connecting-IP": "<script>alert(1)</script>",
			},
			remoteAddr: "198.51.100.178:54321",
			expected:   "198.51.100.178",
		},
		{
			name: "IPv6 normalized",
			headers: map[string]string{
				"X-Real-IP": "2001:db8::1",
			},
			remoteAddr: "10.0.0.1:54321",
			expected:   "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, clientip.GetIP(req))
		})
	}
}
