package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5000", nil, "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"trusted proxy garbage header", "127.0.0.1:5000", map[string]string{"X-Forwarded-For": "nonsense"}, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	m := &securityMetrics{}
	assert.False(t, detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/summary", nil), m))
	assert.True(t, detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.env", nil), m))

	r := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	r.Header.Set("User-Agent", "sqlmap/1.7")
	assert.True(t, detectSuspiciousRequest(r, m))
	assert.EqualValues(t, 2, m.snapshot().SuspiciousRequests)
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2)
	defer rl.stop()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a", nil))
	assert.True(t, rl.allow("a", nil))
	assert.False(t, rl.allow("a", nil))
	assert.True(t, rl.allow("b", nil), "clients are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a", nil), "new window")

	now = now.Add(11 * time.Minute)
	assert.Equal(t, 2, rl.cleanupStaleEntries())
	assert.Equal(t, 0, rl.activeClients())
}

func TestParseIntParam(t *testing.T) {
	n, ok := parseIntParam("", 7, 366)
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	n, ok = parseIntParam(" 14 ", 7, 366)
	assert.True(t, ok)
	assert.Equal(t, 14, n)
	_, ok = parseIntParam("-1", 7, 366)
	assert.False(t, ok)
	assert.Equal(t, "a\tb", sanitizeInput(" a\tb\x00 "))
}
