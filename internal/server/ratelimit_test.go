package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKeyBuckets(t *testing.T) {
	rl := NewRateLimiter(60, time.Minute, 2, testLogger)
	defer rl.Close()

	assert.True(t, rl.Allow("ip:1.1.1.1"))
	assert.True(t, rl.Allow("ip:1.1.1.1"))
	assert.False(t, rl.Allow("ip:1.1.1.1"))
	assert.True(t, rl.Allow("ip:2.2.2.2"))

	stats := rl.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 2, stats["burst_capacity"])
	assert.InDelta(t, 60.0, stats["rate_per_minute"], 0.001)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, time.Hour, 1, testLogger)
	defer rl.Close()

	rl.Allow("ip:1.1.1.1")
	time.Sleep(5 * time.Millisecond)
	rl.cleanup(time.Millisecond)

	assert.Equal(t, 0, rl.GetStats()["active_limiters"])
	rl.Close()
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1"},
		{"bearer token", map[string]string{"Authorization": "Bearer k2"}, true, false, "api:k2"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.9"}, false, true, "ip:203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, false, true, "ip:198.51.100.4"},
		{"disabled", map[string]string{"X-API-Key": "k1"}, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = "192.0.2.1:4321"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(req, tt.byAPIKey, tt.byIP))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
