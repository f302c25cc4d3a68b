package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"real ip wins", "10.0.0.1", "10.0.0.2", "10.0.0.3:1234", "10.0.0.1"},
		{"single forwarded hop", "", "203.0.113.7", "10.0.0.3:1234", "203.0.113.7"},
		{"multi-hop forwarded keeps first", "", "203.0.113.7, 70.41.3.18, 150.172.238.178", "10.0.0.3:1234", "203.0.113.7"},
		{"forwarded with port", "", "203.0.113.7:4711", "10.0.0.3:1234", "203.0.113.7"},
		{"remote addr fallback", "", "", "192.0.2.9:5555", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/api/probes", nil)
			c.Request.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				c.Request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(c); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
