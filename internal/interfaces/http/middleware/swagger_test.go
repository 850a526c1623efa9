package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		remoteAddr string
		want       int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, "10.0.0.5:4000", http.StatusNotFound},
		{"enabled without allowlist", SwaggerConfig{Enabled: true}, "203.0.113.9:4000", http.StatusOK},
		{"exact ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.5"}}, "10.0.0.5:4000", http.StatusOK},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.20.30.40:4000", http.StatusOK},
		{"outside allowlist", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.5", "192.168.0.0/16"}}, "203.0.113.9:4000", http.StatusForbidden},
		{"malformed entries are ignored", SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip", "10.0.0.0/99"}}, "10.0.0.5:4000", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := serveWith(SwaggerProtection(tt.cfg), req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIPAllowed(t *testing.T) {
	_, lan, _ := net.ParseCIDR("192.168.1.0/24")
	nets := []*net.IPNet{lan}

	assert.True(t, ipAllowed(net.ParseIP("192.168.1.77"), nets))
	assert.False(t, ipAllowed(net.ParseIP("192.168.2.1"), nets))
	assert.False(t, ipAllowed(nil, nets))
	assert.False(t, ipAllowed(net.ParseIP("192.168.1.77"), nil))
}
