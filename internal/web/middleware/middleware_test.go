package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/lister/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
})

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "gamma", http.StatusForbidden},
		{"first key", "alpha", http.StatusOK},
		{"second key", "beta", http.StatusOK},
		{"prefix of a key", "alph", http.StatusForbidden},
	}

	h := APIKeyAuth(cfg)(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"code":"AUTH00`)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth(config.SecurityConfig{})(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrustedRealIP(t *testing.T) {
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-a-cidr"})(okHandler)

	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{
			name:   "trusted proxy with X-Real-IP",
			remote: "10.1.2.3:5000",
			header: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:   "203.0.113.7",
		},
		{
			name:   "trusted single address with X-Forwarded-For chain",
			remote: "192.168.1.5:443",
			header: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:   "198.51.100.2",
		},
		{
			name:   "untrusted client cannot spoof",
			remote: "203.0.113.50:1234",
			header: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:   "203.0.113.50:1234",
		},
		{
			name:   "invalid header value ignored",
			remote: "10.1.2.3:5000",
			header: map[string]string{"X-Real-IP": "garbage"},
			want:   "10.1.2.3:5000",
		},
		{
			name:   "trusted proxy without headers",
			remote: "10.1.2.3:5000",
			want:   "10.1.2.3:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	prefixes := ParsePrefixes([]string{" 10.0.0.0/8 ", "", "::1", "bogus"})

	require.Len(t, prefixes, 2)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "::1/128", prefixes[1].String())
}

func TestLogger_CapturesStatusAndFlushes(t *testing.T) {
	var flushed bool
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("data: x\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
			flushed = true
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ingest/x/progress", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, flushed, "wrapped writer should implement http.Flusher")
	assert.True(t, rec.Flushed)
}
