package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "channel-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestServer() *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "calbrief_test_total", Help: "test"}))
	return New(Config{ChannelSecret: secret, Gatherer: reg})
}

func TestCallback(t *testing.T) {
	body := `{"destination":"Uabcdef","events":[]}`

	tests := []struct {
		name      string
		signature string
		want      int
	}{
		{name: "valid signature", signature: sign(body), want: http.StatusOK},
		{name: "wrong signature", signature: sign(body + " "), want: http.StatusBadRequest},
		{name: "missing signature", signature: "", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set("X-Line-Signature", tt.signature)
			}
			rec := httptest.NewRecorder()
			newTestServer().Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCallbackRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "calbrief_test_total 0")
}

func TestShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, newTestServer().Shutdown(t.Context()))
}

func TestStartAfterShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", ChannelSecret: secret})
	require.NoError(t, s.Shutdown(t.Context()))
	assert.NoError(t, s.Start())
}
