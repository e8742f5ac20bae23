package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	// 同じレジストリへの二重登録はpanicする
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

func TestCollector_RecordLogin_ByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultInvalidCredentials)

	if got := testutil.ToFloat64(c.logins.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("logins{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.logins.WithLabelValues(ResultInvalidCredentials)); got != 1 {
		t.Errorf("logins{invalid_credentials} = %v, want 1", got)
	}
}

func TestCollector_SessionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionCreated()
	c.RecordSessionRenewed()
	c.RecordSessionRenewed()
	c.RecordSessionExpired()
	c.RecordSessionInvalidated()
	c.RecordSessionsCleaned(7)

	cases := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"created", c.sessionsCreated, 1},
		{"renewed", c.sessionsRenewed, 2},
		{"expired", c.sessionsExpired, 1},
		{"invalidated", c.sessionsInvalidated, 1},
		{"cleaned", c.sessionsCleaned, 7},
	}
	for _, tc := range cases {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRegistration(ResultSuccess)
	c.RecordHTTPStatus(http.StatusCreated)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)
	if !strings.Contains(bodyStr, `ecommerce_auth_registrations_total{result="success"} 1`) {
		t.Error("response should contain ecommerce_auth_registrations_total metric")
	}
	if !strings.Contains(bodyStr, `ecommerce_http_status_total{status_code="201"} 1`) {
		t.Error("response should contain ecommerce_http_status_total metric")
	}
}
