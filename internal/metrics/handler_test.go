package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestHandler_ServesPrometheusFormat はPrometheusテキスト形式でメトリクスが返ることを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAthleteCreated()
	c.RecordHTTPRequest("GET", "/atletas/", 200, time.Millisecond)

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expected := []string{
		"workoutapi_athletes_created_total",
		"workoutapi_http_requests_total",
		"workoutapi_http_request_duration_seconds",
	}
	for _, name := range expected {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("response should contain %s", name)
		}
	}
}

// TestNopCollector_DoesNotPanic はNopCollectorの全メソッドが安全に呼び出せることを検証する。
func TestNopCollector_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = NopCollector{}

	c.RecordHTTPRequest("GET", "/", 200, time.Second)
	c.RecordAthleteCreated()
	c.RecordAthleteConflict()
	c.RecordAthleteDeleted()
	c.RecordPersistenceFailure("list")
}
