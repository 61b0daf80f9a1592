package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveRequest("/api/v1/chat", http.MethodPost, 200, 10*time.Millisecond)
	m.ObserveAnalysis("items", "ok", false, time.Millisecond)
	m.ObserveAnalysis("items", "ok", true, 0)
	m.ObserveUpload("csv", "success")
	m.ObserveChat("success", 40, 8)

	body := scrape(t, m)
	assert.Contains(t, body, `feedback_analytics_http_requests_total{method="POST",route="/api/v1/chat",status="200"} 1`)
	assert.Contains(t, body, `feedback_analytics_analyses_total{cached="true",kind="items",outcome="ok"} 1`)
	assert.Contains(t, body, `feedback_analytics_analysis_duration_seconds_count{kind="items"} 1`)
	assert.Contains(t, body, `feedback_analytics_dataset_uploads_total{format="csv",outcome="success"} 1`)
	assert.Contains(t, body, `feedback_analytics_chat_tokens_total{direction="input"} 40`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/", "GET", 200, time.Second)
		m.ObserveAnalysis("items", "ok", false, time.Second)
		m.ObserveUpload("csv", "error")
		m.ObserveChat("error", 0, 0)
	})
}
