package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("reminder_sweep").End(nil))
	err := errors.New("boom")
	assert.Equal(t, err, m.Track("reminder_sweep").End(err))

	body := scrape(t, reg)
	assert.Contains(t, body, `invoicepro_jobs_total{status="success",task="reminder_sweep"} 1`)
	assert.Contains(t, body, `invoicepro_jobs_total{status="failure",task="reminder_sweep"} 1`)
	assert.Contains(t, body, `invoicepro_jobs_failures_total{task="reminder_sweep"} 1`)
	assert.Contains(t, body, `invoicepro_job_duration_seconds_count{task="reminder_sweep"} 2`)
}

func TestAddReminders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddReminders(OutcomeSent, 3)
	m.AddReminders(OutcomeSkipped, 0)

	body := scrape(t, reg)
	assert.Contains(t, body, `invoicepro_reminders_total{outcome="sent"} 3`)
	assert.NotContains(t, body, `outcome="skipped"`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddReminders(OutcomeSent, 1)
	assert.NoError(t, m.Track("noop").End(nil))
}
