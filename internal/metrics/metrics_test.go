package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReconcile(t *testing.T) {
	m := New()
	m.ObserveReconcile(time.Second, 2, 1, 3, 1, 4, nil)
	m.ObserveReconcile(time.Second, 9, 9, 9, 9, 9, errors.New("offline"))

	if got := testutil.ToFloat64(m.reconcileRuns.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(m.reconcileRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(m.daysPushed); got != 3 {
		t.Errorf("expected 3 pushed days, got %v", got)
	}
	if got := testutil.ToFloat64(m.currentStreak); got != 4 {
		t.Errorf("expected streak gauge 4, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.TaskToggled()
	m.FastingToggled(true, 1)
	m.StaleSave()
	m.PushFailed()
	m.ObserveReconcile(0, 0, 0, 0, 0, 0, nil)
	if err := m.WriteTextfile("ignored"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	h := m.Middleware(func(*http.Request) string { return "/x" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/x", "GET", "418")); got != 1 {
		t.Errorf("expected 1 request recorded, got %v", got)
	}

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ibadah_http_requests_total") {
		t.Errorf("expected exposition to contain request counter, got:\n%s", rec.Body.String())
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.TaskToggled()
	path := filepath.Join(t.TempDir(), "ibadah.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ibadah_task_toggles_total 1") {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}
}
