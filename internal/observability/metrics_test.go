package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	jobmetrics "github.com/salonledger/salonledger/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("reports:warmup").End(nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, `salon_jobs_total{job="reports:warmup",status="success"} 1`) {
		t.Fatalf("expected body to contain salon_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "salon_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "salon_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestSaleRecorded(t *testing.T) {
	metrics := NewMetrics()
	metrics.SaleRecorded("servicio", "Principal", 45000)
	metrics.SaleRecorded("servicio", "Principal", 0)

	body := scrape(t, metrics)
	if !strings.Contains(body, `salon_sales_total{kind="servicio",sede="Principal"} 2`) {
		t.Fatalf("expected two sales, got: %s", body)
	}
	if !strings.Contains(body, `salon_sales_amount_total{kind="servicio",sede="Principal"} 45000`) {
		t.Fatalf("expected sale amount, got: %s", body)
	}

	var nilMetrics *Metrics
	nilMetrics.SaleRecorded("producto", "Norte", 1)
}
