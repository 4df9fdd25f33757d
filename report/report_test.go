package report

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/reports"
)

// fakeGotenberg records the uploaded HTML and answers with a fixed PDF.
func fakeGotenberg(t *testing.T, status int) (*httptest.Server, *string) {
	t.Helper()
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(status)
		case "/forms/chromium/convert/html":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				return
			}
			file, header, err := r.FormFile("files")
			if err != nil {
				t.Errorf("form file: %v", err)
				return
			}
			defer file.Close()
			if header.Filename != "index.html" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
			body, _ := io.ReadAll(file)
			received = string(body)
			w.WriteHeader(status)
			_, _ = w.Write([]byte("%PDF-1.7 fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

type stubSummaries struct {
	printable reports.Printable
	err       error
}

func (s stubSummaries) Printable(context.Context, string, string) (reports.Printable, error) {
	return s.printable, s.err
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountDownloads(r)
	r.Route("/report", h.MountRoutes)
	return r
}

func TestClientRenderAndPing(t *testing.T) {
	srv, received := fakeGotenberg(t, http.StatusOK)
	client := NewClient(srv.URL + "/")

	require.NoError(t, client.Ping(context.Background()))
	pdf, err := client.RenderHTML(context.Background(), "<p>hola</p>")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7 fake", string(pdf))
	require.Equal(t, "<p>hola</p>", *received)
}

func TestClientReportsFailures(t *testing.T) {
	srv, _ := fakeGotenberg(t, http.StatusServiceUnavailable)
	client := NewClient(srv.URL)
	require.Error(t, client.Ping(context.Background()))
	_, err := client.RenderHTML(context.Background(), "<p></p>")
	require.Error(t, err)
}

func TestExportSummaryPDF(t *testing.T) {
	srv, received := fakeGotenberg(t, http.StatusOK)
	h := NewHandler(NewClient(srv.URL), stubSummaries{printable: reports.Printable{
		Date:   "2025-06-01",
		Branch: "Principal",
		Rows:   []reports.PrintableRow{{Stylist: "Monica", Description: "Tinte rubio", Amount: 100000, Commission: 50000, Kind: "Servicio", PaymentMethod: "Efectivo"}},
	}}, nil)

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export_pdf?date=2025-06-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=Cierre_Principal_2025-06-01.pdf", rec.Header().Get("Content-Disposition"))
	require.Contains(t, *received, "Tinte rubio")
}

func TestExportSummaryQuotesBranchWithSpaces(t *testing.T) {
	srv, _ := fakeGotenberg(t, http.StatusOK)
	h := NewHandler(NewClient(srv.URL), stubSummaries{printable: reports.Printable{
		Date:   "2025-06-01",
		Branch: "Sede Norte",
	}}, nil)

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export_pdf?date=2025-06-01&sede=Sede+Norte", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	disposition := rec.Header().Get("Content-Disposition")
	require.Equal(t, `attachment; filename="Cierre_Sede Norte_2025-06-01.pdf"`, disposition)

	_, params, err := mime.ParseMediaType(disposition)
	require.NoError(t, err)
	require.Equal(t, "Cierre_Sede Norte_2025-06-01.pdf", params["filename"])
}

func TestExportSummaryErrorsArePlainText(t *testing.T) {
	srv, _ := fakeGotenberg(t, http.StatusInternalServerError)
	h := NewHandler(NewClient(srv.URL), stubSummaries{}, nil)
	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export_pdf", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	require.Equal(t, "Error generating PDF\n", rec.Body.String())

	h = NewHandler(NewClient(srv.URL), stubSummaries{err: httpx.Errorf(httpx.ErrValidation, "Fecha inválida: x")}, nil)
	rec = httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export_pdf?date=x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Fecha inválida: x\n", rec.Body.String())
}

func TestCertificateDownload(t *testing.T) {
	srv, received := fakeGotenberg(t, http.StatusOK)
	h := NewHandler(NewClient(srv.URL), stubSummaries{}, nil).WithClock(func() time.Time {
		return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/certificado/descargar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "attachment; filename=Certificado_Propiedad_MagicalHair.pdf", rec.Header().Get("Content-Disposition"))
	require.Contains(t, *received, "5 de Marzo de 2025")
}

func TestPing(t *testing.T) {
	up, _ := fakeGotenberg(t, http.StatusOK)
	rec := httptest.NewRecorder()
	newRouter(NewHandler(NewClient(up.URL), stubSummaries{}, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	down, _ := fakeGotenberg(t, http.StatusServiceUnavailable)
	rec = httptest.NewRecorder()
	newRouter(NewHandler(NewClient(down.URL), stubSummaries{}, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
