package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/salonledger/salonledger/internal/auth"
	"github.com/salonledger/salonledger/internal/catalog"
	"github.com/salonledger/salonledger/internal/shared"
	_ "github.com/salonledger/salonledger/testing"
)

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
	service  *auth.Service
}

// newHarness mounts the auth routes behind a minimal session-loading middleware.
func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	service := auth.NewService(auth.NewRepository(catalog.NewMemoryStore()), "admin")
	handler := auth.NewHandler(nil, service, sessions)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			ctx := shared.ContextWithSession(req.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			if err := sessions.Commit(ctx, w, req, sess); err != nil {
				t.Fatalf("commit session: %v", err)
			}
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	handler.MountRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)
		r.Route("/api", handler.MountUserRoutes)
	})
	return &harness{router: r, sessions: sessions, service: service}
}

func (h *harness) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T, username, password string) []*http.Cookie {
	t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", username, rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "error" || body["message"] != "Usuario o contraseña incorrectos" {
		t.Fatalf("unexpected body %v", body)
	}

	form := url.Values{"username": {"admin"}, "password": {"nope"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = h.do(req, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for form login, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Usuario o contraseña incorrectos") {
		t.Fatalf("expected error message in response")
	}
}

func TestAPIRequiresSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/users", nil), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != auth.SessionExpiredMessage {
		t.Fatalf("unexpected message")
	}
}

func TestUserManagement(t *testing.T) {
	h := newHarness(t)
	cookies := h.login(t, "admin", "admin")

	add := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"caja","password":"s3creta"}`))
	rec := h.do(add, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("add user: %d %s", rec.Code, rec.Body.String())
	}

	dup := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"caja","password":"x"}`))
	if rec := h.do(dup, cookies); rec.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", rec.Code)
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/users", nil), cookies)
	data, _ := decode(t, rec)["data"].([]any)
	if len(data) != 2 || data[0] != "admin" || data[1] != "caja" {
		t.Fatalf("unexpected users %v", data)
	}

	delAdmin := httptest.NewRequest(http.MethodDelete, "/api/users", strings.NewReader(`{"username":"admin"}`))
	if rec := h.do(delAdmin, cookies); rec.Code != http.StatusForbidden {
		t.Fatalf("expected admin delete to be forbidden, got %d", rec.Code)
	}

	cajaCookies := h.login(t, "caja", "s3creta")
	delSelf := httptest.NewRequest(http.MethodDelete, "/api/users", strings.NewReader(`{"username":"caja"}`))
	rec = h.do(delSelf, cajaCookies)
	if rec.Code != http.StatusForbidden || decode(t, rec)["message"] != "No puedes eliminar tu propio usuario" {
		t.Fatalf("expected self delete to be forbidden, got %d", rec.Code)
	}

	delCaja := httptest.NewRequest(http.MethodDelete, "/api/users", strings.NewReader(`{"username":"caja"}`))
	if rec := h.do(delCaja, cookies); rec.Code != http.StatusOK {
		t.Fatalf("delete user: %d", rec.Code)
	}
	if err := h.service.Authenticate(context.Background(), "caja", "s3creta"); !auth.IsInvalidCredentials(err) {
		t.Fatalf("expected deleted user to be rejected, got %v", err)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newHarness(t)
	cookies := h.login(t, "admin", "admin")

	rec := h.do(httptest.NewRequest(http.MethodGet, "/logout", nil), cookies)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/users", nil), cookies)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}
