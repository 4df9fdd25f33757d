package auth

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/shared"
)

//go:embed templates/login.html
var templateFS embed.FS

var loginTemplate = template.Must(template.ParseFS(templateFS, "templates/login.html"))

const invalidCredentialsMessage = "Usuario o contraseña incorrectos"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	validator      *httpx.Validator
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		validator:      httpx.NewValidator(),
	}
}

// MountRoutes registers the login and logout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Post("/logout", h.handleLogout)
}

// MountUserRoutes registers user management under the /api router.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/users", h.handleListUsers)
	r.Post("/users", h.handleAddUser)
	r.Delete("/users", h.handleDeleteUser)
}

type loginPageData struct {
	Username string
	Error    string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if shared.SessionFromContext(r.Context()).User() != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, http.StatusOK, loginPageData{})
}

func (h *Handler) renderLogin(w http.ResponseWriter, status int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, data); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	asJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	var creds Credentials
	if asJSON {
		if err := httpx.DecodeJSON(r, &creds); err != nil {
			httpx.RespondError(w, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		creds = Credentials{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")}
	}

	err := h.validator.Struct(creds)
	if err == nil {
		err = h.service.Authenticate(r.Context(), creds.Username, creds.Password)
	}
	if err != nil {
		if httpx.Status(err) == http.StatusInternalServerError && !IsInvalidCredentials(err) {
			h.logger.Error("authenticate", slog.Any("error", err))
			if asJSON {
				httpx.RespondError(w, err)
			} else {
				http.Error(w, httpx.GenericFailure, http.StatusInternalServerError)
			}
			return
		}
		if asJSON {
			httpx.Fail(w, http.StatusUnauthorized, invalidCredentialsMessage)
			return
		}
		h.renderLogin(w, http.StatusUnauthorized, loginPageData{Username: creds.Username, Error: invalidCredentialsMessage})
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, httpx.GenericFailure, http.StatusInternalServerError)
		return
	}
	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		h.logger.Warn("renew session", slog.Any("error", err))
	}
	sess.SetUser(creds.Username)
	h.logger.Info("login", slog.String("user", creds.Username))

	if asJSON {
		httpx.Success(w, "Login exitoso", nil)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Users(r.Context())
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": names})
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AddUser(r.Context(), req.Username, req.Password); err != nil {
		h.fail(w, "add user", err)
		return
	}
	httpx.Success(w, "Usuario creado", nil)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current := shared.SessionFromContext(r.Context()).User()
	if err := h.service.DeleteUser(r.Context(), req.Username, current); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	httpx.Success(w, "Usuario eliminado", nil)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.Status(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
