package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"filebox-backend/internal/auth"
	"filebox-backend/internal/models"
	"filebox-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Signup role policies.
const (
	// SignupRoleRestricted stores every self-service signup as a plain user.
	SignupRoleRestricted = "restricted"
	// SignupRoleOpen stores the role posted by the signup form as-is.
	SignupRoleOpen = "open"
)

// Plain-text bodies shown to the browser.
const (
	msgDuplicateUsername  = "Username already exists. Please choose another."
	msgInvalidCredentials = "Invalid username or password"
	msgAccessDenied       = "Access denied. You can only delete your own files."
	msgInvalidFilename    = "Invalid file name."
	msgInternal           = "Internal server error"
)

// Options tunes the HTTP layer
type Options struct {
	SignupRolePolicy   string
	CookieSecure       bool
	SessionTTL         time.Duration
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
}

// Handler holds the dependencies of the HTTP handlers
type Handler struct {
	userService *service.UserService
	fileService *service.FileService
	sessions    auth.SessionStore
	views       *views
	log         logrus.FieldLogger
	opts        Options
}

// NewHandler creates a Handler
func NewHandler(
	userSvc *service.UserService,
	fileSvc *service.FileService,
	sessions auth.SessionStore,
	log logrus.FieldLogger,
	opts Options,
) *Handler {
	if opts.SignupRolePolicy == "" {
		opts.SignupRolePolicy = SignupRoleRestricted
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{
		userService: userSvc,
		fileService: fileSvc,
		sessions:    sessions,
		views:       newViews(),
		log:         log,
		opts:        opts,
	}
}

// === Response helpers ===

func (h *Handler) respondWithText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	io.WriteString(w, message)
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).Error("failed to encode JSON")
		h.respondWithText(w, http.StatusInternalServerError, msgInternal)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	h.respondWithText(w, http.StatusInternalServerError, msgInternal)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	if session := sessionFromContext(r.Context()); session != nil {
		data.Username = session.Username
		data.Role = session.Role
		data.IsAdmin = session.IsAdmin()
	}
	page, err := h.views.execute(name, data)
	if err != nil {
		h.respondInternal(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := page.WriteTo(w); err != nil {
		// headers are already sent
		h.log.WithError(err).WithField("view", name).Warn("failed to write page")
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// urlParam returns a decoded route parameter. chi matches on the raw path
// when the request carried escapes such as %2F.
func urlParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// === Pages ===

// handleIndex (GET /)
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, "index", pageData{})
}

// handleSignupForm (GET /signup)
func (h *Handler) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup", pageData{
		Title:           "Sign up",
		AllowRoleChoice: h.opts.SignupRolePolicy == SignupRoleOpen,
	})
}

// handleLoginForm (GET /login)
func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", pageData{Title: "Log in"})
}

// === Accounts ===

// handleSignup (POST /signup)
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondWithText(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	role := r.PostForm.Get("role")
	if h.opts.SignupRolePolicy != SignupRoleOpen {
		role = models.RoleUser
	}

	_, err := h.userService.Register(r.Context(), username, password, role)
	switch {
	case err == nil:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, service.ErrDuplicateUsername):
		h.respondWithText(w, http.StatusConflict, msgDuplicateUsername)
	case errors.Is(err, service.ErrInvalidInput):
		h.respondWithText(w, http.StatusBadRequest, "Username and password are required; usernames may not contain slashes.")
	default:
		h.respondInternal(w, r, err)
	}
}

// handleLogin (POST /login)
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondWithText(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	user, err := h.userService.Verify(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.respondWithText(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		h.respondInternal(w, r, err)
		return
	}

	// drop any session the client was still holding
	if old := sessionFromContext(r.Context()); old != nil {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			_ = h.sessions.Destroy(r.Context(), cookie.Value)
		}
	}

	token, err := h.sessions.Create(r.Context(), user.Username, user.Role)
	if err != nil {
		h.respondInternal(w, r, err)
		return
	}
	h.setSessionCookie(w, token)
	h.log.WithField("username", user.Username).Info("user logged in")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleLogout (GET /logout)
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.log.WithError(err).Warn("failed to destroy session")
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// === Files ===

// handleDashboard (GET /dashboard)
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	entries, err := h.fileService.List(r.Context(), session)
	if err != nil {
		h.respondInternal(w, r, err)
		return
	}

	h.render(w, r, "dashboard", pageData{
		Title: "Dashboard",
		Files: newFileViews(entries, session.IsAdmin()),
	})
}

// handleUpload (POST /upload)
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// no file selected: nothing to store
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		case errors.As(err, &tooLarge):
			h.respondWithText(w, http.StatusRequestEntityTooLarge, "File too large.")
		default:
			h.respondWithText(w, http.StatusBadRequest, "Invalid upload.")
		}
		return
	}
	defer file.Close()

	if _, err := h.fileService.Store(r.Context(), session, header.Filename, file); err != nil {
		if errors.Is(err, service.ErrInvalidFilename) {
			h.respondWithText(w, http.StatusBadRequest, msgInvalidFilename)
			return
		}
		h.respondInternal(w, r, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDelete (POST /delete/{owner}/{filename})
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	owner, err1 := urlParam(r, "owner")
	filename, err2 := urlParam(r, "filename")
	if err1 != nil || err2 != nil {
		h.respondWithText(w, http.StatusBadRequest, msgInvalidFilename)
		return
	}

	err := h.fileService.Delete(r.Context(), session, owner, filename)
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, service.ErrAccessDenied):
		h.respondWithText(w, http.StatusForbidden, msgAccessDenied)
	case errors.Is(err, service.ErrInvalidFilename):
		h.respondWithText(w, http.StatusBadRequest, msgInvalidFilename)
	default:
		h.respondInternal(w, r, err)
	}
}

// handleDownload (GET /uploads/{owner}/{filename})
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	owner, err1 := urlParam(r, "owner")
	filename, err2 := urlParam(r, "filename")
	if err1 != nil || err2 != nil {
		http.NotFound(w, r)
		return
	}

	obj, err := h.fileService.Fetch(r.Context(), sessionFromContext(r.Context()), owner, filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		case errors.Is(err, service.ErrAccessDenied):
			h.respondWithText(w, http.StatusForbidden, "Access denied.")
		case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidFilename):
			http.NotFound(w, r)
		default:
			h.respondInternal(w, r, err)
		}
		return
	}
	defer obj.Body.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, filename, obj.ModifiedAt, rs)
		return
	}

	if !obj.ModifiedAt.IsZero() {
		w.Header().Set("Last-Modified", obj.ModifiedAt.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"owner": owner, "file": filename}).Warn("download interrupted")
	}
}

// handleHealth (GET /healthz)
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
