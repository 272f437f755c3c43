package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"ozran/cmd/internal/auth"
	"ozran/cmd/internal/auth/session"
	"ozran/cmd/internal/clientip"
	"ozran/cmd/internal/httpjson"
	"ozran/cmd/internal/metrics"
	"ozran/cmd/security/token"
)

// Handler wires HTTP auth endpoints to the auth service.
type Handler struct {
	log     *slog.Logger
	cfg     Config
	svc     *auth.Service
	audit   Auditor
	metrics *metrics.Metrics
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithAuditor overrides the default no-op auditor.
func WithAuditor(a Auditor) HandlerOption {
	return func(h *Handler) {
		if h == nil || a == nil {
			return
		}
		h.audit = a
	}
}

// WithMetrics records auth outcomes on m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil {
			return
		}
		h.metrics = m
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, svc *auth.Service, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("authapi: nil auth service")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:   log,
		cfg:   cfg.withDefaults(),
		svc:   svc,
		audit: NopAuditor{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.HandleFunc("/auth-status", h.handleAuthStatus)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if err := httpjson.Decode(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httpjson.WriteDecodeError(w, err)
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.metrics.AuthEvent("register", outcome(err))
		h.record(r, "auth.register.failed", "", map[string]any{
			"email_fp": h.fingerprint(req.Email),
			"reason":   outcome(err),
		})
		h.writeAuthError(w, r, err)
		return
	}

	h.metrics.AuthEvent("register", "ok")
	h.record(r, "auth.register.success", u.ID, nil)
	httpjson.Write(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := httpjson.Decode(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httpjson.WriteDecodeError(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.metrics.AuthEvent("login", outcome(err))
		h.record(r, "auth.login.failed", "", map[string]any{
			"email_fp": h.fingerprint(req.Email),
			"reason":   outcome(err),
		})
		h.writeAuthError(w, r, err)
		return
	}

	if err := h.setSessionCookie(w, r, res.Token); err != nil {
		h.log.Error("auth.login.cookie.fail", "err", err)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.CodeServerError, auth.MsgInternal)
		return
	}

	h.metrics.AuthEvent("login", "ok")
	h.record(r, "auth.login.success", res.User.ID, nil)
	httpjson.Write(w, http.StatusOK, userResponse{Username: res.User.Username, Email: res.User.Email})
}

// handleLogout always clears the cookie. Tokens are stateless, so nothing is revoked server-side.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.clearSessionCookie(w, r); err != nil {
		h.log.Error("auth.logout.cookie.fail", "err", err)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.CodeServerError, auth.MsgInternal)
		return
	}

	var userID string
	if claim, err := h.svc.AuthStatus(h.sessionTokenFromCookie(r)); err == nil {
		userID = claim.UserID
	}
	h.metrics.AuthEvent("logout", "ok")
	h.record(r, "auth.logout", userID, nil)
	httpjson.Write(w, http.StatusOK, messageResponse{Message: "User logged out successfully"})
}

func (h *Handler) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	claim, err := h.svc.AuthStatus(h.sessionTokenFromCookie(r))
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, authStatusResponse{
		Authenticated: true,
		User:          userResponse{Username: claim.Username, Email: claim.Email},
	})
}

// ---- middleware ----

type claimKey struct{}

// RequireAuth rejects requests without a valid session cookie: 401 when absent, 403 when invalid.
// The verified claim is available to next via ClaimFromContext.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, err := h.svc.AuthStatus(h.sessionTokenFromCookie(r))
		if err != nil {
			h.writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimKey{}, claim)))
	})
}

// ClaimFromContext returns the claim stored by RequireAuth.
func ClaimFromContext(ctx context.Context) (session.Claim, bool) {
	c, ok := ctx.Value(claimKey{}).(session.Claim)
	return c, ok
}

// ---- helpers ----

// writeAuthError maps a service error kind to its status and code. Causes are logged, never returned.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	msg := auth.MsgInternal
	var ae *auth.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("auth.request.fail", "path", r.URL.Path, "code", code, "err", err)
	} else {
		h.log.Debug("auth.request.rejected", "path", r.URL.Path, "code", code)
	}
	httpjson.WriteError(w, status, code, msg)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, "password_mismatch"
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid_credentials"
	case errors.Is(err, auth.ErrDuplicateIdentity):
		return http.StatusBadRequest, "duplicate_identity"
	case errors.Is(err, auth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// outcome is the metric/audit label for err.
func outcome(err error) string {
	_, code := errorStatus(err)
	return code
}

func (h *Handler) record(r *http.Request, action, userID string, meta map[string]any) {
	h.audit.Record(r.Context(), AuditEvent{
		Action:    action,
		UserID:    userID,
		IP:        clientip.FromRequest(r, h.cfg.TrustProxy),
		UserAgent: r.UserAgent(),
		Meta:      meta,
	})
}

// fingerprint keeps raw emails out of audit rows.
func (h *Handler) fingerprint(email *string) string {
	if email == nil || len(h.cfg.FingerprintKey) == 0 {
		return ""
	}
	return token.Fingerprint(strings.TrimSpace(*email), h.cfg.FingerprintKey)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}
