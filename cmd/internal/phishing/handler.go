package phishing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"ozran/cmd/internal/clientip"
	"ozran/cmd/internal/httpjson"
)

type sendTestRequest struct {
	TesterEmail string `json:"testerEmail"`
	TestEmail   string `json:"testEmail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Handler exposes the simulation over HTTP.
type Handler struct {
	log        *slog.Logger
	svc        *Service
	trustProxy bool
	tester     func(ctx context.Context) (string, bool)
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTesterIdentity resolves the signed-in tester's email from the request context.
// When it reports an identity, that email replaces any testerEmail sent in the body.
func WithTesterIdentity(fn func(ctx context.Context) (string, bool)) HandlerOption {
	return func(h *Handler) { h.tester = fn }
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, svc *Service, trustProxy bool, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{log: log, svc: svc, trustProxy: trustProxy}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register wires the routes. requireAuth guards the send endpoint.
func (h *Handler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	if h == nil || mux == nil {
		return
	}
	send := http.Handler(http.HandlerFunc(h.handleSendTest))
	if requireAuth != nil {
		send = requireAuth(send)
	}
	mux.Handle("/api/send-test-email", send)
	mux.HandleFunc("/api/track-click", h.handleTrackClick)
}

func (h *Handler) handleSendTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req sendTestRequest
	if err := httpjson.Decode(w, r, httpjson.DefaultMaxBodyBytes, &req); err != nil {
		httpjson.WriteDecodeError(w, err)
		return
	}

	tester := req.TesterEmail
	if h.tester != nil {
		if email, ok := h.tester(r.Context()); ok && email != "" {
			tester = email
		}
	}

	err := h.svc.SendTest(r.Context(), SendTestInput{TesterEmail: tester, TestEmail: req.TestEmail})
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, messageResponse{Message: "Test email sent!"})
	case errors.Is(err, ErrValidation):
		msg := "Both emails are required."
		if tester != "" && req.TestEmail != "" {
			msg = "Invalid email format"
		}
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, msg)
	default:
		h.log.Error("phishing.send.fail", "err", err)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.CodeServerError, "Failed to send email. Check server logs for details.")
	}
}

func (h *Handler) handleTrackClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	// Failures are logged inside TrackClick; the visitor always lands on the training page.
	_ = h.svc.TrackClick(r.Context(), Click{
		Email:     email,
		UserAgent: strings.TrimSpace(r.UserAgent()),
		IP:        clientip.FromRequest(r, h.trustProxy),
	})

	http.Redirect(w, r, h.svc.TrainingURL(), http.StatusFound)
}
