package phishing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozran/cmd/internal/mail"
	"ozran/cmd/internal/metrics"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type failingClicks struct{}

func (failingClicks) RecordClick(context.Context, Click) (Click, error) {
	return Click{}, errors.New("db down")
}

func testConfig() Config {
	return Config{
		PublicBaseURL: "https://ozran.net/",
		TrainingURL:   "https://training.example.com",
		AlertEmail:    "alerts@example.com",
	}
}

func newTestService(t *testing.T, sender mail.Sender, clicks ClickStore) *Service {
	t.Helper()
	svc, err := NewService(nil, testConfig(), sender, clicks, metrics.New())
	require.NoError(t, err)
	return svc
}

func TestSendTest(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(t, sender, NewMemoryClickStore())

	err := svc.SendTest(context.Background(), SendTestInput{TesterEmail: "tester@example.com", TestEmail: "target+1@example.com"})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "target+1@example.com", msg.To)
	assert.Equal(t, "Security Alert - Action Required", msg.Subject)
	assert.Contains(t, msg.HTML, "Outlook Security Notice")
	assert.Contains(t, msg.HTML, "https://ozran.net/api/track-click?email=target%2B1%40example.com")
}

func TestSendTest_Validation(t *testing.T) {
	svc := newTestService(t, &recordingSender{}, NewMemoryClickStore())

	err := svc.SendTest(context.Background(), SendTestInput{TesterEmail: "tester@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.SendTest(context.Background(), SendTestInput{TesterEmail: "tester@example.com", TestEmail: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSendTest_SenderFailure(t *testing.T) {
	svc := newTestService(t, &recordingSender{err: errors.New("smtp down")}, NewMemoryClickStore())

	err := svc.SendTest(context.Background(), SendTestInput{TesterEmail: "tester@example.com", TestEmail: "t@example.com"})
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestTrackClick_RecordsAndAlerts(t *testing.T) {
	sender := &recordingSender{}
	clicks := NewMemoryClickStore()
	svc := newTestService(t, sender, clicks)

	err := svc.TrackClick(context.Background(), Click{Email: "victim@example.com", UserAgent: "ua"})
	require.NoError(t, err)

	got := clicks.Clicks()
	require.Len(t, got, 1)
	assert.Equal(t, "victim@example.com", got[0].Email)
	assert.Len(t, got[0].ID, 36)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "alerts@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Text, "The user victim@example.com clicked the phishing link at ")
}

func TestTrackClick_StoreFailureStillAlerts(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(t, sender, failingClicks{})

	err := svc.TrackClick(context.Background(), Click{Email: "victim@example.com"})
	assert.Error(t, err)
	assert.Len(t, sender.sent, 1)
}

func TestHandler_TrackClick(t *testing.T) {
	clicks := NewMemoryClickStore()
	svc := newTestService(t, &recordingSender{}, clicks)
	mux := http.NewServeMux()
	NewHandler(nil, svc, true).Register(mux, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/track-click?email=victim%40example.com", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://training.example.com", rec.Header().Get("Location"))
	require.Len(t, clicks.Clicks(), 1)
	assert.Equal(t, "203.0.113.7", clicks.Clicks()[0].IP.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track-click", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request", strings.TrimSpace(rec.Body.String()))
}

func TestHandler_TrackClick_RedirectsEvenOnFailure(t *testing.T) {
	svc := newTestService(t, &recordingSender{err: errors.New("down")}, failingClicks{})
	mux := http.NewServeMux()
	NewHandler(nil, svc, false).Register(mux, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track-click?email=a%40b.co", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestHandler_SendTest(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(t, sender, NewMemoryClickStore())
	mux := http.NewServeMux()

	denyAll := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	NewHandler(nil, svc, false).Register(mux, denyAll)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-test-email",
		strings.NewReader(`{"testerEmail":"t@example.com","testEmail":"v@example.com"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sender.sent)

	open := http.NewServeMux()
	NewHandler(nil, svc, false).Register(open, nil)

	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-test-email",
		strings.NewReader(`{"testerEmail":"t@example.com","testEmail":"v@example.com"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Test email sent!"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-test-email",
		strings.NewReader(`{"testerEmail":"t@example.com"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Both emails are required.")
}

func TestHandler_SendTestUsesSessionTester(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(t, sender, NewMemoryClickStore())

	type ctxKey struct{}
	signedIn := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, "alice@example.com")))
		})
	}
	identity := WithTesterIdentity(func(ctx context.Context) (string, bool) {
		email, ok := ctx.Value(ctxKey{}).(string)
		return email, ok
	})

	mux := http.NewServeMux()
	NewHandler(nil, svc, false, identity).Register(mux, signedIn)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-test-email",
		strings.NewReader(`{"testEmail":"v@example.com"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "v@example.com", sender.sent[0].To)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-test-email",
		strings.NewReader(`{"testerEmail":"mallory@example.com"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Both emails are required.")
}

func TestNewService_RequiresURLs(t *testing.T) {
	_, err := NewService(nil, Config{}, &recordingSender{}, NewMemoryClickStore(), nil)
	assert.Error(t, err)
}
