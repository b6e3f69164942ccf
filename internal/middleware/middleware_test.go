package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/config"
	"competency-assessment/internal/models"
)

type fakeSessions struct {
	active map[string]bool
	err    error
}

func (f fakeSessions) IsActive(_ context.Context, jti string) (bool, error) {
	return f.active[jti], f.err
}

func newAuthService() *auth.Service {
	return auth.NewService(&config.JWTConfig{Secret: "test-secret-key-for-testing-only", Expiration: time.Hour})
}

func echoIdentity(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r)
		require.True(t, ok)
		token, ok := GetToken(r)
		require.True(t, ok)
		assert.NotEmpty(t, token)
		w.Header().Set("X-User", id.Email+"/"+id.Role)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	authSvc := newAuthService()
	token, jti, _, err := authSvc.GenerateToken(auth.Identity{UserID: 4, TenantID: 1, Email: "jane@example.com", Role: models.RoleEmployee})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		sessions fakeSessions
		status   int
	}{
		{name: "valid", header: "Bearer " + token, sessions: fakeSessions{active: map[string]bool{jti: true}}, status: http.StatusOK},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "logged out", header: "Bearer " + token, sessions: fakeSessions{active: map[string]bool{}}, status: http.StatusUnauthorized},
		{name: "session lookup fails", header: "Bearer " + token, sessions: fakeSessions{err: errors.New("db down")}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(authSvc, tt.sessions)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			m.Authenticate(echoIdentity(t)).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "jane@example.com/employee", rr.Header().Get("X-User"))
			} else {
				assert.Contains(t, rr.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := RequireAnyRole(models.RoleAdmin, models.RoleHR)(ok)

	serve := func(id *auth.Identity) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", nil)
		if id != nil {
			req = req.WithContext(WithIdentity(req.Context(), *id))
		}
		rr := httptest.NewRecorder()
		guarded.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Identity{UserID: 4, Role: models.RoleEmployee}))
	assert.Equal(t, http.StatusNoContent, serve(&auth.Identity{UserID: 2, Role: models.RoleHR}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), auth.Identity{Role: models.RoleAdmin}))
	RequireRole(models.RoleAdmin)(ok).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.NotEqual(t, "<script>", seen, "malformed ids are replaced")
}

func TestCORS(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := NewCORSMiddleware(cfg).Handler(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "300", rr.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 2, Duration: time.Minute})
	defer rl.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":12345"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"), "limits are per client")

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"), "window resets")
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
}

type recordingAudit struct {
	logs []models.AuditLog
}

func (r *recordingAudit) Create(_ context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, *log)
	return nil
}

func TestAuditMiddleware(t *testing.T) {
	store := &recordingAudit{}
	m := NewAuditMiddleware(store)

	status := http.StatusOK
	h := m.Log("logout", "auth")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	req.Header.Set("User-Agent", "test-agent")
	req = req.WithContext(WithIdentity(req.Context(), auth.Identity{UserID: 4, TenantID: 1}))

	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Len(t, store.logs, 1)
	entry := store.logs[0]
	assert.Equal(t, uint(1), entry.TenantID)
	assert.Equal(t, uint(4), *entry.UserID)
	assert.Equal(t, "192.0.2.1", entry.IPAddress)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.Equal(t, "POST /api/v1/auth/logout", entry.Details)

	status = http.StatusBadRequest
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, store.logs, 1, "failed requests are not recorded")
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { order = append(order, "handler") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestLoggingKeepsStatus(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "short and stout", rr.Body.String())
}
