package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
)

type stubAuth struct {
	tokens map[string]*models.Identity
	err    error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	return nil, apperror.Auth("Invalid or expired token")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	id, ok := UserID(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, id.String()+"|"+Token(c))
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"bearer":       {header: "Bearer abc", token: "abc", ok: true},
		"lowercase":    {header: "bearer abc", token: "abc", ok: true},
		"empty token":  {header: "Bearer ", ok: false},
		"wrong scheme": {header: "Basic abc", ok: false},
		"no scheme":    {header: "abc", ok: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			token, ok := bearerToken(tc.header)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.token, token)
		})
	}
}

func TestJWT(t *testing.T) {
	userID := uuid.New()
	authn := stubAuth{tokens: map[string]*models.Identity{"good": {UserID: userID, Email: "a@example.com"}}}
	r := gin.New()
	r.GET("/me", JWT(authn, zaptest.NewLogger(t)), whoami)

	w := serve(r, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "No authorization header provided")

	w = serve(r, http.MethodGet, "/me", "Token good")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "No token provided")

	w = serve(r, http.MethodGet, "/me", "Bearer bad")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "Invalid or expired token")

	w = serve(r, http.MethodGet, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userID.String()+"|good", w.Body.String())
}

func TestJWTInternalError(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(stubAuth{err: errors.New("db down")}, zaptest.NewLogger(t)), whoami)

	w := serve(r, http.MethodGet, "/me", "Bearer good")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Authentication error")
}

func TestOptionalAuth(t *testing.T) {
	userID := uuid.New()
	authn := stubAuth{tokens: map[string]*models.Identity{"good": {UserID: userID}}}
	r := gin.New()
	r.GET("/me", OptionalAuth(authn), whoami)

	require.Equal(t, "anonymous", serve(r, http.MethodGet, "/me", "").Body.String())
	require.Equal(t, "anonymous", serve(r, http.MethodGet, "/me", "Bearer bad").Body.String())
	require.Equal(t, userID.String()+"|good", serve(r, http.MethodGet, "/me", "Bearer good").Body.String())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSWildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/ping", "")
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
