package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rtx-client/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type staticStatus struct{ status auth.Status }

func (s staticStatus) Status() auth.Status { return s.status }

func guardedRouter(status auth.Status) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	guard := SessionGuard(staticStatus{status: status})
	r.GET("/mapa", guard, func(c *gin.Context) { c.String(http.StatusOK, "mapa") })
	r.GET("/api/points", guard, func(c *gin.Context) { c.String(http.StatusOK, "points") })
	r.GET("/ws", guard, func(c *gin.Context) { c.String(http.StatusOK, "ws") })
	return r
}

func TestSessionGuard_AuthenticatedPasses(t *testing.T) {
	r := guardedRouter(auth.StatusAuthenticated)
	for _, path := range []string{"/mapa", "/api/points", "/ws"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestSessionGuard_PageRequestRedirectsToLogin(t *testing.T) {
	r := guardedRouter(auth.StatusAnonymous)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mapa", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestSessionGuard_APIRequestGets401(t *testing.T) {
	for _, path := range []string{"/api/points", "/ws"} {
		r := guardedRouter(auth.StatusAnonymous)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestSessionGuard_ExpiredTreatedAsUnauthenticated(t *testing.T) {
	r := guardedRouter(auth.StatusExpired)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mapa", nil))
	if w.Code != http.StatusFound {
		t.Errorf("expected 302 for expired session, got %d", w.Code)
	}
}
