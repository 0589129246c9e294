package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"writerid-portal/internal/config"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", "HS256", time.Hour)
	userID := uuid.New()
	token, err := jwtManager.GenerateToken(userID, "a@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtManager), func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, id.String())
	})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Token " + token, http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := serve(r, req)
		if w.Code != tc.want {
			t.Errorf("header %q: status %d, want %d", tc.header, w.Code, tc.want)
		}
		if tc.want == http.StatusOK && w.Body.String() != userID.String() {
			t.Errorf("user id = %q", w.Body.String())
		}
	}
}

func TestAPIKeyAuth(t *testing.T) {
	r := gin.New()
	r.GET("/status", APIKeyAuth("X-API-Key", "k3y"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for key, want := range map[string]int{
		"":      http.StatusUnauthorized,
		"wrong": http.StatusUnauthorized,
		"k3y":   http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		if w := serve(r, req); w.Code != want {
			t.Errorf("key %q: status %d, want %d", key, w.Code, want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		Origins:      []string{"http://localhost:3000"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Authorization"},
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Fatalf("allow methods = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin allowed")
	}
}
