package utils

import (
	"Go_Vault/config"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := GenerateToken(7, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserId != 7 || claims.Email != "alice@example.com" {
		t.Fatalf("claims = %+v", claims)
	}

	config.AppConfig.JWTSecret = "rotated"
	if _, err := VerifyToken(token); err == nil {
		t.Fatal("token signed with old secret should fail")
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "test-secret"
	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentEmail(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header status = %d", w.Code)
	}

	token, _ := GenerateToken(1, "bob", "bob@example.com")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "bob@example.com" {
		t.Fatalf("status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Alice@Example.COM ")
	if err != nil || got != "alice@example.com" {
		t.Fatalf("NormalizeEmail = %q, %v", got, err)
	}
	got, err = NormalizeEmail("bob@bücher.example")
	if err != nil || got != "bob@xn--bcher-kva.example" {
		t.Fatalf("NormalizeEmail idn = %q, %v", got, err)
	}
	for _, bad := range []string{"", "nobody", "@example.com", "x@", "a b@example.com", "x@localhost"} {
		if _, err := NormalizeEmail(bad); err == nil {
			t.Fatalf("NormalizeEmail(%q) expected error", bad)
		}
	}
	if !SameEmail("A@Example.com", " a@example.com") {
		t.Fatal("SameEmail should ignore case and spaces")
	}
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("notes/to\"do\r\n.txt", false)
	if !strings.HasPrefix(got, `attachment; filename="todo.txt"`) {
		t.Fatalf("ContentDisposition = %q", got)
	}
	if got := ContentDisposition("a b.pdf", true); !strings.HasPrefix(got, `inline; filename="a b.pdf"; filename*=UTF-8''a%20b.pdf`) {
		t.Fatalf("ContentDisposition inline = %q", got)
	}
	if SanitizeHeaderFilename("   ") != "download" {
		t.Fatal("blank name should fall back to download")
	}
}

func TestClientLimiter(t *testing.T) {
	l := NewClientLimiter(1, 2, 16, time.Minute)
	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatal("other client has its own bucket")
	}

	unlimited := NewClientLimiter(0, 1, 16, time.Minute)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow("x") {
			t.Fatal("zero rate should not limit")
		}
	}
}

func TestBuildCacheKey(t *testing.T) {
	if got := BuildCacheKey(CacheKeyUserByEmail, "a@example.com"); got != "user:email:a@example.com" {
		t.Fatalf("BuildCacheKey = %q", got)
	}
	if _, ok := GetUserFromCache(t.Context(), "a@example.com"); ok {
		t.Fatal("cache without redis should miss")
	}
}
