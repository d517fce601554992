package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rps float64, burst int) *gin.Engine {
	router := gin.New()
	router.Use(NewRateLimiter(rps, burst).Middleware())
	router.GET("/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return router
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	router := limitedRouter(1, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("request over burst: expected 429, got %d", w.Code)
	}
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	router := limitedRouter(1, 1)

	first := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/login", nil)
	req1.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(first, req1)
	if first.Code != http.StatusOK {
		t.Fatalf("first IP: expected 200, got %d", first.Code)
	}

	// A different address has its own bucket
	second := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/login", nil)
	req2.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(second, req2)
	if second.Code != http.StatusOK {
		t.Errorf("second IP: expected 200, got %d", second.Code)
	}
}
