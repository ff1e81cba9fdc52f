package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	serve := func(header string) (string, *httptest.ResponseRecorder) {
		var got string
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			got = GetRequestID(c)
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return got, w
	}

	t.Run("クライアントのリクエストIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		got, w := serve("req-123")
		if got != "req-123" {
			t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
		}
		if h := w.Header().Get("X-Request-ID"); h != "req-123" {
			t.Errorf("X-Request-ID = %q, want %q", h, "req-123")
		}
	})

	t.Run("リクエストIDが無い場合はUUIDを生成すること", func(t *testing.T) {
		t.Parallel()

		got, w := serve("")
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("GetRequestID() = %q, UUIDではない: %v", got, err)
		}
		if h := w.Header().Get("X-Request-ID"); h != got {
			t.Errorf("X-Request-ID = %q, want %q", h, got)
		}
	})

	t.Run("長すぎるリクエストIDは置き換えること", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("a", maxRequestIDLength+1)
		got, _ := serve(long)
		if got == long {
			t.Error("長すぎるリクエストIDがそのまま使われた")
		}
	})
}
