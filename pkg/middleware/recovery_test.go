package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler gin.HandlerFunc
		want    int
	}{
		{
			name:    "文字列のパニックは500になること",
			handler: func(*gin.Context) { panic("wallet not loaded") },
			want:    http.StatusInternalServerError,
		},
		{
			name:    "errorのパニックも500になること",
			handler: func(*gin.Context) { panic(http.ErrBodyNotAllowed) },
			want:    http.StatusInternalServerError,
		},
		{
			name:    "パニックしなければそのまま返ること",
			handler: func(c *gin.Context) { c.Status(http.StatusNoContent) },
			want:    http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(RequestID(), Recovery())
			router.GET("/guardian/members", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/guardian/members", nil)
			req.Header.Set(headerRequestID, "req-42")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.want)
			}
		})
	}

	t.Run("エラーエンベロープにリクエストIDが含まれること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(RequestID(), Recovery())
		router.GET("/boom", func(*gin.Context) { panic("boom") })

		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		req.Header.Set(headerRequestID, "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var body struct {
			Success   bool   `json:"success"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body.Success || body.Message == "" {
			t.Errorf("body = %+v, want success=false with message", body)
		}
		if body.RequestID != "req-42" {
			t.Errorf("request_id = %q, want %q", body.RequestID, "req-42")
		}
	})

	t.Run("書き込み済みの応答は上書きしないこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery())
		router.GET("/partial", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("after write")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.String() != "partial" {
			t.Errorf("body = %q, want %q", w.Body.String(), "partial")
		}
	})

	t.Run("ErrAbortHandlerは再度パニックすること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery())
		router.GET("/abort", func(*gin.Context) { panic(http.ErrAbortHandler) })

		defer func() {
			if r := recover(); r != http.ErrAbortHandler {
				t.Errorf("recover() = %v, want %v", r, http.ErrAbortHandler)
			}
		}()
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
}
