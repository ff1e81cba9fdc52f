package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestOriginMatcher(t *testing.T) {
	t.Parallel()

	m := newOriginMatcher([]string{"http://localhost:3000/", "https://*.guardian.test", " "})

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://localhost:8080", false},
		{"https://app.guardian.test", true},
		{"https://a.b.guardian.test", true},
		{"https://guardian.test", false},
		{"http://app.guardian.test", false},
		{"https://evilguardian.test", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.allows(tt.origin); got != tt.want {
			t.Errorf("allows(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !newOriginMatcher([]string{"*"}).allows("capacitor://localhost") {
		t.Error("ワイルドカードで任意のオリジンが許可されていません")
	}
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{
			name:       "許可されたオリジンにCORSヘッダーが設定されること",
			method:     http.MethodGet,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusOK,
			wantAllow:  "http://localhost:3000",
		},
		{
			name:       "許可されていないオリジンにはCORSヘッダーを付けないこと",
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Originのない同一オリジンリクエストはそのまま通ること",
			method:     http.MethodPost,
			wantStatus: http.StatusOK,
		},
		{
			name:       "プリフライトはハンドラに届かず204になること",
			method:     http.MethodOptions,
			origin:     "https://app.guardian.test",
			wantStatus: http.StatusNoContent,
			wantAllow:  "https://app.guardian.test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(CORS([]string{"http://localhost:3000", "https://*.guardian.test"}))
			handled := func(c *gin.Context) { c.Status(http.StatusOK) }
			router.GET("/api/v1/guardian/members", handled)
			router.POST("/api/v1/guardian/members", handled)
			router.OPTIONS("/api/v1/guardian/members", func(c *gin.Context) {
				t.Error("プリフライトがハンドラに到達しました")
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/api/v1/guardian/members", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := w.Header().Get("Vary"); got != "Origin" {
				t.Errorf("Vary = %q, want %q", got, "Origin")
			}
			if tt.wantAllow != "" {
				if got := w.Header().Get("Access-Control-Allow-Headers"); got != allowHeaders {
					t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, allowHeaders)
				}
				if got := w.Header().Get("Access-Control-Expose-Headers"); got != headerRequestID {
					t.Errorf("Access-Control-Expose-Headers = %q, want %q", got, headerRequestID)
				}
			}
		})
	}
}
