package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// allowMethods はウォレットAPIが受け付けるメソッド。
	allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	// allowHeaders はクライアントが送信するヘッダー。
	allowHeaders = "Authorization, Content-Type, Accept, X-Request-ID, ngrok-skip-browser-warning"
	// preflightMaxAge はプリフライト結果をブラウザにキャッシュさせる秒数。
	preflightMaxAge = "86400"
)

// originMatcher は許可オリジンの判定規則。
// "*" は全て、"https://*.example.com" のような指定はサブドメインを許可する。
type originMatcher struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

func newOriginMatcher(patterns []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		switch {
		case p == "":
		case p == "*":
			m.any = true
		case strings.Contains(p, "://*."):
			scheme, host, _ := strings.Cut(p, "://*")
			m.suffixes = append(m.suffixes, scheme+"://|"+host)
		default:
			m.exact[p] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if m.any {
		return true
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, s := range m.suffixes {
		scheme, host, _ := strings.Cut(s, "|")
		rest, ok := strings.CutPrefix(origin, scheme)
		if ok && strings.HasSuffix(rest, host) && len(rest) > len(host) {
			return true
		}
	}
	return false
}

// CORS は許可されたオリジンからのクロスオリジンリクエストを通すGinミドルウェアを返す。
// OPTIONSリクエストはハンドラに渡さず204で応答する。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	matcher := newOriginMatcher(allowedOrigins)

	return func(c *gin.Context) {
		c.Header("Vary", "Origin")
		if origin := c.GetHeader("Origin"); matcher.allows(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", headerRequestID)
			h.Set("Access-Control-Max-Age", preflightMaxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
