package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery はハンドラのパニックを500のエラーエンベロープに変換するGinミドルウェアを返す。
// 応答の書き込みが始まっていた場合は接続を中断するだけにする。
// http.ErrAbortHandlerによるパニックはnet/httpに任せる。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			log.Printf("[PANIC] %s %s request_id=%s: %v", c.Request.Method, c.Request.URL.Path, GetRequestID(c), r)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"message":    "内部サーバーエラーが発生しました",
				"request_id": GetRequestID(c),
			})
		}()
		c.Next()
	}
}
