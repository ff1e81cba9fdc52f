// Package middleware はサンドボックスAPIサーバーで使用するGinミドルウェアを提供する。
//
// JWTの発行と検証、リクエストID、パニックリカバリ、CORS設定を含む。
// エラーレスポンスはガーディアンAPIと同じ {success, message} 形式で返す。
package middleware
