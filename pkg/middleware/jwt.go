package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer は発行するJWTのiss。
const Issuer = "guardian-sandbox"

// contextKeyClaims は検証済みクレームを格納するGinコンテキストのキー。
const contextKeyClaims = "jwt_claims"

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
}

// RevokedFunc はjtiが失効済みかどうかを返す。
type RevokedFunc func(ctx context.Context, jti string) (bool, error)

// GenerateJWT はユーザー情報から有効期間ttlのJWTトークンを生成する。
// 失効管理のため、クレームにはUUIDのjtiを含める。
func GenerateJWT(secret, userID, email string, ttl time.Duration) (string, *JWTClaims, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, claims, nil
}

// ParseJWT はトークンの署名と有効期限を検証してクレームを返す。
// leewayを指定すると、期限切れからleeway以内のトークンも有効として扱う。
func ParseJWT(secret, tokenString string, leeway time.Duration) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithLeeway(leeway),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("トークンが無効です")
	}
	return claims, nil
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func BearerToken(c *gin.Context) (string, bool) {
	return strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// JWTAuth はJWTトークンを検証するGinミドルウェアを返す。
// revokedがnilでない場合は失効済みのトークンも拒否する。
// 検証に成功した場合、コンテキストにクレームを設定する。
func JWTAuth(secret string, revoked RevokedFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortJSON(c, http.StatusUnauthorized, "Authorizationヘッダーが必要です")
			return
		}

		tokenString, found := BearerToken(c)
		if !found {
			abortJSON(c, http.StatusUnauthorized, "Bearer トークン形式が不正です")
			return
		}

		claims, err := ParseJWT(secret, tokenString, 0)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "トークンが無効です")
			return
		}

		if revoked != nil {
			isRevoked, err := revoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Printf("[JWT] 失効状態の確認に失敗: jti=%s: %v", claims.ID, err)
				abortJSON(c, http.StatusInternalServerError, "内部サーバーエラーが発生しました")
				return
			}
			if isRevoked {
				abortJSON(c, http.StatusUnauthorized, "トークンは失効しています")
				return
			}
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims はGinコンテキストから検証済みクレームを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetClaims(c *gin.Context) (*JWTClaims, bool) {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*JWTClaims)
	return claims, ok
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
func GetUserID(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.UserID
	}
	return ""
}

// abortJSON はエンベロープ形式のエラーレスポンスを返して処理を中断する。
func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
