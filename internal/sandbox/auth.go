package sandbox

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/guardian/internal/guardian"
	"github.com/nao1215/guardian/pkg/middleware"
)

// loginRequest はログインのリクエストボディ。
type loginRequest struct {
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	DeviceName string `json:"device_name"`
}

// registerRequest は保護者登録のリクエストボディ。
type registerRequest struct {
	Name                 string `json:"name"                  binding:"required,max=255"`
	Email                string `json:"email"                 binding:"required,email"`
	Password             string `json:"password"              binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Phone                string `json:"phone"                 binding:"required,min=8,max=20"`
	NIK                  string `json:"nik"                   binding:"omitempty,numeric,len=16"`
}

// handleLogin はメールアドレスとパスワードでログインするハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}

		user, err := s.store.userByEmail(c.Request.Context(), req.Email)
		if errors.Is(err, errNotFound) {
			fail(c, http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません")
			return
		}
		if err != nil {
			log.Printf("[Sandbox] ユーザー取得エラー: %v", err)
			fail(c, http.StatusInternalServerError, "ユーザーの取得に失敗しました")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			fail(c, http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません")
			return
		}
		if user.Role != roleGuardian {
			fail(c, http.StatusForbidden, "保護者アカウントではありません")
			return
		}

		s.respondWithSession(c, http.StatusOK, "ログインしました", &user.User)
	}
}

// handleRegister は保護者アカウントを登録するハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if !bindJSON(c, &req) {
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[Sandbox] パスワードのハッシュ化エラー: %v", err)
			fail(c, http.StatusInternalServerError, "登録に失敗しました")
			return
		}

		user, err := s.store.newUser(c.Request.Context(), req.Name, req.Email, string(hash), req.Phone, req.NIK)
		if errors.Is(err, errEmailTaken) {
			failValidation(c, map[string][]string{"email": {err.Error()}})
			return
		}
		if err != nil {
			log.Printf("[Sandbox] ユーザー作成エラー: %v", err)
			fail(c, http.StatusInternalServerError, "登録に失敗しました")
			return
		}

		s.respondWithSession(c, http.StatusCreated, "登録しました", user)
	}
}

// respondWithSession はトークンを発行し、ログイン結果を返す。
func (s *Server) respondWithSession(c *gin.Context, status int, message string, user *guardian.User) {
	g, err := s.store.guardianByUserID(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[Sandbox] 保護者プロフィール取得エラー: %v", err)
		fail(c, http.StatusInternalServerError, "保護者プロフィールの取得に失敗しました")
		return
	}

	token, _, err := middleware.GenerateJWT(s.cfg.JWTSecret, user.ID, user.Email, s.cfg.TokenTTL)
	if err != nil {
		log.Printf("[Sandbox] JWT生成エラー: %v", err)
		fail(c, http.StatusInternalServerError, "トークン生成に失敗しました")
		return
	}

	respond(c, status, message, guardian.LoginResponse{
		User:      *user,
		Guardian:  *g,
		Token:     token,
		TokenType: "Bearer",
	})
}

// handleRefresh はトークンを新しいトークンと交換するハンドラを返す。
// 署名が正しく、期限切れからRefreshWindow以内のトークンを受け付ける。
// 交換に使われたトークンは失効させ、同じトークンでの二度目の交換は拒否する。
func (s *Server) handleRefresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tokenString, ok := middleware.BearerToken(c)
		if !ok {
			fail(c, http.StatusUnauthorized, "Bearer トークン形式が不正です")
			return
		}
		claims, err := middleware.ParseJWT(s.cfg.JWTSecret, tokenString, s.cfg.RefreshWindow)
		if err != nil {
			fail(c, http.StatusUnauthorized, "トークンをリフレッシュできません")
			return
		}

		first, err := s.store.consumeToken(ctx, claims.ID, claims.ExpiresAt.Add(s.cfg.RefreshWindow))
		if err != nil {
			log.Printf("[Sandbox] トークン失効エラー: %v", err)
			fail(c, http.StatusInternalServerError, "トークンのリフレッシュに失敗しました")
			return
		}
		if !first {
			fail(c, http.StatusUnauthorized, "トークンは失効しています")
			return
		}

		user, err := s.store.userByID(ctx, claims.UserID)
		if err != nil {
			fail(c, http.StatusUnauthorized, "ユーザーが見つかりません")
			return
		}

		token, _, err := middleware.GenerateJWT(s.cfg.JWTSecret, user.ID, user.Email, s.cfg.TokenTTL)
		if err != nil {
			log.Printf("[Sandbox] JWT生成エラー: %v", err)
			fail(c, http.StatusInternalServerError, "トークン生成に失敗しました")
			return
		}

		respond(c, http.StatusOK, "トークンを更新しました", guardian.RefreshResponse{
			Token:     token,
			TokenType: "Bearer",
			ExpiresIn: int(s.cfg.TokenTTL.Seconds()),
		})
	}
}

// handleLogout は現在のトークンを失効させるハンドラを返す。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.GetClaims(c)
		if err := s.store.revokeToken(c.Request.Context(), claims.ID, claims.ExpiresAt.Add(s.cfg.RefreshWindow)); err != nil {
			log.Printf("[Sandbox] トークン失効エラー: %v", err)
			fail(c, http.StatusInternalServerError, "ログアウトに失敗しました")
			return
		}
		respond(c, http.StatusOK, "ログアウトしました", nil)
	}
}

// handleMe は現在のユーザー情報を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, g, ok := s.currentUser(c)
		if !ok {
			return
		}
		respond(c, http.StatusOK, "", guardian.MeResponse{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			Guardian: g,
		})
	}
}

// handleProfile は保護者プロフィールを返すハンドラを返す。
func (s *Server) handleProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, g, ok := s.currentUser(c)
		if !ok {
			return
		}
		respond(c, http.StatusOK, "", guardian.ProfileResponse{User: user.User, Guardian: *g})
	}
}

// currentUser はトークンのユーザーと保護者プロフィールを取得する。
// 取得できない場合はエラーレスポンスを返してfalseを返す。
func (s *Server) currentUser(c *gin.Context) (*userRecord, *guardian.Guardian, bool) {
	ctx := c.Request.Context()

	user, err := s.store.userByID(ctx, middleware.GetUserID(c))
	if errors.Is(err, errNotFound) {
		fail(c, http.StatusUnauthorized, "ユーザーが見つかりません")
		return nil, nil, false
	}
	if err != nil {
		log.Printf("[Sandbox] ユーザー取得エラー: %v", err)
		fail(c, http.StatusInternalServerError, "ユーザーの取得に失敗しました")
		return nil, nil, false
	}

	g, err := s.store.guardianByUserID(ctx, user.ID)
	if errors.Is(err, errNotFound) {
		fail(c, http.StatusForbidden, "保護者アカウントではありません")
		return nil, nil, false
	}
	if err != nil {
		log.Printf("[Sandbox] 保護者プロフィール取得エラー: %v", err)
		fail(c, http.StatusInternalServerError, "保護者プロフィールの取得に失敗しました")
		return nil, nil, false
	}
	return user, g, true
}
