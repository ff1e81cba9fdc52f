package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// 設定キー。
const (
	KeyToken      = "auth_token"
	KeyUser       = "auth_user"
	KeyTheme      = "app_theme"
	KeyColorTheme = "app_color_theme"
)

// Theme は表示テーマ。
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ColorTheme はアクセントカラーのテーマ。
type ColorTheme string

const (
	ColorEmerald ColorTheme = "emerald"
	ColorBlue    ColorTheme = "blue"
	ColorPurple  ColorTheme = "purple"
	ColorOrange  ColorTheme = "orange"
)

var (
	// ErrInvalidTheme はサポートしていないテーマが指定されたことを表す。
	ErrInvalidTheme = errors.New("サポートしていないテーマです")
	// ErrInvalidColorTheme はサポートしていないカラーテーマが指定されたことを表す。
	ErrInvalidColorTheme = errors.New("サポートしていないカラーテーマです")
)

// Store は認証トークン、ユーザー情報、テーマ設定をPreferences上で管理する。
// httpclient.CredentialStoreを満たす。
type Store struct {
	// prefs は値の保存先。
	prefs Preferences
	// validate はテーマ値の検証に使用する。
	validate *validator.Validate
}

// NewStore はprefsを保存先とするStoreを生成する。
func NewStore(prefs Preferences) *Store {
	return &Store{
		prefs:    prefs,
		validate: validator.New(),
	}
}

// Token は保存されている認証トークンを返す。存在しない場合は空文字列を返す。
func (s *Store) Token(ctx context.Context) (string, error) {
	v, _, err := s.prefs.Get(ctx, KeyToken)
	return v, err
}

// SetToken は認証トークンを保存する。
func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.prefs.Set(ctx, KeyToken, token)
}

// RemoveToken は認証トークンを削除する。
func (s *Store) RemoveToken(ctx context.Context) error {
	return s.prefs.Remove(ctx, KeyToken)
}

// User はキャッシュされたユーザー情報をvにデシリアライズする。
// 保存されていない場合はfalseを返す。
func (s *Store) User(ctx context.Context, v any) (bool, error) {
	raw, ok, err := s.prefs.Get(ctx, KeyUser)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("ユーザー情報のデシリアライズに失敗: %w", err)
	}
	return true, nil
}

// SetUser はユーザー情報をJSONとして保存する。
func (s *Store) SetUser(ctx context.Context, user any) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("ユーザー情報のシリアライズに失敗: %w", err)
	}
	return s.prefs.Set(ctx, KeyUser, string(b))
}

// RemoveUser はユーザー情報を削除する。
func (s *Store) RemoveUser(ctx context.Context) error {
	return s.prefs.Remove(ctx, KeyUser)
}

// Theme は保存されている表示テーマを返す。未設定の場合は空文字列。
func (s *Store) Theme(ctx context.Context) (Theme, error) {
	v, _, err := s.prefs.Get(ctx, KeyTheme)
	return Theme(v), err
}

// SetTheme は表示テーマを保存する。
func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if err := s.validate.Var(string(theme), "required,oneof=light dark"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return s.prefs.Set(ctx, KeyTheme, string(theme))
}

// ColorTheme は保存されているカラーテーマを返す。未設定の場合は空文字列。
func (s *Store) ColorTheme(ctx context.Context) (ColorTheme, error) {
	v, _, err := s.prefs.Get(ctx, KeyColorTheme)
	return ColorTheme(v), err
}

// SetColorTheme はカラーテーマを保存する。
func (s *Store) SetColorTheme(ctx context.Context, theme ColorTheme) error {
	if err := s.validate.Var(string(theme), "required,oneof=emerald blue purple orange"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidColorTheme, theme)
	}
	return s.prefs.Set(ctx, KeyColorTheme, string(theme))
}

// ClearSession はトークンとユーザー情報を削除する。テーマ設定は残す。
func (s *Store) ClearSession(ctx context.Context) error {
	return errors.Join(s.RemoveToken(ctx), s.RemoveUser(ctx))
}

// Clear は全ての設定値を削除する。
func (s *Store) Clear(ctx context.Context) error {
	return s.prefs.Clear(ctx)
}
