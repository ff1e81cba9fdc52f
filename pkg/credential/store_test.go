package credential

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// testUser はテスト用のユーザー情報。
type testUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// backends はテスト対象のPreferences実装を返す。
func backends(t *testing.T) map[string]Preferences {
	t.Helper()

	sqlitePrefs, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
	}
	t.Cleanup(func() { sqlitePrefs.Close() })

	return map[string]Preferences{
		"memory": NewMemoryPreferences(),
		"sqlite": sqlitePrefs,
	}
}

// TestStore_Token はトークンの保存・取得・削除を検証する。
func TestStore_Token(t *testing.T) {
	t.Parallel()

	for name, prefs := range backends(t) {
		t.Run(name+"でトークンを保存・取得・削除できること", func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := NewStore(prefs)

			token, err := store.Token(ctx)
			if err != nil {
				t.Fatalf("Token()でエラーが発生: %v", err)
			}
			if token != "" {
				t.Errorf("初期状態のtoken = %q, want empty", token)
			}

			if err := store.SetToken(ctx, "T1"); err != nil {
				t.Fatalf("SetToken()でエラーが発生: %v", err)
			}
			if err := store.SetToken(ctx, "T2"); err != nil {
				t.Fatalf("SetToken()でエラーが発生: %v", err)
			}
			token, _ = store.Token(ctx)
			if token != "T2" {
				t.Errorf("token = %q, want %q", token, "T2")
			}

			if err := store.RemoveToken(ctx); err != nil {
				t.Fatalf("RemoveToken()でエラーが発生: %v", err)
			}
			token, _ = store.Token(ctx)
			if token != "" {
				t.Errorf("削除後のtoken = %q, want empty", token)
			}

			// 存在しないキーの削除はエラーにならない
			if err := store.RemoveToken(ctx); err != nil {
				t.Errorf("2回目のRemoveToken()でエラーが発生: %v", err)
			}
		})
	}
}

// TestStore_User はユーザー情報の保存・取得を検証する。
func TestStore_User(t *testing.T) {
	t.Parallel()

	for name, prefs := range backends(t) {
		t.Run(name+"でユーザー情報をJSONとして保存できること", func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := NewStore(prefs)

			var got testUser
			ok, err := store.User(ctx, &got)
			if err != nil {
				t.Fatalf("User()でエラーが発生: %v", err)
			}
			if ok {
				t.Error("未保存なのにokがtrue")
			}

			want := testUser{ID: "u-1", Email: "parent@example.com"}
			if err := store.SetUser(ctx, want); err != nil {
				t.Fatalf("SetUser()でエラーが発生: %v", err)
			}
			ok, err = store.User(ctx, &got)
			if err != nil || !ok {
				t.Fatalf("User() = %v, %v", ok, err)
			}
			if got != want {
				t.Errorf("User = %+v, want %+v", got, want)
			}
		})
	}
}

// TestStore_Theme はテーマ設定の検証と保存を検証する。
func TestStore_Theme(t *testing.T) {
	t.Parallel()

	t.Run("サポートするテーマを保存できること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := NewStore(NewMemoryPreferences())

		if err := store.SetTheme(ctx, ThemeDark); err != nil {
			t.Fatalf("SetTheme()でエラーが発生: %v", err)
		}
		if err := store.SetColorTheme(ctx, ColorPurple); err != nil {
			t.Fatalf("SetColorTheme()でエラーが発生: %v", err)
		}

		theme, _ := store.Theme(ctx)
		if theme != ThemeDark {
			t.Errorf("Theme = %q, want %q", theme, ThemeDark)
		}
		color, _ := store.ColorTheme(ctx)
		if color != ColorPurple {
			t.Errorf("ColorTheme = %q, want %q", color, ColorPurple)
		}
	})

	t.Run("サポートしていないテーマはエラーになること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := NewStore(NewMemoryPreferences())

		if err := store.SetTheme(ctx, Theme("sepia")); !errors.Is(err, ErrInvalidTheme) {
			t.Errorf("SetTheme() = %v, want ErrInvalidTheme", err)
		}
		if err := store.SetColorTheme(ctx, ColorTheme("red")); !errors.Is(err, ErrInvalidColorTheme) {
			t.Errorf("SetColorTheme() = %v, want ErrInvalidColorTheme", err)
		}
		if err := store.SetTheme(ctx, Theme("")); !errors.Is(err, ErrInvalidTheme) {
			t.Errorf("空のテーマでSetTheme() = %v, want ErrInvalidTheme", err)
		}
	})
}

// TestStore_ClearSession はセッション情報の削除を検証する。
func TestStore_ClearSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(NewMemoryPreferences())

	_ = store.SetToken(ctx, "T1")
	_ = store.SetUser(ctx, testUser{ID: "u-1"})
	_ = store.SetTheme(ctx, ThemeLight)

	if err := store.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession()でエラーが発生: %v", err)
	}

	if token, _ := store.Token(ctx); token != "" {
		t.Errorf("token = %q, want empty", token)
	}
	var u testUser
	if ok, _ := store.User(ctx, &u); ok {
		t.Error("ユーザー情報が残っている")
	}
	if theme, _ := store.Theme(ctx); theme != ThemeLight {
		t.Errorf("テーマ設定が消えている: %q", theme)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear()でエラーが発生: %v", err)
	}
	if theme, _ := store.Theme(ctx); theme != "" {
		t.Errorf("Clear()後のTheme = %q, want empty", theme)
	}
}

// TestOpenSQLite_Persistence はファイルに保存した値が再オープン後も残ることを検証する。
func TestOpenSQLite_Persistence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.db")

	prefs, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
	}
	if err := NewStore(prefs).SetToken(ctx, "persisted"); err != nil {
		t.Fatalf("SetToken()でエラーが発生: %v", err)
	}
	prefs.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("2回目のOpenSQLite()でエラーが発生: %v", err)
	}
	defer reopened.Close()

	token, err := NewStore(reopened).Token(ctx)
	if err != nil {
		t.Fatalf("Token()でエラーが発生: %v", err)
	}
	if token != "persisted" {
		t.Errorf("token = %q, want %q", token, "persisted")
	}
}
