package credential

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nao1215/guardian/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLitePreferences はSQLiteのpreferencesテーブルに値を保存するPreferences。
type SQLitePreferences struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLite はpathのSQLiteデータベースを開き、スキーマを適用する。
// pathに":memory:"を指定するとインメモリDBになる。
func OpenSQLite(ctx context.Context, path string) (*SQLitePreferences, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		// :memory: は接続ごとに別DBになるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLitePreferences{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (p *SQLitePreferences) Close() error {
	return p.db.Close()
}

// Get はキーに対応する値を返す。
func (p *SQLitePreferences) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("設定値の取得に失敗: key=%s: %w", key, err)
	}
	return value, true, nil
}

// Set はキーに値を保存する。
func (p *SQLitePreferences) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("設定値の保存に失敗: key=%s: %w", key, err)
	}
	return nil
}

// Remove はキーを削除する。
func (p *SQLitePreferences) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("設定値の削除に失敗: key=%s: %w", key, err)
	}
	return nil
}

// Clear は全てのキーを削除する。
func (p *SQLitePreferences) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM preferences`); err != nil {
		return fmt.Errorf("設定値の全削除に失敗: %w", err)
	}
	return nil
}
