package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	// :memory: は接続ごとに別DBになるため1接続に固定する
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// testFS はテスト用のマイグレーションファイル群。
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/000002_add_notes.up.sql":      {Data: []byte(`ALTER TABLE items ADD COLUMN notes TEXT NOT NULL DEFAULT '';`)},
		"migrations/000001_create_items.up.sql":   {Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY);`)},
		"migrations/000001_create_items.down.sql": {Data: []byte(`DROP TABLE items;`)},
		"migrations/README.md":                    {Data: []byte(`ignored`)},
		"migrations/invalid_name.up.sql":          {Data: []byte(`SELECT 1;`)},
	}
}

// TestCollect はマイグレーションファイルの収集を検証する。
func TestCollect(t *testing.T) {
	t.Parallel()

	files, err := Collect(testFS(), "migrations")
	if err != nil {
		t.Fatalf("Collect()でエラーが発生: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("ファイル数 = %d, want 2", len(files))
	}
	if files[0].Version != 1 || files[0].Name != "create_items" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].Version != 2 || files[1].Path != "migrations/000002_add_notes.up.sql" {
		t.Errorf("files[1] = %+v", files[1])
	}

	t.Run("バージョンが重複しているとErrDuplicateVersionになること", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/000001_users.up.sql":   {Data: []byte(`SELECT 1;`)},
			"m/000001_wallets.up.sql": {Data: []byte(`SELECT 1;`)},
		}
		if _, err := Collect(fsys, "m"); !errors.Is(err, ErrDuplicateVersion) {
			t.Errorf("err = %v, want %v", err, ErrDuplicateVersion)
		}
	})
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("全マイグレーションが順番に適用されること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		ctx := context.Background()

		if err := Run(ctx, db, testFS(), "migrations"); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO items (id, notes) VALUES ('a', 'memo')`); err != nil {
			t.Fatalf("マイグレーション後のINSERTに失敗: %v", err)
		}

		var count int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの参照に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済み件数 = %d, want 2", count)
		}
	})

	t.Run("2回実行しても適用済みのマイグレーションはスキップされること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		ctx := context.Background()

		if err := Run(ctx, db, testFS(), "migrations"); err != nil {
			t.Fatalf("1回目のRun()でエラーが発生: %v", err)
		}
		if err := Run(ctx, db, testFS(), "migrations"); err != nil {
			t.Fatalf("2回目のRun()でエラーが発生: %v", err)
		}

		var name string
		if err := db.QueryRowContext(ctx, `SELECT name FROM schema_migrations WHERE version = 2`).Scan(&name); err != nil {
			t.Fatalf("schema_migrationsの参照に失敗: %v", err)
		}
		if name != "add_notes" {
			t.Errorf("name = %q, want %q", name, "add_notes")
		}
	})

	t.Run("不正なSQLでエラーが返り記録されないこと", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		ctx := context.Background()
		fsys := fstest.MapFS{
			"m/000001_broken.up.sql": {Data: []byte(`CREATE TABLE;`)},
		}

		if err := Run(ctx, db, fsys, "m"); err == nil {
			t.Fatal("Run()がエラーを返すべきだが、nilが返った")
		}

		var count int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの参照に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("適用済み件数 = %d, want 0", count)
		}
	})
}
