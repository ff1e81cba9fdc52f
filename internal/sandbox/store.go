package sandbox

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/guardian/internal/guardian"
	"github.com/nao1215/guardian/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// roleGuardian は保護者ユーザーのロール。
const roleGuardian = "guardian"

// errNotFound は該当するレコードが無いことを表す。
var errNotFound = errors.New("レコードが見つかりません")

// errEmailTaken はメールアドレスが登録済みであることを表す。
var errEmailTaken = errors.New("メールアドレスは既に登録されています")

// store はサンドボックスのデータアクセス層。
type store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// openStore はpathのSQLiteデータベースを開き、マイグレーションを適用する。
func openStore(ctx context.Context, path string) (*store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &store{db: db}, nil
}

// close はデータベース接続を閉じる。
func (s *store) close() error {
	return s.db.Close()
}

// userRecord はusersテーブルの1行。
type userRecord struct {
	guardian.User
	PasswordHash string
}

// newUser はユーザーと保護者プロフィールを1トランザクションで作成する。
func (s *store) newUser(ctx context.Context, name, email, passwordHash, phone, nik string) (*guardian.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("メールアドレスの確認に失敗: %w", err)
	}
	if exists > 0 {
		return nil, errEmailTaken
	}

	user := &guardian.User{ID: uuid.New().String(), Name: name, Email: email, Role: roleGuardian}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, passwordHash, user.Role,
	); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO guardians (id, user_id, nik, phone) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), user.ID, nullString(nik), nullString(phone),
	); err != nil {
		return nil, fmt.Errorf("保護者プロフィールの作成に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return user, nil
}

// userByEmail はメールアドレスでユーザーを取得する。
func (s *store) userByEmail(ctx context.Context, email string) (*userRecord, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, password_hash FROM users WHERE email = ?`, email))
}

// userByID はIDでユーザーを取得する。
func (s *store) userByID(ctx context.Context, id string) (*userRecord, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, password_hash FROM users WHERE id = ?`, id))
}

func (s *store) scanUser(row *sql.Row) (*userRecord, error) {
	var u userRecord
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return &u, nil
}

// guardianByUserID はユーザーの保護者プロフィールを取得する。
func (s *store) guardianByUserID(ctx context.Context, userID string) (*guardian.Guardian, error) {
	var (
		g               guardian.Guardian
		nik, phone      sql.NullString
		phoneVerifiedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT g.id, g.nik, g.phone, g.is_verified, g.phone_verified_at, g.created_at, g.updated_at,
		       (SELECT COUNT(*) FROM guardian_members gm WHERE gm.guardian_id = g.id AND gm.claim_status = 'approved'),
		       (SELECT COUNT(*) FROM guardian_members gm WHERE gm.guardian_id = g.id AND gm.claim_status = 'pending')
		FROM guardians g WHERE g.user_id = ?
	`, userID).Scan(&g.ID, &nik, &phone, &g.IsVerified, &phoneVerifiedAt, &g.CreatedAt, &g.UpdatedAt,
		&g.ApprovedMembersCount, &g.PendingClaimsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("保護者プロフィールの取得に失敗: %w", err)
	}
	g.NIK = stringPtr(nik)
	g.Phone = stringPtr(phone)
	g.PhoneVerifiedAt = stringPtr(phoneVerifiedAt)
	return &g, nil
}

// revokeToken はjtiを失効させる。既に失効済みの場合は何もしない。
func (s *store) revokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT(jti) DO NOTHING`,
		jti, expiresAt.UTC().Format(time.DateTime),
	); err != nil {
		return fmt.Errorf("トークンの失効に失敗: %w", err)
	}
	return nil
}

// consumeToken はjtiを失効させ、この呼び出しで初めて失効した場合にtrueを返す。
// 同じトークンでの二重リフレッシュを防ぐために使用する。
func (s *store) consumeToken(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT(jti) DO NOTHING`,
		jti, expiresAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return false, fmt.Errorf("トークンの失効に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("失効結果の取得に失敗: %w", err)
	}
	return n == 1, nil
}

// isRevoked はjtiが失効済みかどうかを返す。
func (s *store) isRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&n); err != nil {
		return false, fmt.Errorf("失効状態の確認に失敗: %w", err)
	}
	return n > 0, nil
}

// purgeRevoked は失効期限を過ぎた失効記録を削除する。
func (s *store) purgeRevoked(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, before.UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("失効記録の削除に失敗: %w", err)
	}
	return res.RowsAffected()
}

// memberColumns はメンバー取得時の共通カラム。
const memberColumns = `
	m.id, m.member_number, m.name, m.birth_date, m.gender, m.grade, m.class_name, m.is_active,
	o.id, o.name, o.sector_type,
	gm.claim_status, gm.relationship,
	gm.is_primary, gm.can_topup, gm.can_view_transactions, gm.can_set_limits`

// scanner はsql.Rowとsql.Rowsの共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

func scanMember(sc scanner) (*guardian.Member, error) {
	var (
		m        guardian.Member
		isActive bool
	)
	if err := sc.Scan(
		&m.ID, &m.MemberNumber, &m.Name, &m.BirthDate, &m.Gender, &m.Grade, &m.ClassName, &isActive,
		&m.Organization.ID, &m.Organization.Name, &m.Organization.SectorType,
		&m.ClaimStatus, &m.Relationship,
		&m.Permissions.IsPrimary, &m.Permissions.CanTopup, &m.Permissions.CanViewTransactions, &m.Permissions.CanSetLimits,
	); err != nil {
		return nil, err
	}
	m.IsActive = &isActive
	return &m, nil
}

// membersForGuardian は保護者に紐付け済みのメンバー一覧を取得する。
func (s *store) membersForGuardian(ctx context.Context, guardianID string) ([]guardian.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+memberColumns+`
		FROM guardian_members gm
		JOIN members m ON m.id = gm.member_id
		JOIN organizations o ON o.id = m.organization_id
		WHERE gm.guardian_id = ? AND gm.claim_status = 'approved'
		ORDER BY m.name
	`, guardianID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	members := []guardian.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("メンバーの読み取りに失敗: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// memberForGuardian は保護者に紐付け済みのメンバーを1件取得する。
func (s *store) memberForGuardian(ctx context.Context, guardianID, memberID string) (*guardian.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, `
		SELECT`+memberColumns+`
		FROM guardian_members gm
		JOIN members m ON m.id = gm.member_id
		JOIN organizations o ON o.id = m.organization_id
		WHERE gm.guardian_id = ? AND gm.member_id = ? AND gm.claim_status = 'approved'
	`, guardianID, memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗: %w", err)
	}
	return m, nil
}

// findMemberForClaim はNISNと氏名が一致するメンバーのIDを返す。氏名は大文字小文字を区別しない。
func (s *store) findMemberForClaim(ctx context.Context, nisn, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM members WHERE nisn = ? AND lower(name) = lower(?)`,
		nisn, strings.TrimSpace(name),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errNotFound
	}
	if err != nil {
		return "", fmt.Errorf("メンバーの検索に失敗: %w", err)
	}
	return id, nil
}

// linkMember は保護者とメンバーを紐付ける。
// 最初に紐付けた保護者は主保護者となり、利用限度額の設定権限を持つ。
// 既に紐付け済みの場合はfalseを返す。
func (s *store) linkMember(ctx context.Context, guardianID, memberID string, relationship guardian.Relationship) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var others int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guardian_members WHERE member_id = ? AND guardian_id <> ?`, memberID, guardianID,
	).Scan(&others); err != nil {
		return false, fmt.Errorf("紐付け状況の確認に失敗: %w", err)
	}
	primary := others == 0

	res, err := tx.ExecContext(ctx, `
		INSERT INTO guardian_members (guardian_id, member_id, relationship, claim_status, is_primary, can_set_limits)
		VALUES (?, ?, ?, 'approved', ?, ?)
		ON CONFLICT(guardian_id, member_id) DO NOTHING
	`, guardianID, memberID, string(relationship), primary, primary)
	if err != nil {
		return false, fmt.Errorf("メンバーの紐付けに失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("紐付け結果の取得に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("コミットに失敗: %w", err)
	}
	return n == 1, nil
}

// walletsForMember はメンバーのウォレット一覧と合計残高を取得する。
func (s *store) walletsForMember(ctx context.Context, memberID string) ([]guardian.Wallet, string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet_type, wallet_type_label, balance, pending_balance, total_balance, currency,
		       is_primary, is_active, is_frozen, frozen_reason, status_label
		FROM wallets WHERE member_id = ?
		ORDER BY is_primary DESC, wallet_type
	`, memberID)
	if err != nil {
		return nil, "", fmt.Errorf("ウォレット一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	wallets := []guardian.Wallet{}
	for rows.Next() {
		var (
			w            guardian.Wallet
			frozenReason sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.WalletType, &w.WalletTypeLabel, &w.Balance, &w.PendingBalance, &w.TotalBalance,
			&w.Currency, &w.IsPrimary, &w.IsActive, &w.IsFrozen, &frozenReason, &w.StatusLabel); err != nil {
			return nil, "", fmt.Errorf("ウォレットの読み取りに失敗: %w", err)
		}
		w.FrozenReason = stringPtr(frozenReason)
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var total string
	if err := s.db.QueryRowContext(ctx,
		`SELECT printf('%.2f', COALESCE(SUM(CAST(total_balance AS REAL)), 0)) FROM wallets WHERE member_id = ?`, memberID,
	).Scan(&total); err != nil {
		return nil, "", fmt.Errorf("合計残高の取得に失敗: %w", err)
	}
	return wallets, total, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
