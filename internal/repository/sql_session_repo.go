package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/codereview/internal/database"
	"github.com/hitoshi/codereview/internal/model"
)

const sessionColumns = `id, user_id, token, expires_at, created_at`

// SQLSessionRepo はdatabase/sqlを使用したセッションリポジトリ。
type SQLSessionRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSQLSessionRepo はSQLSessionRepoを生成する。
func NewSQLSessionRepo(db *sql.DB, dialect database.Dialect) *SQLSessionRepo {
	return &SQLSessionRepo{db: db, dialect: dialect}
}

// Upsert はuser_idをキーにセッションを1文で作成または上書きする。
// 同一ユーザーの同時ログインでも行が2つになることはない。
func (r *SQLSessionRepo) Upsert(ctx context.Context, userID int64, token string, expiresAt, createdAt time.Time) (*model.Session, error) {
	session, err := scanSession(r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`INSERT INTO sessions (user_id, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE
		 SET token = excluded.token, expires_at = excluded.expires_at
		 RETURNING `+sessionColumns),
		userID, token, expiresAt, createdAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert session: %w", err)
	}
	return session, nil
}

// FindByToken はトークンに完全一致するセッションを取得する。
// 期限切れの判定は呼び出し側で行う。見つからない場合はnilを返す。
func (r *SQLSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	session, err := scanSession(r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT `+sessionColumns+` FROM sessions WHERE token = ?`),
		token,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// DeleteByToken はトークンに一致するセッションを削除する。
func (r *SQLSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`DELETE FROM sessions WHERE token = ?`),
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CountByUserID は指定ユーザーのセッション行数を返す。
func (r *SQLSessionRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT count(*) FROM sessions WHERE user_id = ?`),
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

func scanSession(row *sql.Row) (*model.Session, error) {
	session := &model.Session{}
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// compile-time interface check
var _ SessionRepository = (*SQLSessionRepo)(nil)
