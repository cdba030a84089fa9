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

const userColumns = `id, google_id, email, name, created_at, updated_at`

// SQLUserRepo はdatabase/sqlを使用したユーザーリポジトリ。
// PostgreSQLとSQLiteの両方で動作する。
type SQLUserRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSQLUserRepo はSQLUserRepoを生成する。
func NewSQLUserRepo(db *sql.DB, dialect database.Dialect) *SQLUserRepo {
	return &SQLUserRepo{db: db, dialect: dialect}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`),
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByGoogleID はGoogleのユーザーIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT `+userColumns+` FROM users WHERE google_id = ?`),
		googleID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google ID: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// 一意制約違反はmodel.ErrConflictとして返す。
func (r *SQLUserRepo) Create(ctx context.Context, googleID, email, name string) (*model.User, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	user, err := scanUser(r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`INSERT INTO users (google_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+userColumns),
		googleID, email, name, now, now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user already exists: %w", model.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("insert returned no user row: %w", model.ErrPersistence)
	}

	return user, nil
}

// scanUser は1行をUserに詰める。行がない場合はnil, nilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*SQLUserRepo)(nil)
