package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/codereview/internal/database"
	"github.com/hitoshi/codereview/internal/model"
)

const reviewColumns = `id, user_id, title, language, code, feedback, model_name, created_at, updated_at`

// SQLReviewRepo はdatabase/sqlを使用したレビューリポジトリ。
type SQLReviewRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSQLReviewRepo はSQLReviewRepoを生成する。
func NewSQLReviewRepo(db *sql.DB, dialect database.Dialect) *SQLReviewRepo {
	return &SQLReviewRepo{db: db, dialect: dialect}
}

// Create はレビューを作成する。
func (r *SQLReviewRepo) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(`INSERT INTO reviews (user_id, title, language, code, feedback, model_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+reviewColumns),
		nullableID(review.UserID), review.Title, review.Language, review.Code,
		review.Feedback, review.ModelName, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to insert review: %w", err)
		}
		return nil, fmt.Errorf("insert returned no review row: %w", model.ErrPersistence)
	}

	created, err := scanReview(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return created, nil
}

// ListByUserID はユーザーのレビューを新しい順に最大limit件返す。
func (r *SQLReviewRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(`SELECT `+reviewColumns+`
		 FROM reviews
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

func scanReview(rows *sql.Rows) (*model.Review, error) {
	review := &model.Review{}
	var userID sql.NullInt64
	err := rows.Scan(
		&review.ID, &userID, &review.Title, &review.Language, &review.Code,
		&review.Feedback, &review.ModelName, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	review.UserID = userID.Int64
	return review, nil
}

// nullableID は0をNULLとして扱う。
func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// compile-time interface check
var _ ReviewRepository = (*SQLReviewRepo)(nil)
