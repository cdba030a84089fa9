// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/codereview/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByGoogleID はGoogleのユーザーIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプを設定したユーザーを返す。
	// google_id または email の一意制約に違反した場合は model.ErrConflict をラップして返す。
	Create(ctx context.Context, googleID, email, name string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Upsert はuser_idをキーにセッションを作成または上書きする。
	// 既存行がある場合はtokenとexpires_atのみを更新する。
	// 書き込み後の行を返す。行が返らない場合はnilを返す。
	Upsert(ctx context.Context, userID int64, token string, expiresAt, createdAt time.Time) (*model.Session, error)

	// FindByToken はトークンに完全一致するセッションを取得する。
	// 期限切れでも返す。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken はトークンに一致するセッションを削除する。存在しない場合もエラーにしない。
	DeleteByToken(ctx context.Context, token string) error

	// CountByUserID は指定ユーザーのセッション行数を返す。
	CountByUserID(ctx context.Context, userID int64) (int, error)
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成し、採番されたIDとタイムスタンプを設定したレビューを返す。
	Create(ctx context.Context, review *model.Review) (*model.Review, error)

	// ListByUserID はユーザーのレビューを新しい順に最大limit件返す。
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*model.Review, error)
}
