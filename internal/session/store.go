// Package session はセッショントークンの発行・検索・破棄を提供する。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/repository"
)

// tokenBytes はセッショントークンの生成に使う乱数のバイト数。
const tokenBytes = 32

// Store はセッション行の唯一の書き込み口。
type Store struct {
	repo repository.SessionRepository
	now  func() time.Time
}

// NewStore はStoreを生成する。
func NewStore(repo repository.SessionRepository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// CreateOrRefresh はユーザーのセッションを作成、または既存セッションを新しいトークンと期限で上書きする。
// 1ユーザーにつき行は常に1つ。
func (s *Store) CreateOrRefresh(ctx context.Context, userID int64, duration time.Duration) (*model.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	session, err := s.repo.Upsert(ctx, userID, token, now.Add(duration), now)
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w: %w", model.ErrPersistence, err)
	}
	if session == nil {
		return nil, fmt.Errorf("session upsert returned no row: %w", model.ErrPersistence)
	}

	return session, nil
}

// FindByToken はトークンに完全一致するセッションを返す。見つからない場合はnilを返す。
// 期限切れのセッションも返すので、呼び出し側でIsExpiredを確認すること。
func (s *Store) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w: %w", model.ErrPersistence, err)
	}
	return session, nil
}

// DeleteByToken はトークンに一致するセッションを削除する。存在しなくても成功する。
func (s *Store) DeleteByToken(ctx context.Context, token string) error {
	if err := s.repo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w: %w", model.ErrPersistence, err)
	}
	return nil
}

// IsExpired はnowが有効期限を過ぎているかを返す。期限ちょうどは有効とみなす。
func IsExpired(session *model.Session, now time.Time) bool {
	return session.IsExpired(now)
}

// GenerateToken は32バイトの暗号論的乱数を16進文字列にしたトークンを返す。
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
