// Package repofake はテスト用のインメモリリポジトリを提供する。
package repofake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo はマップで保持するユーザーリポジトリ。
// Err を設定するとすべての操作がそのエラーを返す。
type UserRepo struct {
	mu     sync.RWMutex
	users  map[int64]*model.User
	nextID int64

	Err error
}

// NewUserRepo は空のUserRepoを返す。
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]*model.User)}
}

func (r *UserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *UserRepo) FindByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Create(_ context.Context, googleID, email, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.GoogleID == googleID || u.Email == email {
			return nil, fmt.Errorf("user already exists: %w", model.ErrConflict)
		}
	}

	r.nextID++
	now := time.Now().UTC()
	u := &model.User{
		ID:        r.nextID,
		GoogleID:  googleID,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.users[u.ID] = u

	copied := *u
	return &copied, nil
}

// Delete はユーザーを削除する。セッションは削除しない。
func (r *UserRepo) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Count は保持しているユーザー数を返す。
func (r *UserRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
