package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo はuser_idをキーに保持するセッションリポジトリ。
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[int64]*model.Session
	nextID   int64

	Err error
}

// NewSessionRepo は空のSessionRepoを返す。
func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[int64]*model.Session)}
}

func (r *SessionRepo) Upsert(_ context.Context, userID int64, token string, expiresAt, createdAt time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	if existing, ok := r.sessions[userID]; ok {
		existing.Token = token
		existing.ExpiresAt = expiresAt
		copied := *existing
		return &copied, nil
	}

	r.nextID++
	s := &model.Session{
		ID:        r.nextID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}
	r.sessions[userID] = s

	copied := *s
	return &copied, nil
}

func (r *SessionRepo) FindByToken(_ context.Context, token string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, s := range r.sessions {
		if s.Token == token {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	for userID, s := range r.sessions {
		if s.Token == token {
			delete(r.sessions, userID)
		}
	}
	return nil
}

func (r *SessionRepo) CountByUserID(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return 0, r.Err
	}
	if _, ok := r.sessions[userID]; ok {
		return 1, nil
	}
	return 0, nil
}

// Put はセッションをそのまま保存する。期限切れセッションの用意に使う。
func (r *SessionRepo) Put(s model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	if s.ID == 0 {
		s.ID = r.nextID
	}
	r.sessions[s.UserID] = &s
}
