package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewRepo)(nil)

// ReviewRepo はスライスで保持するレビューリポジトリ。
type ReviewRepo struct {
	mu      sync.RWMutex
	reviews []*model.Review

	Err error
}

// NewReviewRepo は空のReviewRepoを返す。
func NewReviewRepo() *ReviewRepo {
	return &ReviewRepo{}
}

func (r *ReviewRepo) Create(_ context.Context, review *model.Review) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	now := time.Now().UTC()
	created := *review
	created.ID = int64(len(r.reviews) + 1)
	created.CreatedAt = now
	created.UpdatedAt = now
	r.reviews = append(r.reviews, &created)

	copied := created
	return &copied, nil
}

func (r *ReviewRepo) ListByUserID(_ context.Context, userID int64, limit int) ([]*model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}

	result := []*model.Review{}
	for _, rv := range r.reviews {
		if rv.UserID == userID {
			copied := *rv
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// All は保存済みのレビューをすべて返す。
func (r *ReviewRepo) All() []model.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		out = append(out, *rv)
	}
	return out
}
