// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/repository"
)

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// FindOrCreateByGoogleID はGoogleのユーザーIDでユーザーを検索し、無ければ作成する。
// 既存ユーザーのemailとnameは更新しない。
// 同時ログインで作成が一意制約に衝突した場合は、勝者の行を一度だけ引き直す。
func (s *Service) FindOrCreateByGoogleID(ctx context.Context, googleID, email, name string) (*model.User, error) {
	if googleID == "" {
		return nil, fmt.Errorf("google id is required: %w", model.ErrValidation)
	}

	existing, err := s.userRepo.FindByGoogleID(ctx, googleID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.userRepo.Create(ctx, googleID, email, name)
	if err == nil {
		slog.Info("new user created",
			slog.Int64("user_id", created.ID),
			slog.String("google_id", googleID),
		)
		return created, nil
	}
	if !errors.Is(err, model.ErrConflict) {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	winner, findErr := s.userRepo.FindByGoogleID(ctx, googleID)
	if findErr != nil {
		return nil, fmt.Errorf("ユーザーの再取得に失敗しました: %w", findErr)
	}
	if winner == nil {
		// google_idではなくemailが衝突している
		return nil, err
	}
	return winner, nil
}

// FindByID は指定IDのユーザーを返す。見つからない場合はnilを返す。
func (s *Service) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}
