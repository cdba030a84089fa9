// Package auth はGoogle OAuthによるログインとログアウトを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/hitoshi/codereview/internal/metrics"
	"github.com/hitoshi/codereview/internal/model"
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はPKCEチャレンジ付きのOAuth認証URLを生成する。
	GetLoginURL(state, verifier string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code, verifier string) (*model.GoogleIdentity, error)
}

// UserResolver はGoogleの識別子からユーザーを解決する。
type UserResolver interface {
	FindOrCreateByGoogleID(ctx context.Context, googleID, email, name string) (*model.User, error)
}

// SessionIssuer はセッションの発行と破棄を行う。
type SessionIssuer interface {
	CreateOrRefresh(ctx context.Context, userID int64, duration time.Duration) (*model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionDuration time.Duration
}

// Service はログイン処理を組み立てる。ユーザー行とセッション行の唯一の書き込み元。
type Service struct {
	oauth    OAuthProvider
	users    UserResolver
	sessions SessionIssuer
	config   ServiceConfig
	recorder metrics.MetricsCollector
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	oauth OAuthProvider,
	users UserResolver,
	sessions SessionIssuer,
	config ServiceConfig,
	recorder metrics.MetricsCollector,
) *Service {
	return &Service{
		oauth:    oauth,
		users:    users,
		sessions: sessions,
		config:   config,
		recorder: recorder,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state, verifier string) string {
	return s.oauth.GetLoginURL(state, verifier)
}

// HandleCallback は認可コードを交換し、ログインを完了する。
func (s *Service) HandleCallback(ctx context.Context, code, verifier string) (*model.User, *model.Session, error) {
	identity, err := s.oauth.ExchangeCode(ctx, code, verifier)
	if err != nil {
		s.recordLogin(metrics.LoginFailure)
		return nil, nil, fmt.Errorf("%w: %w", model.ErrAuthenticationFailed, err)
	}
	return s.CompleteLogin(ctx, identity)
}

// CompleteLogin はユーザーを検索または作成し、セッションを作成または更新する。
// セッション作成に失敗しても作成済みのユーザーは残る。
func (s *Service) CompleteLogin(ctx context.Context, identity *model.GoogleIdentity) (*model.User, *model.Session, error) {
	if identity == nil || identity.GoogleID == "" {
		s.recordLogin(metrics.LoginFailure)
		return nil, nil, fmt.Errorf("%w: missing google identity", model.ErrAuthenticationFailed)
	}

	user, err := s.users.FindOrCreateByGoogleID(ctx, identity.GoogleID, identity.Email, identity.Name)
	if err != nil {
		s.recordLogin(metrics.LoginFailure)
		return nil, nil, fmt.Errorf("%w: %w", model.ErrAuthenticationFailed, err)
	}
	if user == nil {
		s.recordLogin(metrics.LoginFailure)
		return nil, nil, fmt.Errorf("%w: user not resolved", model.ErrAuthenticationFailed)
	}

	session, err := s.sessions.CreateOrRefresh(ctx, user.ID, s.config.SessionDuration)
	if err != nil {
		s.recordLogin(metrics.LoginFailure)
		return nil, nil, fmt.Errorf("failed to create session for user %d: %w", user.ID, err)
	}

	s.recordLogin(metrics.LoginSuccess)
	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return user, session, nil
}

// Logout はセッションを破棄する。空のトークンは何もしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

func (s *Service) recordLogin(result string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(result)
	}
}

// GenerateState はCSRF対策用のstateパラメータを生成する。
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateVerifier はPKCEのcode_verifierを生成する。
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}
