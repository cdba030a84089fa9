// Package review はコードレビューの投稿と一覧を提供する。
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/codereview/internal/metrics"
	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/ollama"
	"github.com/hitoshi/codereview/internal/repository"
	"github.com/hitoshi/codereview/internal/security"
)

// 入力のデフォルト値。
const (
	DefaultTitle    = "Untitled Review"
	DefaultLanguage = "javascript"
	DefaultModel    = "llama3.2"
)

// 入力の上限。
const (
	MaxTitleLength    = 200
	MaxLanguageLength = 50
	MaxModelLength    = 100
	MaxCodeBytes      = 64 << 10

	DefaultListLimit = 20
	MaxListLimit     = 100
)

const systemPrompt = `You are an experienced software engineer performing a code review.
Point out bugs, security problems, readability issues and performance concerns.
For each finding, explain why it matters and suggest a concrete improvement.
Answer in Markdown.`

// ChatClient は推論サービスのクライアント。
type ChatClient interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (*ollama.ChatResponse, error)
}

// Service はレビュー投稿のサービス層。
type Service struct {
	reviews      repository.ReviewRepository
	chat         ChatClient
	sanitizer    security.TextSanitizerService
	recorder     metrics.MetricsCollector
	defaultModel string
}

// NewService はServiceを生成する。defaultModelが空の場合はDefaultModelを使う。
func NewService(
	reviews repository.ReviewRepository,
	chat ChatClient,
	sanitizer security.TextSanitizerService,
	recorder metrics.MetricsCollector,
	defaultModel string,
) *Service {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Service{
		reviews:      reviews,
		chat:         chat,
		sanitizer:    sanitizer,
		recorder:     recorder,
		defaultModel: defaultModel,
	}
}

// Submit はコードをモデルに送り、得られたフィードバックをレビューとして保存する。
// userIDは認証済みユーザーのIDであること。
func (s *Service) Submit(ctx context.Context, userID int64, input model.ReviewInput) (*model.Review, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, fmt.Errorf("code is required: %w", model.ErrValidation)
	}
	if len(input.Code) > MaxCodeBytes {
		return nil, fmt.Errorf("code exceeds %d bytes: %w", MaxCodeBytes, model.ErrValidation)
	}

	title := s.sanitizer.Sanitize(input.Title, MaxTitleLength)
	if title == "" {
		title = DefaultTitle
	}
	language := s.sanitizer.Sanitize(input.Language, MaxLanguageLength)
	if language == "" {
		language = DefaultLanguage
	}
	modelName := s.sanitizer.Sanitize(input.ModelName, MaxModelLength)
	if modelName == "" {
		modelName = s.defaultModel
	}

	messages := []ollama.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(language, input.Code)},
	}

	start := time.Now()
	resp, err := s.chat.Chat(ctx, modelName, messages)
	elapsed := time.Since(start)
	if err != nil {
		if s.recorder != nil {
			s.recorder.RecordModelFailure(modelName)
		}
		slog.Warn("model call failed",
			slog.Int64("user_id", userID),
			slog.String("model", modelName),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", model.ErrModelUnavailable, err)
	}
	if s.recorder != nil {
		s.recorder.RecordModelLatency(elapsed)
	}

	created, err := s.reviews.Create(ctx, &model.Review{
		UserID:    userID,
		Title:     title,
		Language:  language,
		Code:      input.Code,
		Feedback:  resp.Message.Content,
		ModelName: modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("review store returned no row: %w", model.ErrPersistence)
	}

	if s.recorder != nil {
		s.recorder.RecordReviewSubmitted(modelName)
	}
	slog.Info("review created",
		slog.Int64("review_id", created.ID),
		slog.Int64("user_id", userID),
		slog.String("model", modelName),
		slog.String("language", language),
		slog.Duration("elapsed", elapsed),
	)

	return created, nil
}

// ListByUser はユーザーのレビューを新しい順に返す。
// limitは1からMaxListLimitの範囲に丸める。0以下はDefaultListLimit。
func (s *Service) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Review, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	reviews, err := s.reviews.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func buildUserPrompt(language, code string) string {
	return fmt.Sprintf("Language: %s\nCode:\n%s\n\nPlease analyze the above code and provide constructive feedback with suggestions for improvement.", language, code)
}
