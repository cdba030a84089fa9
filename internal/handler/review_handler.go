package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/codereview/internal/middleware"
	"github.com/hitoshi/codereview/internal/model"
)

// maxReviewRequestBytes はレビュー投稿リクエストボディの上限。
const maxReviewRequestBytes = 1 << 20

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	// Submit はコードをモデルに送りレビューを保存する。
	Submit(ctx context.Context, userID int64, input model.ReviewInput) (*model.Review, error)
	// ListByUser はユーザーのレビューを新しい順に返す。
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Review, error)
}

// ReviewHandler はコードレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

// submitReviewRequest はレビュー投稿リクエストのボディ。
type submitReviewRequest struct {
	Title     string `json:"title"`
	Language  string `json:"language"`
	Code      string `json:"code"`
	ModelName string `json:"model_name"`
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Feedback  string    `json:"feedback"`
	ModelName string    `json:"model_name"`
	CreatedAt time.Time `json:"created_at"`
}

// reviewListResponse はレビュー一覧のAPIレスポンス。
type reviewListResponse struct {
	Reviews []reviewResponse `json:"reviews"`
}

// Submit はコードレビューを投稿する。
// POST /api/reviews
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req submitReviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReviewRequestBytes)).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("リクエストボディの解析に失敗しました"))
		return
	}

	review, err := h.service.Submit(r.Context(), userID, model.ReviewInput{
		Title:     req.Title,
		Language:  req.Language,
		Code:      req.Code,
		ModelName: req.ModelName,
	})
	if err != nil {
		middleware.WriteDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toReviewResponse(review))
}

// List は自分のレビュー一覧を返す。
// GET /api/reviews?limit=N
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("limitは1以上の整数で指定してください"))
			return
		}
	}

	reviews, err := h.service.ListByUser(r.Context(), userID, limit)
	if err != nil {
		middleware.WriteDomainError(w, r, err)
		return
	}

	resp := reviewListResponse{Reviews: make([]reviewResponse, 0, len(reviews))}
	for _, review := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(review))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toReviewResponse(review *model.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		Title:     review.Title,
		Language:  review.Language,
		Code:      review.Code,
		Feedback:  review.Feedback,
		ModelName: review.ModelName,
		CreatedAt: review.CreatedAt,
	}
}
