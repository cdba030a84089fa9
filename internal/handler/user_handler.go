package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/codereview/internal/middleware"
	"github.com/hitoshi/codereview/internal/model"
)

// userResponse は現在のユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserHandler はログインユーザー情報のHTTPハンドラー。
type UserHandler struct{}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me は現在のログインユーザー情報を返す。
// GET /api/me
// セッションミドルウェアが注入したユーザーをそのまま返すため、ストアには問い合わせない。
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	})
}
