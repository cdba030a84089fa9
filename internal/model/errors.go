// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// エラー分類。呼び出し側はfmt.Errorfの%wでラップし、errors.Isで判定する。
var (
	// ErrUnauthenticated はトークン欠落・不一致・期限切れ・孤立セッションを表す。
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAuthenticationFailed はOAuthフローでユーザーを特定できなかったことを表す。
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrPersistence はストアが期待した行を返さなかったことを表す。
	ErrPersistence = errors.New("persistence error")
	// ErrConflict は一意制約違反を表す。再試行可能。
	ErrConflict = errors.New("conflict")
	// ErrValidation は入力値が不正であることを表す。
	ErrValidation = errors.New("validation error")
	// ErrModelUnavailable は推論サービスの呼び出しに失敗したことを表す。
	ErrModelUnavailable = errors.New("model unavailable")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, review, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeCSRFInvalid      = "CSRF_INVALID"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewUnauthenticatedError は未認証エラーを生成する。
// どの検査で失敗したかは含めない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidInputError は入力値エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewModelUnavailableError は推論サービス呼び出し失敗エラーを生成する。
func NewModelUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeModelUnavailable,
		Message:  "レビューモデルの呼び出しに失敗しました。",
		Category: "review",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterの秒数待ってから再度お試しください。",
	}
}

// NewCSRFInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
