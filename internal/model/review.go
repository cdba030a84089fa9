package model

import "time"

// Review はコードレビューの結果を表す。
// UserIDは投稿者が削除された場合0になる。
type Review struct {
	ID        int64
	UserID    int64
	Title     string
	Language  string
	Code      string
	Feedback  string
	ModelName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewInput はレビュー投稿リクエストの入力値。
// 空のフィールドにはサービス側でデフォルト値が補完される。
type ReviewInput struct {
	Title     string
	Language  string
	Code      string
	ModelName string
}
