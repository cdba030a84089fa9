// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// GoogleIDは作成後に変更されない。
type User struct {
	ID        int64
	GoogleID  string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// 1ユーザーにつき最大1行のみ存在する。
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired はnowが有効期限を過ぎているかを返す。
// 有効期限と同時刻は期限切れとみなさない。
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// GoogleIdentity はGoogleから取得した検証済みのプロフィール情報を表す。
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
}
