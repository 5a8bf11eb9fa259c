// Package model はドメインモデルを定義する。
package model

import "time"

// User はバックエンドが返すログインユーザー情報を表す。
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Session は現在ログイン中のユーザーとその認証情報を表す。
// 1プロセスにつき同時に1つだけ存在する。
type Session struct {
	UserID string
	Name   string
	Role   Role
	Token  string

	// ExpiresAt はトークンがJWTの場合にexpクレームから取得した値。表示専用。
	ExpiresAt time.Time
}

// Authenticated はセッションが認証済みとして扱えるかを返す。
// ロールが不正なセッションは未認証とみなす。
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.Role.Valid()
}

// User はセッションのユーザー情報を返す。
func (s *Session) User() User {
	return User{ID: s.UserID, Name: s.Name, Role: s.Role}
}
