// Package tokenstore はバックエンド認証用トークンの永続化を提供する。
// 1つのStoreは固定キーの下に1つの文字列だけを保持する。
package tokenstore

import (
	"context"
	"errors"
)

// DefaultTokenKey はトークンを保存する固定キー。
const DefaultTokenKey = "token"

// ProfileKey はログインユーザー情報を保存するキー。
const ProfileKey = "user"

// ErrEmptyValue は空文字を保存しようとした場合のエラー。
var ErrEmptyValue = errors.New("tokenstore: empty value")

// Store は永続化された認証情報を保持するインターフェース。
// 有効期限は管理しない。期限切れはバックエンドの拒否で初めて判明する。
type Store interface {
	// Save は値を保存する。既存の値は上書きされる。
	Save(ctx context.Context, value string) error
	// Read は保存された値を返す。未保存の場合はokがfalseになる。
	Read(ctx context.Context) (value string, ok bool, err error)
	// Clear は保存された値を削除する。未保存でもエラーにはならない。
	Clear(ctx context.Context) error
}
