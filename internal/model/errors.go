package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, backend, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCodeBackendRejected    = "BACKEND_REJECTED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnhealthy          = "UNHEALTHY"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewAuthFailedError はログイン失敗エラーを生成する。
func NewAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  fmt.Sprintf("ログインに失敗しました: %s", reason),
		Category: "auth",
		Action:   "メールアドレス、パスワード、ロールを確認してください。",
	}
}

// NewInvalidRoleError は未定義のロールが指定された場合のエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには super_admin、admin、tl のいずれかを指定してください。",
	}
}

// NewInvalidRequestError はリクエスト内容が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewNotAuthenticatedError は未ログイン状態での操作エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewSessionExpiredError はバックエンドがトークンを拒否した場合のエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションが無効になりました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewBackendUnavailableError はバックエンドとの通信に失敗した場合のエラーを生成する。
func NewBackendUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeBackendUnavailable,
		Message:  "データの取得に失敗しました。",
		Category: "backend",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewBackendRejectedError はバックエンドが操作を拒否した場合のエラーを生成する。
func NewBackendRejectedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeBackendRejected,
		Message:  fmt.Sprintf("操作が受け付けられませんでした: %s", message),
		Category: "backend",
		Action:   "入力内容を確認してください。",
	}
}

// NewRateLimitedError はログイン試行が多すぎる場合のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "ログインの試行回数が多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnhealthyError はトークンの保存先に接続できない場合のエラーを生成する。
func NewUnhealthyError() *APIError {
	return &APIError{
		Code:     ErrCodeUnhealthy,
		Message:  "トークンの保存先に接続できません。",
		Category: "system",
		Action:   "保存先の設定と稼働状況を確認してください。",
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
