// Package handler はコンソールサーバーのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/salesdash/internal/guard"
	"github.com/hitoshi/salesdash/internal/model"
)

// SessionService は認証ハンドラーが必要とするセッション操作のインターフェース。
// session.Managerが実装する。
type SessionService interface {
	Login(ctx context.Context, email, password string, role model.Role) (model.Session, error)
	Logout(ctx context.Context) error
	Current() (model.Session, bool)
}

// AuthHandler はログイン・ログアウト関連のHTTPハンドラー。
type AuthHandler struct {
	sessions SessionService
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(sessions SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// roleOption はログイン画面のロール選択肢。
type roleOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// loginPageResponse はログイン画面の内容。
type loginPageResponse struct {
	Path  string       `json:"path"`
	Roles []roleOption `json:"roles"`
}

// sessionResponse はログイン中のユーザー情報。
type sessionResponse struct {
	User        model.User `json:"user"`
	Destination string     `json:"destination"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// logoutResponse はログアウト後の遷移先。
type logoutResponse struct {
	Destination string `json:"destination"`
}

// LoginPage はログイン画面の内容を返す。認証状態に関わらず常に表示する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	roles := make([]roleOption, 0, len(model.Roles()))
	for _, role := range model.Roles() {
		roles = append(roles, roleOption{Value: string(role), Label: role.DisplayName()})
	}
	writeJSON(w, http.StatusOK, loginPageResponse{Path: guard.LoginPath, Roles: roles})
}

// Login は資格情報とロールでログインし、ロールに応じた遷移先を返す。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email, req.Password, model.Role(req.Role))
	if err != nil {
		slog.Warn("login failed",
			slog.String("role", req.Role),
			slog.String("error", err.Error()),
		)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Logout はセッションを破棄し、ログイン画面を遷移先として返す。
// 保存先の削除に失敗してもメモリ上のセッションは破棄済みのため成功として応答する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, logoutResponse{Destination: guard.LoginPath})
}

// Me は現在のログインユーザー情報を返す。
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Current()
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func toSessionResponse(sess model.Session) sessionResponse {
	resp := sessionResponse{
		User:        sess.User(),
		Destination: guard.Destination(sess.Role),
	}
	if !sess.ExpiresAt.IsZero() {
		exp := sess.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}
