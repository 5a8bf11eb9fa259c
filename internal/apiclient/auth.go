package apiclient

import (
	"context"
	"net/http"

	"github.com/hitoshi/salesdash/internal/model"
)

// LoginRequest はログインAPIのリクエストボディ。
type LoginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// LoginResponse はログインAPIのレスポンス。
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login は認証情報をバックエンドに送信し、トークンとユーザー情報を受け取る。
// POST /login
func (c *Client) Login(ctx context.Context, email, password string, role model.Role) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, LoginRequest{
		Email:    email,
		Password: password,
		Role:     role,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
