// Package apiclient は営業管理バックエンドREST APIのクライアントを提供する。
// 認証ヘッダーの付与は渡されたhttp.Clientのトランスポート（interceptor）が行う。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBodySize はエラーレスポンスから読み取る最大バイト数。
const maxErrorBodySize = 64 * 1024

// StatusError はバックエンドが2xx以外を返した場合のエラー。
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string

	// TokenUsed は拒否されたリクエストに付与されていたトークン。未付与なら空。
	// Error() には含めない。
	TokenUsed string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// IsAuthFailure はエラーがバックエンドの認証・認可拒否（401/403）かどうかを返す。
func IsAuthFailure(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}

// Client はバックエンドAPIのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	// RequestTimeout はJSON APIの1回の呼び出しの上限時間。0は無制限。
	// レポート出力のストリーミングには適用しない。
	RequestTimeout time.Duration
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはAPIのルート（例: "http://localhost:5000/api"）を指定する。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// BaseURL はAPIのルートURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest はJSONボディを持つリクエストを生成する。
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "salesdash/1.0")

	return req, nil
}

// send はリクエストを送信し、2xx以外のレスポンスをStatusErrorに変換する。
// 成功時のレスポンスボディは呼び出し元が閉じる。
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		se := &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
			TokenUsed:  bearerToken(resp.Request),
		}
		c.logger.Warn("backend returned error status",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, se
	}

	return resp, nil
}

// bearerToken は実際に送信されたリクエストのBearerトークンを返す。
func bearerToken(req *http.Request) string {
	if req == nil {
		return ""
	}
	token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// do はJSONリクエストを送信し、outが非nilならレスポンスをデコードする。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

// readErrorMessage はエラーレスポンスのボディからメッセージを取り出す。
// JSONの message / error フィールドを優先し、なければ本文をそのまま使う。
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}
