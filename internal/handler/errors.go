package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/salesdash/internal/apiclient"
	"github.com/hitoshi/salesdash/internal/dashboard"
	"github.com/hitoshi/salesdash/internal/middleware"
	"github.com/hitoshi/salesdash/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はセッション・ダッシュボード層から返されたエラーを
// 適切なHTTPステータスコードと統一エラーフォーマットに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// 強制ログアウト済み
	if errors.Is(err, dashboard.ErrSessionExpired) {
		middleware.WriteAPIError(w, model.NewSessionExpiredError())
		return
	}

	var se *apiclient.StatusError
	if errors.As(err, &se) && se.StatusCode >= http.StatusBadRequest && se.StatusCode < http.StatusInternalServerError {
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.StatusCode)
		}
		writeAPIErrorResponse(w, se.StatusCode, model.NewBackendRejectedError(msg))
		return
	}

	slog.Error("backend unavailable",
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteAPIError(w, model.NewBackendUnavailableError())
}

// decodeJSON はリクエストボディをvに読み込む。失敗した場合は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return false
	}
	return true
}
