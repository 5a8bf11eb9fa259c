package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/salesdash/internal/guard"
	"github.com/hitoshi/salesdash/internal/metrics"
	"github.com/hitoshi/salesdash/internal/model"
)

// SessionSource は現在のセッションを提供するインターフェース。
// session.Managerが実装する。
type SessionSource interface {
	Current() (model.Session, bool)
}

type sessionContextKey struct{}

// SessionFromContext はガードを通過したリクエストのセッションを取り出す。
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(model.Session)
	return sess, ok
}

// NewGuardMiddleware はルートガードの判定を適用するミドルウェアを返す。
// 許可された場合はセッションをコンテキストに格納して次へ渡し、
// それ以外はログイン画面へ302でリダイレクトする。
// destinationはメトリクスのラベルに使うガード対象のパス。
func NewGuardMiddleware(sessions SessionSource, destination string, allowed []model.Role, mc metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var current *model.Session
			if sess, ok := sessions.Current(); ok {
				current = &sess
			}

			verdict := guard.Decide(current, allowed)
			mc.RecordGuardDecision(destination, string(verdict.Action))

			if !verdict.Allowed() {
				http.Redirect(w, r, verdict.Location, http.StatusFound)
				return
			}

			setLoggedRole(r.Context(), string(current.Role))
			ctx := context.WithValue(r.Context(), sessionContextKey{}, *current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
