// Package session はログイン状態（匿名／認証済み）の管理を提供する。
// Managerはアプリケーション起動時に1つ生成され、必要なコンポーネントに注入される。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/hitoshi/salesdash/internal/apiclient"
	"github.com/hitoshi/salesdash/internal/metrics"
	"github.com/hitoshi/salesdash/internal/model"
	"github.com/hitoshi/salesdash/internal/tokenstore"
)

// Authenticator はバックエンドへのログイン呼び出しのインターフェース。
// apiclient.Clientの部分集合として定義する。
type Authenticator interface {
	Login(ctx context.Context, email, password string, role model.Role) (*apiclient.LoginResponse, error)
}

// State はセッションの状態を表す。
type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// profile はトークンと並べて永続化するユーザー情報。
type profile struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Role model.Role `json:"role"`
}

// Manager は現在のセッションを保持し、ログイン・ログアウト・復元を行う。
//
// トークンはtokensに、ユーザー情報はprofilesに保存する。
// ログインは両方の保存とメモリ上の状態更新がすべて成功した場合にのみ反映される。
type Manager struct {
	auth     Authenticator
	tokens   tokenstore.Store
	profiles tokenstore.Store
	metrics  metrics.MetricsCollector
	logger   *slog.Logger

	// loginMu はログイン処理同士の書き込みが交差しないよう直列化する。
	loginMu sync.Mutex

	mu      sync.RWMutex
	current *model.Session
}

// NewManager はManagerを生成する。生成直後の状態は匿名。
func NewManager(auth Authenticator, tokens, profiles tokenstore.Store, mc metrics.MetricsCollector, logger *slog.Logger) *Manager {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		auth:     auth,
		tokens:   tokens,
		profiles: profiles,
		metrics:  mc,
		logger:   logger,
	}
}

// Current は現在のセッションのコピーを返す。匿名の場合はokがfalseになる。
func (m *Manager) Current() (model.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.current.Authenticated() {
		return model.Session{}, false
	}
	return *m.current, true
}

// State は現在の状態を返す。
func (m *Manager) State() State {
	if _, ok := m.Current(); ok {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Login はバックエンドで認証し、成功した場合にトークンとユーザー情報を保存する。
// 失敗した場合は状態を一切変更しない。認証済み状態での失敗もログアウトにはならない。
func (m *Manager) Login(ctx context.Context, email, password string, role model.Role) (model.Session, error) {
	if !role.Valid() {
		return model.Session{}, model.NewInvalidRoleError(string(role))
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Session{}, model.NewInvalidRequestError("email and password are required")
	}

	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	resp, err := m.auth.Login(ctx, email, password, role)
	if err != nil {
		m.metrics.RecordLogin(false)
		return model.Session{}, classifyLoginError(err)
	}
	if resp.Token == "" || !resp.User.Role.Valid() {
		m.metrics.RecordLogin(false)
		m.logger.Warn("backend returned unusable login response",
			slog.Bool("has_token", resp.Token != ""),
			slog.String("role", string(resp.User.Role)),
		)
		return model.Session{}, model.NewAuthFailedError("invalid login response")
	}

	sess := model.Session{
		UserID:    resp.User.ID,
		Name:      resp.User.Name,
		Role:      resp.User.Role,
		Token:     resp.Token,
		ExpiresAt: tokenExpiry(resp.Token),
	}

	if err := m.persist(ctx, sess); err != nil {
		m.metrics.RecordLogin(false)
		return model.Session{}, err
	}

	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()

	m.metrics.RecordLogin(true)
	m.logger.Info("user logged in",
		slog.String("user_id", sess.UserID),
		slog.String("role", string(sess.Role)),
	)
	return sess, nil
}

// persist はトークンとユーザー情報を保存する。
// ユーザー情報の保存に失敗した場合はトークンを元の値に戻す。
func (m *Manager) persist(ctx context.Context, sess model.Session) error {
	data, err := json.Marshal(profile{ID: sess.UserID, Name: sess.Name, Role: sess.Role})
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	prevToken, hadToken, err := m.tokens.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current token: %w", err)
	}

	if err := m.tokens.Save(ctx, sess.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if err := m.profiles.Save(ctx, string(data)); err != nil {
		var rbErr error
		if hadToken {
			rbErr = m.tokens.Save(ctx, prevToken)
		} else {
			rbErr = m.tokens.Clear(ctx)
		}
		if rbErr != nil {
			m.logger.Error("failed to roll back token after profile save failure",
				slog.String("error", rbErr.Error()),
			)
		}
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Logout はトークン・ユーザー情報・メモリ上のセッションを無条件に破棄する。
// 何度呼んでも結果は同じ。保存先の削除に失敗してもメモリ上は必ず匿名になる。
func (m *Manager) Logout(ctx context.Context) error {
	return m.logout(ctx, false)
}

func (m *Manager) logout(ctx context.Context, forced bool) error {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	var errs []error
	if err := m.tokens.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear token: %w", err))
	}
	if err := m.profiles.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear profile: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Error("logout could not clear persisted state", slog.String("error", err.Error()))
		return err
	}

	if prev != nil {
		m.metrics.RecordLogout(forced)
		m.logger.Info("user logged out",
			slog.String("user_id", prev.UserID),
			slog.Bool("forced", forced),
		)
	}
	return nil
}

// Restore は永続化されたトークンとユーザー情報からセッションを復元する。
// トークンの有効性はバックエンドに確認しない。最初の認証付き呼び出しが拒否されて初めて判明する。
// トークンがない、またはユーザー情報に有効なロールがない場合は匿名のままとなる。
func (m *Manager) Restore(ctx context.Context) (State, error) {
	token, ok, err := m.tokens.Read(ctx)
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok {
		m.setCurrent(nil)
		return StateAnonymous, nil
	}

	raw, ok, err := m.profiles.Read(ctx)
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to read profile: %w", err)
	}
	if !ok {
		m.logger.Warn("token found without profile; staying anonymous")
		m.setCurrent(nil)
		return StateAnonymous, nil
	}

	var p profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil || !p.Role.Valid() {
		m.logger.Warn("persisted profile is not usable; staying anonymous",
			slog.String("role", string(p.Role)),
		)
		m.setCurrent(nil)
		return StateAnonymous, nil
	}

	m.setCurrent(&model.Session{
		UserID:    p.ID,
		Name:      p.Name,
		Role:      p.Role,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	})
	m.logger.Info("session restored",
		slog.String("user_id", p.ID),
		slog.String("role", string(p.Role)),
	)
	return StateAuthenticated, nil
}

func (m *Manager) setCurrent(sess *model.Session) {
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
}

// HandleAuthFailure はバックエンド呼び出しのエラーが401/403であれば強制ログアウトし、trueを返す。
// それ以外のエラーでは何もせずfalseを返す。
// 拒否されたリクエストのトークンが現在のセッションのものと異なる場合は、
// 再ログイン前に送った古いリクエストの応答とみなし、ログアウトせずfalseを返す。
func (m *Manager) HandleAuthFailure(ctx context.Context, err error) bool {
	if !apiclient.IsAuthFailure(err) {
		return false
	}
	var se *apiclient.StatusError
	errors.As(err, &se)
	if m.superseded(se.TokenUsed) {
		m.logger.Info("ignoring auth failure for a superseded token",
			slog.String("path", se.Path),
			slog.Int("http_status", se.StatusCode),
		)
		return false
	}
	if logoutErr := m.logout(ctx, true); logoutErr != nil {
		m.logger.Error("forced logout failed", slog.String("error", logoutErr.Error()))
	}
	return true
}

// superseded は、usedが既知のトークンで、かつ現在のセッションのトークンと異なるかを返す。
// 送信時のトークンが不明な場合は従来どおり強制ログアウトの対象とする。
func (m *Manager) superseded(used string) bool {
	if used == "" {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.Token != "" && m.current.Token != used
}

// classifyLoginError はログイン呼び出しのエラーを利用者向けエラーに分類する。
// 4xxは認証失敗、それ以外（5xx・通信エラー）は元のエラーをそのまま返す。
func classifyLoginError(err error) error {
	var se *apiclient.StatusError
	if errors.As(err, &se) && se.StatusCode >= http.StatusBadRequest && se.StatusCode < http.StatusInternalServerError {
		reason := se.Message
		if reason == "" {
			reason = http.StatusText(se.StatusCode)
		}
		return model.NewAuthFailedError(reason)
	}
	return fmt.Errorf("login request failed: %w", err)
}
