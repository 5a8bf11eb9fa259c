package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/salesdash/internal/apiclient"
	"github.com/hitoshi/salesdash/internal/model"
	"github.com/hitoshi/salesdash/internal/tokenstore"
)

// --- モック定義 ---

type mockAuthenticator struct {
	loginFn func(ctx context.Context, email, password string, role model.Role) (*apiclient.LoginResponse, error)
	calls   int
}

func (m *mockAuthenticator) Login(ctx context.Context, email, password string, role model.Role) (*apiclient.LoginResponse, error) {
	m.calls++
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password, role)
	}
	return nil, errors.New("not configured")
}

// failingStore は指定した操作でエラーを返すStore。
type failingStore struct {
	tokenstore.Store
	saveErr  error
	clearErr error
}

func (f *failingStore) Save(ctx context.Context, v string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, v)
}

func (f *failingStore) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Store.Clear(ctx)
}

func successfulLogin(token string, role model.Role) *mockAuthenticator {
	return &mockAuthenticator{
		loginFn: func(ctx context.Context, email, password string, r model.Role) (*apiclient.LoginResponse, error) {
			return &apiclient.LoginResponse{
				Token: token,
				User:  model.User{ID: "u-" + string(role), Name: "User " + string(role), Role: role},
			}, nil
		},
	}
}

func rejectingLogin(status int) *mockAuthenticator {
	return &mockAuthenticator{
		loginFn: func(ctx context.Context, email, password string, r model.Role) (*apiclient.LoginResponse, error) {
			return nil, &apiclient.StatusError{StatusCode: status, Message: "Invalid credentials"}
		},
	}
}

func newManager(auth Authenticator) (*Manager, *tokenstore.MemoryStore, *tokenstore.MemoryStore) {
	tokens := tokenstore.NewMemoryStore()
	profiles := tokenstore.NewMemoryStore()
	return NewManager(auth, tokens, profiles, nil, nil), tokens, profiles
}

// --- テスト ---

func TestNewManager_StartsAnonymous(t *testing.T) {
	m, _, _ := newManager(&mockAuthenticator{})
	if m.State() != StateAnonymous {
		t.Errorf("State = %s, want anonymous", m.State())
	}
	if _, ok := m.Current(); ok {
		t.Error("Current は ok=false であるべき")
	}
}

func TestLogin_TeamLead_Succeeds(t *testing.T) {
	ctx := context.Background()
	m, tokens, profiles := newManager(successfulLogin("tl-token", model.RoleTeamLead))

	sess, err := m.Login(ctx, "tl1@example.com", "password123", model.RoleTeamLead)
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	if sess.Role != model.RoleTeamLead {
		t.Errorf("Role = %s, want tl", sess.Role)
	}
	if m.State() != StateAuthenticated {
		t.Errorf("State = %s, want authenticated", m.State())
	}

	if tok, ok, _ := tokens.Read(ctx); !ok || tok != "tl-token" {
		t.Errorf("保存されたトークン = (%q, %v)", tok, ok)
	}
	if _, ok, _ := profiles.Read(ctx); !ok {
		t.Error("ユーザー情報が保存されていない")
	}
}

func TestLogin_InvalidRole_RejectedWithoutBackendCall(t *testing.T) {
	auth := successfulLogin("t", model.RoleAdmin)
	m, tokens, _ := newManager(auth)

	_, err := m.Login(context.Background(), "a@example.com", "pw", model.Role("owner"))

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRole {
		t.Fatalf("err = %v, want INVALID_ROLE", err)
	}
	if auth.calls != 0 {
		t.Error("無効なロールでバックエンドを呼んではならない")
	}
	if _, ok, _ := tokens.Read(context.Background()); ok {
		t.Error("トークンが保存されてはならない")
	}
}

func TestLogin_BadCredentials_NoStateChange(t *testing.T) {
	ctx := context.Background()
	m, tokens, profiles := newManager(rejectingLogin(401))

	_, err := m.Login(ctx, "a@example.com", "wrong", model.RoleAdmin)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthFailed {
		t.Fatalf("err = %v, want AUTH_FAILED", err)
	}
	if m.State() != StateAnonymous {
		t.Error("失敗したログインで状態が変わってはならない")
	}
	if _, ok, _ := tokens.Read(ctx); ok {
		t.Error("トークンが保存されてはならない")
	}
	if _, ok, _ := profiles.Read(ctx); ok {
		t.Error("ユーザー情報が保存されてはならない")
	}
}

func TestLogin_FailureWhileAuthenticated_KeepsSession(t *testing.T) {
	ctx := context.Background()
	auth := successfulLogin("admin-token", model.RoleAdmin)
	m, tokens, _ := newManager(auth)

	if _, err := m.Login(ctx, "admin1@example.com", "password123", model.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	auth.loginFn = rejectingLogin(401).loginFn
	if _, err := m.Login(ctx, "other@example.com", "wrong", model.RoleSuperAdmin); err == nil {
		t.Fatal("2回目のログインは失敗すべき")
	}

	sess, ok := m.Current()
	if !ok || sess.Role != model.RoleAdmin || sess.Token != "admin-token" {
		t.Errorf("既存セッションが維持されるべき: %+v (ok=%v)", sess, ok)
	}
	if tok, _, _ := tokens.Read(ctx); tok != "admin-token" {
		t.Errorf("トークン = %q, want admin-token", tok)
	}
}

func TestLogin_ServerError_NotClassifiedAsAuthFailure(t *testing.T) {
	m, _, _ := newManager(rejectingLogin(503))

	_, err := m.Login(context.Background(), "a@example.com", "pw", model.RoleAdmin)
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("5xx は認証失敗ではなく通信失敗として返すべき: %v", err)
	}
	var se *apiclient.StatusError
	if !errors.As(err, &se) {
		t.Errorf("元のStatusErrorがラップされているべき: %v", err)
	}
}

func TestLogin_ResponseWithInvalidRole_IsAuthFailure(t *testing.T) {
	ctx := context.Background()
	m, tokens, _ := newManager(successfulLogin("t", model.Role("guest")))

	_, err := m.Login(ctx, "a@example.com", "pw", model.RoleAdmin)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthFailed {
		t.Fatalf("err = %v, want AUTH_FAILED", err)
	}
	if _, ok, _ := tokens.Read(ctx); ok {
		t.Error("不正なレスポンスでトークンを保存してはならない")
	}
}

func TestLogin_ProfileSaveFails_RollsBackToken(t *testing.T) {
	ctx := context.Background()
	tokens := tokenstore.NewMemoryStore()
	profiles := &failingStore{Store: tokenstore.NewMemoryStore(), saveErr: errors.New("disk full")}
	m := NewManager(successfulLogin("new-token", model.RoleAdmin), tokens, profiles, nil, nil)

	if _, err := m.Login(ctx, "a@example.com", "pw", model.RoleAdmin); err == nil {
		t.Fatal("ユーザー情報の保存失敗はエラーになるべき")
	}
	if _, ok, _ := tokens.Read(ctx); ok {
		t.Error("トークンはロールバックされるべき")
	}
	if m.State() != StateAnonymous {
		t.Error("メモリ上の状態は変わってはならない")
	}
}

func TestLogin_ProfileSaveFails_RestoresPreviousToken(t *testing.T) {
	ctx := context.Background()
	tokens := tokenstore.NewMemoryStore()
	tokens.Save(ctx, "previous-token")
	profiles := &failingStore{Store: tokenstore.NewMemoryStore(), saveErr: errors.New("disk full")}
	m := NewManager(successfulLogin("new-token", model.RoleAdmin), tokens, profiles, nil, nil)

	if _, err := m.Login(ctx, "a@example.com", "pw", model.RoleAdmin); err == nil {
		t.Fatal("expected error")
	}
	if tok, _, _ := tokens.Read(ctx); tok != "previous-token" {
		t.Errorf("トークン = %q, want previous-token", tok)
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	m, tokens, profiles := newManager(successfulLogin("t", model.RoleSuperAdmin))
	if _, err := m.Login(ctx, "superadmin1@example.com", "password123", model.RoleSuperAdmin); err != nil {
		t.Fatal(err)
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout がエラーを返した: %v", err)
	}
	if m.State() != StateAnonymous {
		t.Error("ログアウト後は匿名であるべき")
	}
	if _, ok, _ := tokens.Read(ctx); ok {
		t.Error("トークンが残っている")
	}
	if _, ok, _ := profiles.Read(ctx); ok {
		t.Error("ユーザー情報が残っている")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, tokens, _ := newManager(successfulLogin("t", model.RoleAdmin))
	m.Login(ctx, "a@example.com", "pw", model.RoleAdmin)

	for i := 0; i < 2; i++ {
		if err := m.Logout(ctx); err != nil {
			t.Fatalf("Logout #%d がエラーを返した: %v", i+1, err)
		}
		if m.State() != StateAnonymous {
			t.Errorf("Logout #%d 後は匿名であるべき", i+1)
		}
		if _, ok, _ := tokens.Read(ctx); ok {
			t.Errorf("Logout #%d 後にトークンが残っている", i+1)
		}
	}
}

func TestLogout_StoreError_StillAnonymous(t *testing.T) {
	ctx := context.Background()
	tokens := &failingStore{Store: tokenstore.NewMemoryStore()}
	m := NewManager(successfulLogin("t", model.RoleAdmin), tokens, tokenstore.NewMemoryStore(), nil, nil)
	if _, err := m.Login(ctx, "a@example.com", "pw", model.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	tokens.clearErr = errors.New("io error")
	if err := m.Logout(ctx); err == nil {
		t.Error("保存先の削除失敗はエラーとして返すべき")
	}
	if m.State() != StateAnonymous {
		t.Error("削除に失敗してもメモリ上は匿名になるべき")
	}
}

func TestRestore_WithPersistedSession(t *testing.T) {
	ctx := context.Background()
	tokens := tokenstore.NewMemoryStore()
	profiles := tokenstore.NewMemoryStore()

	first := NewManager(successfulLogin("persisted", model.RoleTeamLead), tokens, profiles, nil, nil)
	if _, err := first.Login(ctx, "tl1@example.com", "password123", model.RoleTeamLead); err != nil {
		t.Fatal(err)
	}

	// 再起動相当: 同じストアで新しいManagerを作る
	auth := &mockAuthenticator{}
	second := NewManager(auth, tokens, profiles, nil, nil)
	state, err := second.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore がエラーを返した: %v", err)
	}
	if state != StateAuthenticated {
		t.Fatalf("state = %s, want authenticated", state)
	}
	sess, _ := second.Current()
	if sess.Role != model.RoleTeamLead || sess.Token != "persisted" {
		t.Errorf("復元されたセッション = %+v", sess)
	}
	if auth.calls != 0 {
		t.Error("復元時にバックエンドへ問い合わせてはならない")
	}
}

func TestRestore_NoToken_Anonymous(t *testing.T) {
	m, _, _ := newManager(&mockAuthenticator{})
	state, err := m.Restore(context.Background())
	if err != nil || state != StateAnonymous {
		t.Errorf("Restore = (%s, %v), want (anonymous, nil)", state, err)
	}
}

func TestRestore_TokenWithoutValidRole_Anonymous(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{"プロファイルなし", ""},
		{"壊れたJSON", "{"},
		{"不正なロール", `{"id":"u1","name":"x","role":"guest"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, tokens, profiles := newManager(&mockAuthenticator{})
			tokens.Save(ctx, "tok")
			if tt.profile != "" {
				profiles.Save(ctx, tt.profile)
			}

			state, err := m.Restore(ctx)
			if err != nil {
				t.Fatalf("Restore がエラーを返した: %v", err)
			}
			if state != StateAnonymous {
				t.Errorf("state = %s, want anonymous", state)
			}
		})
	}
}

func TestHandleAuthFailure_ForcesLogout(t *testing.T) {
	for _, status := range []int{401, 403} {
		ctx := context.Background()
		m, tokens, _ := newManager(successfulLogin("t", model.RoleAdmin))
		m.Login(ctx, "a@example.com", "pw", model.RoleAdmin)

		handled := m.HandleAuthFailure(ctx, &apiclient.StatusError{StatusCode: status})
		if !handled {
			t.Errorf("%d: handled = false, want true", status)
		}
		if m.State() != StateAnonymous {
			t.Errorf("%d: 強制ログアウトされるべき", status)
		}
		if _, ok, _ := tokens.Read(ctx); ok {
			t.Errorf("%d: トークンが残っている", status)
		}
	}
}

// 再ログイン前に送ったリクエストの401は新しいセッションを消さない
func TestHandleAuthFailure_SupersededToken_KeepsSession(t *testing.T) {
	ctx := context.Background()
	m, tokens, _ := newManager(successfulLogin("t2", model.RoleAdmin))
	m.Login(ctx, "a@example.com", "pw", model.RoleAdmin)

	handled := m.HandleAuthFailure(ctx, &apiclient.StatusError{StatusCode: 401, TokenUsed: "t1"})
	if handled {
		t.Error("handled = true, want false")
	}
	if m.State() != StateAuthenticated {
		t.Error("古いトークンの拒否でログアウトしてはならない")
	}
	if tok, ok, _ := tokens.Read(ctx); !ok || tok != "t2" {
		t.Errorf("保存されたトークン = (%q, %v), want t2", tok, ok)
	}
}

func TestHandleAuthFailure_CurrentToken_ForcesLogout(t *testing.T) {
	ctx := context.Background()
	m, tokens, _ := newManager(successfulLogin("t2", model.RoleAdmin))
	m.Login(ctx, "a@example.com", "pw", model.RoleAdmin)

	if !m.HandleAuthFailure(ctx, &apiclient.StatusError{StatusCode: 403, TokenUsed: "t2"}) {
		t.Error("handled = false, want true")
	}
	if m.State() != StateAnonymous {
		t.Error("現在のトークンが拒否されたら強制ログアウトされるべき")
	}
	if _, ok, _ := tokens.Read(ctx); ok {
		t.Error("トークンが残っている")
	}
}

func TestHandleAuthFailure_OtherErrors_Ignored(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(successfulLogin("t", model.RoleAdmin))
	m.Login(ctx, "a@example.com", "pw", model.RoleAdmin)

	for _, err := range []error{
		nil,
		errors.New("connection refused"),
		&apiclient.StatusError{StatusCode: 500},
		&apiclient.StatusError{StatusCode: 404},
	} {
		if m.HandleAuthFailure(ctx, err) {
			t.Errorf("HandleAuthFailure(%v) = true, want false", err)
		}
	}
	if m.State() != StateAuthenticated {
		t.Error("認証失敗以外でログアウトしてはならない")
	}
}

func TestLogin_JWTToken_ExposesExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	m, _, _ := newManager(successfulLogin(signed, model.RoleAdmin))
	sess, err := m.Login(context.Background(), "a@example.com", "pw", model.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, exp)
	}
}

func TestTokenExpiry_OpaqueToken_Zero(t *testing.T) {
	if got := tokenExpiry("opaque-token"); !got.IsZero() {
		t.Errorf("不透明トークンの期限はゼロ値であるべき: %v", got)
	}
}
