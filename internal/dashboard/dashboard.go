// Package dashboard はロール別ダッシュボードの操作を提供する。
// バックエンド呼び出しが401/403で拒否された場合はセッションを破棄し、ErrSessionExpiredを返す。
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hitoshi/salesdash/internal/model"
)

// ErrSessionExpired はバックエンドがトークンを拒否し、強制ログアウトしたことを示す。
var ErrSessionExpired = errors.New("session expired")

// Backend はダッシュボードが利用するバックエンドAPIのインターフェース。
// apiclient.Clientが実装する。
type Backend interface {
	ListSales(ctx context.Context, f model.SalesFilter) (*model.SalesPage, error)
	AddSale(ctx context.Context, in model.SaleInput) error
	EditSale(ctx context.Context, id string, in model.SaleInput) error
	ApproveSale(ctx context.Context, id string) error
	DeleteSale(ctx context.Context, id string) error

	ListSalespersons(ctx context.Context) ([]model.Salesperson, error)
	AddSalesperson(ctx context.Context, in model.SalespersonInput) error
	RemoveSalesperson(ctx context.Context, id string) error
	AssignToTeamLead(ctx context.Context, salespersonID, teamLeadID string) error

	ListTeamLeads(ctx context.Context) ([]model.Member, error)
	AddTeamLead(ctx context.Context, in model.MemberInput) error
	ListAdmins(ctx context.Context) ([]model.Member, error)
	AddAdmin(ctx context.Context, in model.MemberInput) error

	ExportReport(ctx context.Context, f model.SalesFilter, w io.Writer) (int64, error)
}

// AuthFailureHandler は認証拒否を受けたときの回復処理のインターフェース。
// session.Managerが実装する。
type AuthFailureHandler interface {
	HandleAuthFailure(ctx context.Context, err error) bool
}

// core は全ダッシュボードに共通する依存とエラー処理をまとめる。
type core struct {
	backend Backend
	auth    AuthFailureHandler
	logger  *slog.Logger
}

// check はバックエンドのエラーを検査し、認証拒否であれば強制ログアウトを行う。
// ローカルの状態には触れず、失敗は呼び出した操作だけに閉じる。
func (c *core) check(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if c.auth.HandleAuthFailure(ctx, err) {
		c.logger.Warn("backend rejected credentials; session cleared",
			slog.String("operation", op),
		)
		return fmt.Errorf("%s: %w: %w", op, ErrSessionExpired, err)
	}
	c.logger.Error("backend call failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w", op, err)
}

func newCore(backend Backend, auth AuthFailureHandler, logger *slog.Logger) core {
	if logger == nil {
		logger = slog.Default()
	}
	return core{backend: backend, auth: auth, logger: logger}
}

// Tab はダッシュボード内のタブ。
type Tab struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Set はロール別のダッシュボードをまとめたもの。
type Set struct {
	SuperAdmin *SuperAdmin
	Admin      *Admin
	TeamLead   *TeamLead
}

// NewSet は3つのダッシュボードを同じ依存で生成する。
func NewSet(backend Backend, auth AuthFailureHandler, logger *slog.Logger) *Set {
	return &Set{
		SuperAdmin: NewSuperAdmin(backend, auth, logger),
		Admin:      NewAdmin(backend, auth, logger),
		TeamLead:   NewTeamLead(backend, auth, logger),
	}
}
