package dashboard

import (
	"context"
	"io"
	"log/slog"

	"github.com/hitoshi/salesdash/internal/model"
)

// Admin は管理者ダッシュボードの操作。
type Admin struct {
	core
}

// NewAdmin はAdminを生成する。
func NewAdmin(backend Backend, auth AuthFailureHandler, logger *slog.Logger) *Admin {
	return &Admin{core: newCore(backend, auth, logger)}
}

// Tabs はタブ構成を返す。
func (d *Admin) Tabs() []Tab {
	return []Tab{
		{ID: "sales", Title: "Sales"},
		{ID: "approvals", Title: "Approvals"},
		{ID: "salespersons", Title: "Salespersons"},
	}
}

// ListSales は売上を取得する。
func (d *Admin) ListSales(ctx context.Context, f model.SalesFilter) (*model.SalesPage, error) {
	f.SalespersonID = ""
	page, err := d.backend.ListSales(ctx, f)
	return page, d.check(ctx, "list sales", err)
}

// ListPendingSales は承認待ちの売上を取得する。
// バックエンドに状態での絞り込みがないため、取得したページから承認済みを除く。
// ページング情報はバックエンドの値をそのまま返す。
func (d *Admin) ListPendingSales(ctx context.Context, f model.SalesFilter) (*model.SalesPage, error) {
	page, err := d.ListSales(ctx, f)
	if err != nil {
		return nil, err
	}

	pending := make([]model.Sale, 0, len(page.Sales))
	for _, s := range page.Sales {
		if s.Status != model.SaleStatusApproved {
			pending = append(pending, s)
		}
	}
	return &model.SalesPage{Sales: pending, Pagination: page.Pagination}, nil
}

// ApproveSale は売上を承認する。
func (d *Admin) ApproveSale(ctx context.Context, id string) error {
	return d.check(ctx, "approve sale", d.backend.ApproveSale(ctx, id))
}

// ListSalespersons は営業担当者一覧を取得する。
func (d *Admin) ListSalespersons(ctx context.Context) ([]model.Salesperson, error) {
	list, err := d.backend.ListSalespersons(ctx)
	return list, d.check(ctx, "list salespersons", err)
}

// AssignToTeamLead は営業担当者をチームリーダーに割り当てる。
func (d *Admin) AssignToTeamLead(ctx context.Context, salespersonID, teamLeadID string) error {
	return d.check(ctx, "assign salesperson", d.backend.AssignToTeamLead(ctx, salespersonID, teamLeadID))
}

// ListTeamLeads はチームリーダー一覧を取得する。
func (d *Admin) ListTeamLeads(ctx context.Context) ([]model.Member, error) {
	list, err := d.backend.ListTeamLeads(ctx)
	return list, d.check(ctx, "list team leads", err)
}

// AddTeamLead はチームリーダーを登録する。
func (d *Admin) AddTeamLead(ctx context.Context, in model.MemberInput) error {
	return d.check(ctx, "add team lead", d.backend.AddTeamLead(ctx, in))
}

// ExportReport は売上レポートをCSVで書き出す。
func (d *Admin) ExportReport(ctx context.Context, f model.SalesFilter, w io.Writer) (int64, error) {
	f.SalespersonID = ""
	n, err := d.backend.ExportReport(ctx, f, w)
	return n, d.check(ctx, "export report", err)
}
