package dashboard

import (
	"context"
	"io"
	"log/slog"

	"github.com/hitoshi/salesdash/internal/model"
)

// SuperAdmin はスーパー管理者ダッシュボードの操作。
type SuperAdmin struct {
	core
}

// NewSuperAdmin はSuperAdminを生成する。
func NewSuperAdmin(backend Backend, auth AuthFailureHandler, logger *slog.Logger) *SuperAdmin {
	return &SuperAdmin{core: newCore(backend, auth, logger)}
}

// Tabs はタブ構成を返す。
func (d *SuperAdmin) Tabs() []Tab {
	return []Tab{
		{ID: "sales", Title: "Sales"},
		{ID: "salespersons", Title: "Salespersons"},
		{ID: "admins", Title: "Admins"},
		{ID: "team-leads", Title: "Team Leads"},
	}
}

// ListSales は全売上を取得する。チームリーダーで絞り込める。
func (d *SuperAdmin) ListSales(ctx context.Context, f model.SalesFilter) (*model.SalesPage, error) {
	f.SalespersonID = ""
	page, err := d.backend.ListSales(ctx, f)
	return page, d.check(ctx, "list sales", err)
}

// ApproveSale は売上を承認する。
func (d *SuperAdmin) ApproveSale(ctx context.Context, id string) error {
	return d.check(ctx, "approve sale", d.backend.ApproveSale(ctx, id))
}

// DeleteSale は売上を削除する。
func (d *SuperAdmin) DeleteSale(ctx context.Context, id string) error {
	return d.check(ctx, "delete sale", d.backend.DeleteSale(ctx, id))
}

// ListSalespersons は営業担当者一覧を取得する。
func (d *SuperAdmin) ListSalespersons(ctx context.Context) ([]model.Salesperson, error) {
	list, err := d.backend.ListSalespersons(ctx)
	return list, d.check(ctx, "list salespersons", err)
}

// AddSalesperson は営業担当者を登録する。
func (d *SuperAdmin) AddSalesperson(ctx context.Context, in model.SalespersonInput) error {
	return d.check(ctx, "add salesperson", d.backend.AddSalesperson(ctx, in))
}

// RemoveSalesperson は営業担当者を削除する。
func (d *SuperAdmin) RemoveSalesperson(ctx context.Context, id string) error {
	return d.check(ctx, "remove salesperson", d.backend.RemoveSalesperson(ctx, id))
}

// AssignToTeamLead は営業担当者をチームリーダーに割り当てる。
func (d *SuperAdmin) AssignToTeamLead(ctx context.Context, salespersonID, teamLeadID string) error {
	return d.check(ctx, "assign salesperson", d.backend.AssignToTeamLead(ctx, salespersonID, teamLeadID))
}

// ListTeamLeads はチームリーダー一覧を取得する。
func (d *SuperAdmin) ListTeamLeads(ctx context.Context) ([]model.Member, error) {
	list, err := d.backend.ListTeamLeads(ctx)
	return list, d.check(ctx, "list team leads", err)
}

// AddTeamLead はチームリーダーを登録する。
func (d *SuperAdmin) AddTeamLead(ctx context.Context, in model.MemberInput) error {
	return d.check(ctx, "add team lead", d.backend.AddTeamLead(ctx, in))
}

// ListAdmins は管理者一覧を取得する。
func (d *SuperAdmin) ListAdmins(ctx context.Context) ([]model.Member, error) {
	list, err := d.backend.ListAdmins(ctx)
	return list, d.check(ctx, "list admins", err)
}

// AddAdmin は管理者を登録する。
func (d *SuperAdmin) AddAdmin(ctx context.Context, in model.MemberInput) error {
	return d.check(ctx, "add admin", d.backend.AddAdmin(ctx, in))
}

// ExportReport は売上レポートをCSVで書き出す。
func (d *SuperAdmin) ExportReport(ctx context.Context, f model.SalesFilter, w io.Writer) (int64, error) {
	f.SalespersonID = ""
	n, err := d.backend.ExportReport(ctx, f, w)
	return n, d.check(ctx, "export report", err)
}
