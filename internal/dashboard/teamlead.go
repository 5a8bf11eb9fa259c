package dashboard

import (
	"context"
	"io"
	"log/slog"

	"github.com/hitoshi/salesdash/internal/model"
)

// TeamLead はチームリーダーダッシュボードの操作。
// 対象データの範囲（自チームのみ）はバックエンドがトークンから判断する。
type TeamLead struct {
	core
}

// NewTeamLead はTeamLeadを生成する。
func NewTeamLead(backend Backend, auth AuthFailureHandler, logger *slog.Logger) *TeamLead {
	return &TeamLead{core: newCore(backend, auth, logger)}
}

// Tabs はタブ構成を返す。
func (d *TeamLead) Tabs() []Tab {
	return []Tab{
		{ID: "sales", Title: "Sales"},
		{ID: "team", Title: "Team"},
	}
}

// ListSales は自チームの売上を取得する。営業担当者で絞り込める。
func (d *TeamLead) ListSales(ctx context.Context, f model.SalesFilter) (*model.SalesPage, error) {
	f.TeamLeadID = ""
	page, err := d.backend.ListSales(ctx, f)
	return page, d.check(ctx, "list sales", err)
}

// AddSale は売上を登録する。
func (d *TeamLead) AddSale(ctx context.Context, in model.SaleInput) error {
	return d.check(ctx, "add sale", d.backend.AddSale(ctx, in))
}

// EditSale は売上を更新する。
func (d *TeamLead) EditSale(ctx context.Context, id string, in model.SaleInput) error {
	return d.check(ctx, "edit sale", d.backend.EditSale(ctx, id, in))
}

// ListSalespersons は自チームの営業担当者一覧を取得する。
func (d *TeamLead) ListSalespersons(ctx context.Context) ([]model.Salesperson, error) {
	list, err := d.backend.ListSalespersons(ctx)
	return list, d.check(ctx, "list salespersons", err)
}

// AddSalesperson は営業担当者を登録する。
func (d *TeamLead) AddSalesperson(ctx context.Context, in model.SalespersonInput) error {
	in.TeamLeadID = ""
	return d.check(ctx, "add salesperson", d.backend.AddSalesperson(ctx, in))
}

// RemoveSalesperson は営業担当者を削除する。
func (d *TeamLead) RemoveSalesperson(ctx context.Context, id string) error {
	return d.check(ctx, "remove salesperson", d.backend.RemoveSalesperson(ctx, id))
}

// ExportReport は自チームの売上レポートをCSVで書き出す。
func (d *TeamLead) ExportReport(ctx context.Context, f model.SalesFilter, w io.Writer) (int64, error) {
	f.TeamLeadID = ""
	n, err := d.backend.ExportReport(ctx, f, w)
	return n, d.check(ctx, "export report", err)
}
