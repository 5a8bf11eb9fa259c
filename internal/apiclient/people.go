package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/salesdash/internal/model"
)

// ListSalespersons は営業担当者一覧を取得する。
// GET /salespersons
func (c *Client) ListSalespersons(ctx context.Context) ([]model.Salesperson, error) {
	out := []model.Salesperson{}
	if err := c.do(ctx, http.MethodGet, "/salespersons", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSalesperson は営業担当者を登録する。
// POST /salespersons/add
func (c *Client) AddSalesperson(ctx context.Context, in model.SalespersonInput) error {
	return c.do(ctx, http.MethodPost, "/salespersons/add", nil, in, nil)
}

// RemoveSalesperson は営業担当者を削除する。
// DELETE /salespersons/remove/{id}
func (c *Client) RemoveSalesperson(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/salespersons/remove/"+url.PathEscape(id), nil, nil, nil)
}

// AssignToTeamLead は営業担当者をチームリーダーに割り当てる。
// PUT /salespersons/assign-to-tl/{id}
func (c *Client) AssignToTeamLead(ctx context.Context, salespersonID, teamLeadID string) error {
	body := map[string]string{"team_lead_id": teamLeadID}
	return c.do(ctx, http.MethodPut, "/salespersons/assign-to-tl/"+url.PathEscape(salespersonID), nil, body, nil)
}

// ListTeamLeads はチームリーダー一覧を取得する。
// GET /salespersons/team-leads
func (c *Client) ListTeamLeads(ctx context.Context) ([]model.Member, error) {
	out := []model.Member{}
	if err := c.do(ctx, http.MethodGet, "/salespersons/team-leads", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddTeamLead はチームリーダーを登録する。
// POST /team-leads/add
func (c *Client) AddTeamLead(ctx context.Context, in model.MemberInput) error {
	return c.do(ctx, http.MethodPost, "/team-leads/add", nil, in, nil)
}

// ListAdmins は管理者一覧を取得する。
// GET /admins
func (c *Client) ListAdmins(ctx context.Context) ([]model.Member, error) {
	out := []model.Member{}
	if err := c.do(ctx, http.MethodGet, "/admins", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAdmin は管理者を登録する。
// POST /admins/add
func (c *Client) AddAdmin(ctx context.Context, in model.MemberInput) error {
	return c.do(ctx, http.MethodPost, "/admins/add", nil, in, nil)
}
