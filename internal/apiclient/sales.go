package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/salesdash/internal/model"
)

// DefaultPageLimit は売上一覧の1ページあたりの件数。
const DefaultPageLimit = 10

// filterQuery は絞り込み条件をクエリパラメータに変換する。空の条件は含めない。
func filterQuery(f model.SalesFilter, paged bool) url.Values {
	q := url.Values{}
	if paged {
		page := f.Page
		if page < 1 {
			page = 1
		}
		limit := f.Limit
		if limit < 1 {
			limit = DefaultPageLimit
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(limit))
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	if f.TeamLeadID != "" {
		q.Set("team_lead_id", f.TeamLeadID)
	}
	if f.SalespersonID != "" {
		q.Set("salesperson_id", f.SalespersonID)
	}
	return q
}

// ListSales は売上一覧を1ページ取得する。
// GET /sales
func (c *Client) ListSales(ctx context.Context, f model.SalesFilter) (*model.SalesPage, error) {
	var page model.SalesPage
	if err := c.do(ctx, http.MethodGet, "/sales", filterQuery(f, true), nil, &page); err != nil {
		return nil, err
	}
	if page.Sales == nil {
		page.Sales = []model.Sale{}
	}
	return &page, nil
}

// AddSale は売上を登録する。
// POST /sales/add
func (c *Client) AddSale(ctx context.Context, in model.SaleInput) error {
	return c.do(ctx, http.MethodPost, "/sales/add", nil, in, nil)
}

// EditSale は売上を更新する。
// PUT /sales/edit/{id}
func (c *Client) EditSale(ctx context.Context, id string, in model.SaleInput) error {
	return c.do(ctx, http.MethodPut, "/sales/edit/"+url.PathEscape(id), nil, in, nil)
}

// ApproveSale は売上を承認する。
// PUT /sales/approve/{id}
func (c *Client) ApproveSale(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/sales/approve/"+url.PathEscape(id), nil, nil, nil)
}

// DeleteSale は売上を削除する。
// DELETE /sales/delete/{id}
func (c *Client) DeleteSale(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sales/delete/"+url.PathEscape(id), nil, nil, nil)
}
