package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hitoshi/salesdash/internal/model"
)

// ExportReport は売上レポートをCSVで取得し、wにそのまま書き出す。
// CSVの内容はバックエンドが決めるため、ここでは解釈しない。
// GET /reports/export
func (c *Client) ExportReport(ctx context.Context, f model.SalesFilter, w io.Writer) (int64, error) {
	q := filterQuery(f, false)
	q.Set("format", "csv")

	req, err := c.newRequest(ctx, http.MethodGet, "/reports/export", q, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to copy report body: %w", err)
	}
	return n, nil
}
