package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/salesdash/internal/dashboard"
	"github.com/hitoshi/salesdash/internal/middleware"
	"github.com/hitoshi/salesdash/internal/model"
)

// dashboardResponse はダッシュボードのトップの内容。
type dashboardResponse struct {
	Title string          `json:"title"`
	User  model.User      `json:"user"`
	Tabs  []dashboard.Tab `json:"tabs"`
}

// assignRequest は営業担当者のチームリーダー割り当てリクエストのボディ。
type assignRequest struct {
	TeamLeadID string `json:"team_lead_id"`
}

// writeDashboard はガードを通過したセッションとタブ構成を返す。
func writeDashboard(w http.ResponseWriter, r *http.Request, title string, tabs []dashboard.Tab) {
	sess, _ := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, dashboardResponse{Title: title, User: sess.User(), Tabs: tabs})
}

// parseSalesFilter はクエリパラメータから売上の絞り込み条件を読み取る。
func parseSalesFilter(r *http.Request) (model.SalesFilter, *model.APIError) {
	q := r.URL.Query()
	f := model.SalesFilter{
		From:          q.Get("from"),
		To:            q.Get("to"),
		TeamLeadID:    q.Get("team_lead_id"),
		SalespersonID: q.Get("salesperson_id"),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil || f.Page < 1 {
			return f, model.NewInvalidRequestError("pageは1以上の整数で指定してください")
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 1 || f.Limit > 100 {
			return f, model.NewInvalidRequestError("limitは1から100の整数で指定してください")
		}
	}
	return f, nil
}

// exportFunc はレポート出力の関数シグネチャ。
type exportFunc func(ctx context.Context, f model.SalesFilter, w io.Writer) (int64, error)

// csvWriter は最初の書き込み時にCSVのレスポンスヘッダーを確定する。
// 書き込み前にエラーになった場合は統一エラーフォーマットで応答できる。
type csvWriter struct {
	w       http.ResponseWriter
	started bool
}

func (cw *csvWriter) Write(p []byte) (int, error) {
	if !cw.started {
		cw.started = true
		cw.w.Header().Set("Content-Type", "text/csv")
		cw.w.Header().Set("Content-Disposition", `attachment; filename="sales-report.csv"`)
		cw.w.WriteHeader(http.StatusOK)
	}
	return cw.w.Write(p)
}

// serveExport はバックエンドのCSVをそのままクライアントへ流す。
func serveExport(w http.ResponseWriter, r *http.Request, export exportFunc) {
	f, apiErr := parseSalesFilter(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	cw := &csvWriter{w: w}
	n, err := export(r.Context(), f, cw)
	if err != nil {
		if cw.started {
			// ヘッダー送信後は応答を変更できないため中断を記録するのみ
			slog.Error("report export interrupted",
				slog.Int64("bytes", n),
				slog.String("error", err.Error()),
			)
			return
		}
		handleServiceError(w, r, err)
		return
	}
	if !cw.started {
		cw.Write(nil)
	}
}

// --- スーパー管理者 ---

// SuperAdminHandler はスーパー管理者ダッシュボードのHTTPハンドラー。
type SuperAdminHandler struct {
	d *dashboard.SuperAdmin
}

// NewSuperAdminHandler はSuperAdminHandlerを生成する。
func NewSuperAdminHandler(d *dashboard.SuperAdmin) *SuperAdminHandler {
	return &SuperAdminHandler{d: d}
}

// Routes はスーパー管理者ダッシュボードのルートを登録する。
func (h *SuperAdminHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/sales", h.ListSales)
	r.Put("/sales/{id}/approve", h.ApproveSale)
	r.Delete("/sales/{id}", h.DeleteSale)
	r.Get("/salespersons", h.ListSalespersons)
	r.Post("/salespersons", h.AddSalesperson)
	r.Delete("/salespersons/{id}", h.RemoveSalesperson)
	r.Put("/salespersons/{id}/team-lead", h.AssignToTeamLead)
	r.Get("/team-leads", h.ListTeamLeads)
	r.Post("/team-leads", h.AddTeamLead)
	r.Get("/admins", h.ListAdmins)
	r.Post("/admins", h.AddAdmin)
	r.Get("/reports/export", h.ExportReport)
}

// Index はダッシュボードのトップを返す。
// GET /super-admin
func (h *SuperAdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeDashboard(w, r, "Super Admin Dashboard", h.d.Tabs())
}

// ListSales は売上一覧を返す。
// GET /super-admin/sales
func (h *SuperAdminHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	f, apiErr := parseSalesFilter(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	page, err := h.d.ListSales(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ApproveSale は売上を承認する。
// PUT /super-admin/sales/{id}/approve
func (h *SuperAdminHandler) ApproveSale(w http.ResponseWriter, r *http.Request) {
	if err := h.d.ApproveSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSale は売上を削除する。
// DELETE /super-admin/sales/{id}
func (h *SuperAdminHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.d.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSalespersons は営業担当者一覧を返す。
// GET /super-admin/salespersons
func (h *SuperAdminHandler) ListSalespersons(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.ListSalespersons(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddSalesperson は営業担当者を登録する。
// POST /super-admin/salespersons
func (h *SuperAdminHandler) AddSalesperson(w http.ResponseWriter, r *http.Request) {
	var in model.SalespersonInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("nameは必須です"))
		return
	}
	if err := h.d.AddSalesperson(r.Context(), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RemoveSalesperson は営業担当者を削除する。
// DELETE /super-admin/salespersons/{id}
func (h *SuperAdminHandler) RemoveSalesperson(w http.ResponseWriter, r *http.Request) {
	if err := h.d.RemoveSalesperson(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignToTeamLead は営業担当者をチームリーダーに割り当てる。
// PUT /super-admin/salespersons/{id}/team-lead
func (h *SuperAdminHandler) AssignToTeamLead(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TeamLeadID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("team_lead_idは必須です"))
		return
	}
	if err := h.d.AssignToTeamLead(r.Context(), chi.URLParam(r, "id"), req.TeamLeadID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTeamLeads はチームリーダー一覧を返す。
// GET /super-admin/team-leads
func (h *SuperAdminHandler) ListTeamLeads(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.ListTeamLeads(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddTeamLead はチームリーダーを登録する。
// POST /super-admin/team-leads
func (h *SuperAdminHandler) AddTeamLead(w http.ResponseWriter, r *http.Request) {
	var in model.MemberInput
	if !decodeMember(w, r, &in) {
		return
	}
	if err := h.d.AddTeamLead(r.Context(), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ListAdmins は管理者一覧を返す。
// GET /super-admin/admins
func (h *SuperAdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.ListAdmins(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddAdmin は管理者を登録する。
// POST /super-admin/admins
func (h *SuperAdminHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var in model.MemberInput
	if !decodeMember(w, r, &in) {
		return
	}
	if err := h.d.AddAdmin(r.Context(), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ExportReport は売上レポートをCSVで返す。
// GET /super-admin/reports/export
func (h *SuperAdminHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	serveExport(w, r, h.d.ExportReport)
}

// decodeMember はアカウント登録のボディを読み込み、必須項目を検証する。
func decodeMember(w http.ResponseWriter, r *http.Request, in *model.MemberInput) bool {
	if !decodeJSON(w, r, in) {
		return false
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("name、email、passwordは必須です"))
		return false
	}
	return true
}
