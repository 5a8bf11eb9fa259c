package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/salesdash/internal/dashboard"
	"github.com/hitoshi/salesdash/internal/model"
)

// AdminHandler は管理者ダッシュボードのHTTPハンドラー。
type AdminHandler struct {
	d *dashboard.Admin
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(d *dashboard.Admin) *AdminHandler {
	return &AdminHandler{d: d}
}

// Routes は管理者ダッシュボードのルートを登録する。
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/sales", h.ListSales)
	r.Get("/sales/pending", h.ListPendingSales)
	r.Put("/sales/{id}/approve", h.ApproveSale)
	r.Get("/salespersons", h.ListSalespersons)
	r.Put("/salespersons/{id}/team-lead", h.AssignToTeamLead)
	r.Get("/team-leads", h.ListTeamLeads)
	r.Post("/team-leads", h.AddTeamLead)
	r.Get("/reports/export", h.ExportReport)
}

// Index はダッシュボードのトップを返す。
// GET /admin
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeDashboard(w, r, "Admin Dashboard", h.d.Tabs())
}

// ListSales は売上一覧を返す。
// GET /admin/sales
func (h *AdminHandler) ListSales(w http.ResponseWriter, r *http.Request) {
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

// ListPendingSales は承認待ちの売上一覧を返す。
// GET /admin/sales/pending
func (h *AdminHandler) ListPendingSales(w http.ResponseWriter, r *http.Request) {
	f, apiErr := parseSalesFilter(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	page, err := h.d.ListPendingSales(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ApproveSale は売上を承認する。
// PUT /admin/sales/{id}/approve
func (h *AdminHandler) ApproveSale(w http.ResponseWriter, r *http.Request) {
	if err := h.d.ApproveSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSalespersons は営業担当者一覧を返す。
// GET /admin/salespersons
func (h *AdminHandler) ListSalespersons(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.ListSalespersons(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AssignToTeamLead は営業担当者をチームリーダーに割り当てる。
// PUT /admin/salespersons/{id}/team-lead
func (h *AdminHandler) AssignToTeamLead(w http.ResponseWriter, r *http.Request) {
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
// GET /admin/team-leads
func (h *AdminHandler) ListTeamLeads(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.ListTeamLeads(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddTeamLead はチームリーダーを登録する。
// POST /admin/team-leads
func (h *AdminHandler) AddTeamLead(w http.ResponseWriter, r *http.Request) {
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

// ExportReport は売上レポートをCSVで返す。
// GET /admin/reports/export
func (h *AdminHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	serveExport(w, r, h.d.ExportReport)
}
