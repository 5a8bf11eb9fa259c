package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/salesdash/internal/dashboard"
	"github.com/hitoshi/salesdash/internal/model"
)

// TeamLeadHandler はチームリーダーダッシュボードのHTTPハンドラー。
type TeamLeadHandler struct {
	d *dashboard.TeamLead
}

// NewTeamLeadHandler はTeamLeadHandlerを生成する。
func NewTeamLeadHandler(d *dashboard.TeamLead) *TeamLeadHandler {
	return &TeamLeadHandler{d: d}
}

// Routes はチームリーダーダッシュボードのルートを登録する。
func (h *TeamLeadHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/sales", h.ListSales)
	r.Post("/sales", h.AddSale)
	r.Put("/sales/{id}", h.EditSale)
	r.Get("/salespersons", h.ListSalespersons)
	r.Post("/salespersons", h.AddSalesperson)
	r.Delete("/salespersons/{id}", h.RemoveSalesperson)
	r.Get("/reports/export", h.ExportReport)
}

// Index はダッシュボードのトップを返す。
// GET /tl
func (h *TeamLeadHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeDashboard(w, r, "Team Lead Dashboard", h.d.Tabs())
}

// ListSales は自チームの売上一覧を返す。
// GET /tl/sales
func (h *TeamLeadHandler) ListSales(w http.ResponseWriter, r *http.Request) {
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

// AddSale は売上を登録する。
// POST /tl/sales
func (h *TeamLeadHandler) AddSale(w http.ResponseWriter, r *http.Request) {
	var in model.SaleInput
	if !decodeSale(w, r, &in) {
		return
	}
	if err := h.d.AddSale(r.Context(), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// EditSale は売上を更新する。
// PUT /tl/sales/{id}
func (h *TeamLeadHandler) EditSale(w http.ResponseWriter, r *http.Request) {
	var in model.SaleInput
	if !decodeSale(w, r, &in) {
		return
	}
	if err := h.d.EditSale(r.Context(), chi.URLParam(r, "id"), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSalespersons は自チームの営業担当者一覧を返す。
// GET /tl/salespersons
func (h *TeamLeadHandler) ListSalespersons(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.ListSalespersons(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddSalesperson は営業担当者を登録する。
// POST /tl/salespersons
func (h *TeamLeadHandler) AddSalesperson(w http.ResponseWriter, r *http.Request) {
	var in model.SalespersonInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" || in.Phone == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("name、phoneは必須です"))
		return
	}
	if err := h.d.AddSalesperson(r.Context(), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RemoveSalesperson は営業担当者を削除する。
// DELETE /tl/salespersons/{id}
func (h *TeamLeadHandler) RemoveSalesperson(w http.ResponseWriter, r *http.Request) {
	if err := h.d.RemoveSalesperson(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportReport は自チームの売上レポートをCSVで返す。
// GET /tl/reports/export
func (h *TeamLeadHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	serveExport(w, r, h.d.ExportReport)
}

// decodeSale は売上のボディを読み込み、必須項目を検証する。
func decodeSale(w http.ResponseWriter, r *http.Request, in *model.SaleInput) bool {
	if !decodeJSON(w, r, in) {
		return false
	}
	if in.PolicyNumber == "" || in.VehicleNumber == "" || in.SalespersonID == "" || in.Date == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("policy_number、vehicle_number、salesperson_id、dateは必須です"))
		return false
	}
	return true
}
