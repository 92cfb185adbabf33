package suppliers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkworks-studio/inkworks/internal/platform/httpx"
)

// Handler exposes supplier CRUD over HTTP.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validate     *validator.Validate
	maxBodyBytes int64
}

func NewHandler(logger *slog.Logger, service *Service, maxBodyBytes int64) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		validate:     validator.New(),
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{supplierID}", h.handleGet)
	r.Put("/{supplierID}", h.handleUpdate)
	r.Delete("/{supplierID}", h.handleDelete)
}

type supplierRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	Contact     string `json:"contact" validate:"omitempty,max=11"`
	Address     string `json:"address"`
}

type supplierListResponse struct {
	Suppliers []Supplier `json:"suppliers"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
		Page:    1,
		Limit:   50,
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		filters.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 200 {
		filters.Limit = v
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list suppliers", slog.String("error", err.Error()))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "failed to list suppliers")
		return
	}
	if list == nil {
		list = []Supplier{}
	}
	httpx.JSON(w, http.StatusOK, supplierListResponse{Suppliers: list, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier id")
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httpx.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	supplier, err := h.service.Create(r.Context(), Supplier{
		CompanyName: req.CompanyName,
		Contact:     req.Contact,
		Address:     req.Address,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier id")
		return
	}

	var req supplierRequest
	if err := httpx.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	supplier, err := h.service.Update(r.Context(), id, Supplier{
		CompanyName: req.CompanyName,
		Contact:     req.Contact,
		Address:     req.Address,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.ProblemCode(w, http.StatusNotFound, "Not Found", "supplier not found", "NotFound")
	case errors.Is(err, ErrCompanyNameRequired):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "CompanyNameRequired")
	case errors.Is(err, ErrInvalidContact):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "InvalidContact")
	default:
		h.logger.Error("supplier request failed", slog.String("error", err.Error()))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
