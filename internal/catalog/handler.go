package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkworks-studio/inkworks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the product catalog.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validator    *validator.Validate
	maxBodyBytes int64
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), maxBodyBytes: maxBodyBytes}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	CostPrice   float64 `json:"cost_price" validate:"gte=0"`
	Image       string  `json:"image"`
	IsVisible   *bool   `json:"is_visible"`
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	CostPrice   *float64 `json:"cost_price"`
	Image       *string  `json:"image"`
	IsVisible   *bool    `json:"is_visible"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	filters := ListFilters{
		Page:     page,
		Limit:    limit,
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   q.Get("sort"),
		SortDir:  q.Get("dir"),
	}
	if q.Get("is_visible") != "" {
		visible := q.Get("is_visible") == "true"
		filters.IsVisible = &visible
	}

	products, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products, "total": total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product := Product{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		CostPrice:   req.CostPrice,
		Image:       req.Image,
	}
	if req.IsVisible != nil {
		product.IsVisible = *req.IsVisible
	}
	created, err := h.service.Create(r.Context(), product, req.IsVisible != nil)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("product created", slog.Int64("id", created.ID), slog.String("name", created.Name))
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, PartialUpdate{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		CostPrice:   req.CostPrice,
		Image:       req.Image,
		IsVisible:   req.IsVisible,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrInvalidCostPrice):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("catalog operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
