package stock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/inkworks-studio/inkworks/internal/platform/httpx"
	"github.com/inkworks-studio/inkworks/internal/shared"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validator    *validator.Validate
	listGroup    singleflight.Group
	maxBodyBytes int64
}

// NewHandler constructs the stock handler. maxBodyBytes caps request bodies,
// sized to admit the largest allowed image payload.
func NewHandler(logger *slog.Logger, service *Service, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), maxBodyBytes: maxBodyBytes}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.handleList)
	r.Get("/stock/{productID}", h.handleGetStock)
	r.Put("/stock/{productID}", h.handleQuickUpdate)
	r.Get("/deliveries", h.handleListDeliveries)
	r.Post("/deliveries", h.handleRecordDelivery)
	r.Get("/deliveries/{id}", h.handleGetDelivery)
}

type deliveryItemRequest struct {
	ProductID    int64       `json:"productId" validate:"required,gt=0"`
	ProductName  string      `json:"productName"`
	Quantity     json.Number `json:"quantity" validate:"required"`
	SellingPrice json.Number `json:"sellingPrice" validate:"required"`
}

type deliveryRequest struct {
	Supplier string                `json:"supplier" validate:"required"`
	Date     string                `json:"date" validate:"required"`
	Number   string                `json:"number"`
	Items    []deliveryItemRequest `json:"items" validate:"required,min=1,dive"`
}

type quickUpdateRequest struct {
	Quantity     *json.Number `json:"quantity"`
	SellingPrice *json.Number `json:"sellingPrice"`
	Image        *string      `json:"image"`
	Description  *string      `json:"description"`
	IsVisible    *bool        `json:"isVisible"`
}

func (h *Handler) handleRecordDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := httpx.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD", "DateOutOfWindow")
		return
	}

	input := DeliveryInput{
		Number:       req.Number,
		SupplierName: req.Supplier,
		DeliveryDate: date,
	}
	for _, item := range req.Items {
		qty, err := ParseQuantity(item.Quantity.String())
		if err != nil {
			h.respondDomainError(w, err)
			return
		}
		price, err := ParsePrice(item.SellingPrice.String())
		if err != nil {
			h.respondDomainError(w, err)
			return
		}
		input.Items = append(input.Items, DeliveryItemInput{
			ProductID:    item.ProductID,
			Quantity:     qty,
			SellingPrice: price,
		})
	}

	record, err := h.service.RecordDelivery(r.Context(), input)
	if err != nil {
		h.logger.Warn("record delivery rejected", slog.Any("error", err), slog.String("supplier", req.Supplier))
		h.respondDomainError(w, err)
		return
	}
	h.logger.Info("delivery reconciled",
		slog.String("number", record.Number),
		slog.String("supplier", record.SupplierName),
		slog.Int("items", len(record.Items)))
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) handleQuickUpdate(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var req quickUpdateRequest
	if err := httpx.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}

	input := QuickUpdateInput{
		Image:       req.Image,
		Description: req.Description,
		IsVisible:   req.IsVisible,
	}
	if req.Quantity != nil {
		qty, err := ParseQuantity(req.Quantity.String())
		if err != nil {
			h.respondDomainError(w, err)
			return
		}
		input.Quantity = &qty
	}
	if req.SellingPrice != nil {
		price, err := ParsePrice(req.SellingPrice.String())
		if err != nil {
			h.respondDomainError(w, err)
			return
		}
		input.SellingPrice = &price
	}

	result, err := h.service.QuickUpdate(r.Context(), productID, input)
	if err != nil {
		h.logger.Warn("quick update rejected", slog.Any("error", err), slog.Int64("product_id", productID))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true, "stock": result})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	// Coalesce concurrent listing loads. The load runs on a context detached
	// from the initiating request so one caller disconnecting does not fail
	// every waiter; each waiter still honors its own cancellation.
	ctx := r.Context()
	resultCh := h.listGroup.DoChan("list", func() (any, error) {
		return h.service.ListProductsWithStock(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		httpx.Problem(w, http.StatusServiceUnavailable, "Request Cancelled", ctx.Err().Error())
		return
	case res := <-resultCh:
		if res.Err != nil {
			h.logger.Error("list products with stock", slog.Any("error", res.Err))
			httpx.RespondError(w, res.Err)
			return
		}
		httpx.JSON(w, http.StatusOK, res.Val)
	}
}

func (h *Handler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	entry, err := h.service.GetStock(r.Context(), productID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.service.ListDeliveries(r.Context(), limit)
	if err != nil {
		h.logger.Error("list deliveries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid delivery id")
		return
	}
	record, err := h.service.GetDelivery(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

// respondDomainError maps ledger errors onto problem responses with
// machine-readable codes the UI uses to gate resubmission.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPriceBelowCost):
		httpx.ProblemCode(w, http.StatusUnprocessableEntity, "Price Below Cost", "selling price must exceed cost price", "PriceBelowCost")
	case errors.Is(err, ErrInvalidQuantity):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "InvalidQuantity")
	case errors.Is(err, ErrInvalidPrice):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "InvalidPrice")
	case errors.Is(err, ErrEmptyItems):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "EmptyItemList")
	case errors.Is(err, ErrSupplierRequired):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "SupplierRequired")
	case errors.Is(err, ErrDateOutOfWindow):
		httpx.ProblemCode(w, http.StatusBadRequest, "Validation Failed", err.Error(), "DateOutOfWindow")
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrDeliveryNotFound):
		httpx.ProblemCode(w, http.StatusNotFound, "Not Found", err.Error(), "NotFound")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.ProblemCode(w, http.StatusConflict, "Duplicate Delivery", err.Error(), "DuplicateDelivery")
	default:
		httpx.RespondError(w, err)
	}
}
