package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fasthttp/router"
	"github.com/nimasrn/loyalty-engine/internal/model"
	"github.com/nimasrn/loyalty-engine/internal/services"
	xhttp "github.com/nimasrn/loyalty-engine/pkg/http"
)

type LoyaltyService interface {
	RecordPurchase(ctx context.Context, req model.PurchaseRequest) (string, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	UpdateContactInfo(ctx context.Context, req model.ContactUpdateRequest) error
	DeleteCustomer(ctx context.Context, customerID string) error
	RedeemPoints(ctx context.Context, req model.RedeemRequest) error
	SearchCustomers(ctx context.Context, query string) ([]model.Customer, error)
}

type CustomerHandler struct {
	svc   LoyaltyService
	guard *services.IdempotencyGuard // nil when no redis is configured
}

func NewCustomerHandler(svc LoyaltyService, guard *services.IdempotencyGuard) *CustomerHandler {
	return &CustomerHandler{
		svc:   svc,
		guard: guard,
	}
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.POST("/purchases", h.RecordPurchase)
	e.GET("/customers", h.ListCustomers)
	e.GET("/customers/search", h.SearchCustomers)
	e.PUT("/customers/{id}/contact", h.UpdateContactInfo)
	e.DELETE("/customers/{id}", h.DeleteCustomer)
	e.POST("/customers/{id}/redeem", h.RedeemPoints)
}

type purchaseResponse struct {
	CustomerID string `json:"customer_id"`
}

type customerListResponse struct {
	Items []model.Customer `json:"items"`
	Total int              `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *CustomerHandler) RecordPurchase(ctx *xhttp.RequestCtx) {
	var req model.PurchaseRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	key := string(ctx.Request.Header.Peek("Idempotency-Key"))
	if h.guard != nil && key != "" {
		if err := h.guard.Begin(key); err != nil {
			if errors.Is(err, services.ErrAlreadySubmitted) {
				writeError(ctx, xhttp.StatusConflict, err.Error())
				return
			}
			writeError(ctx, xhttp.StatusConflict, "submission already in flight")
			return
		}
	}

	customerID, err := h.svc.RecordPurchase(ctx, req)
	if err != nil {
		if h.guard != nil && key != "" {
			h.guard.Rollback(key)
		}
		writeServiceError(ctx, err)
		return
	}
	if h.guard != nil && key != "" {
		_ = h.guard.Commit(key)
	}

	writeJSON(ctx, xhttp.StatusCreated, purchaseResponse{CustomerID: customerID})
}

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListCustomers(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, customerListResponse{Items: items, Total: len(items)})
}

func (h *CustomerHandler) SearchCustomers(ctx *xhttp.RequestCtx) {
	items, err := h.svc.SearchCustomers(ctx, query(ctx, "q"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, customerListResponse{Items: items, Total: len(items)})
}

func (h *CustomerHandler) UpdateContactInfo(ctx *xhttp.RequestCtx) {
	var req model.ContactUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.CustomerID = param(ctx, "id")

	if err := h.svc.UpdateContactInfo(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}

func (h *CustomerHandler) DeleteCustomer(ctx *xhttp.RequestCtx) {
	if err := h.svc.DeleteCustomer(ctx, param(ctx, "id")); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}

func (h *CustomerHandler) RedeemPoints(ctx *xhttp.RequestCtx) {
	var req model.RedeemRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.CustomerID = param(ctx, "id")

	if err := h.svc.RedeemPoints(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}

/* --------------------------------- Helpers ---------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps the engine's sentinel errors onto HTTP statuses. The
// rejected operation had no effect either way.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateMobile):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.Is(err, services.ErrRedeemBelowMinimum),
		errors.Is(err, services.ErrRedeemExceedsBalance):
		writeError(ctx, xhttp.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNegativeAmount):
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	default:
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func param(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}
