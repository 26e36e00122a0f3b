package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/loyalty-engine/internal/model"
	xhttp "github.com/nimasrn/loyalty-engine/pkg/http"
)

type HistoryService interface {
	SearchHistory(ctx context.Context, query string) ([]model.Transaction, *model.HistoryHeader, error)
}

type HistoryHandler struct {
	svc HistoryService
}

func NewHistoryHandler(svc HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

func RegisterHistoryRoutes(e *router.Group, h *HistoryHandler) {
	e.GET("/history/search", h.SearchHistory)
}

type historySearchResponse struct {
	Items  []model.Transaction  `json:"items"`
	Total  int                  `json:"total"`
	Header *model.HistoryHeader `json:"header,omitempty"`
}

func (h *HistoryHandler) SearchHistory(ctx *xhttp.RequestCtx) {
	items, header, err := h.svc.SearchHistory(ctx, query(ctx, "q"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, historySearchResponse{
		Items:  items,
		Total:  len(items),
		Header: header,
	})
}
