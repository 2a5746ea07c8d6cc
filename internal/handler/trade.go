package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/efreitasn/crossbook/internal/service"
)

const defaultTradeLimit = 100

// TradeHandler handles HTTP requests for matching and trade history.
type TradeHandler struct {
	clearing *service.ClearingService
	scale    domain.PriceScale
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(clearing *service.ClearingService, scale domain.PriceScale) *TradeHandler {
	return &TradeHandler{clearing: clearing, scale: scale}
}

type tradeLegResponse struct {
	OrderID       string `json:"order_id"`
	Price         string `json:"price"`
	SettlementRef string `json:"settlement_ref"`
}

type tradeResponse struct {
	TradeID    string           `json:"trade_id"`
	Quantity   int64            `json:"quantity"`
	ExecutedAt string           `json:"executed_at"`
	Bid        tradeLegResponse `json:"bid"`
	Ask        tradeLegResponse `json:"ask"`
}

type matchResponse struct {
	Trades          []tradeResponse `json:"trades"`
	MatchedQuantity int64           `json:"matched_quantity"`
	SettlementError *string         `json:"settlement_error,omitempty"`
}

type tradesResponse struct {
	Trades []tradeResponse `json:"trades"`
}

// Match handles POST /match. It crosses the book once and returns the
// trades produced. If the settlement sink rejects them the response is
// 502 but still carries the trades, which have already executed.
func (h *TradeHandler) Match(w http.ResponseWriter, r *http.Request) {
	trades, err := h.clearing.Clear(r.Context())

	resp := matchResponse{Trades: h.trades(trades)}
	for _, t := range trades {
		resp.MatchedQuantity += t.Quantity
	}

	var settleErr *service.SettlementError
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, resp)
	case errors.As(err, &settleErr):
		msg := settleErr.Error()
		resp.SettlementError = &msg
		WriteJSON(w, http.StatusBadGateway, resp)
	default:
		mapError(w, err)
	}
}

// ListTrades handles GET /trades?limit=.
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := defaultTradeLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
	}

	WriteJSON(w, http.StatusOK, tradesResponse{Trades: h.trades(h.clearing.Recent(limit))})
}

func (h *TradeHandler) trades(in []domain.Trade) []tradeResponse {
	out := make([]tradeResponse, len(in))
	for i, t := range in {
		out[i] = tradeResponse{
			TradeID:    t.TradeID,
			Quantity:   t.Quantity,
			ExecutedAt: t.ExecutedAt.UTC().Format(time.RFC3339Nano),
			Bid:        h.leg(t.Bid),
			Ask:        h.leg(t.Ask),
		}
	}
	return out
}

func (h *TradeHandler) leg(o domain.Order) tradeLegResponse {
	return tradeLegResponse{
		OrderID:       o.ID,
		Price:         h.scale.Format(o.Price),
		SettlementRef: o.SettlementRef,
	}
}
