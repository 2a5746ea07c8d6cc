package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/efreitasn/crossbook/internal/engine"
	"github.com/efreitasn/crossbook/internal/service"
	"github.com/shopspring/decimal"
)

const defaultDepth = 10

// BookHandler handles HTTP requests for order entry and book queries.
type BookHandler struct {
	books *service.BookService
	scale domain.PriceScale
}

// NewBookHandler creates a new BookHandler. Prices on the wire are
// decimals converted to minor units at scale.
func NewBookHandler(books *service.BookService, scale domain.PriceScale) *BookHandler {
	return &BookHandler{books: books, scale: scale}
}

// addOrderRequest is the JSON request body for POST /bids and POST /asks.
// Price accepts a JSON number or a decimal string.
type addOrderRequest struct {
	Price         *decimal.Decimal `json:"price"`
	Quantity      int64            `json:"quantity"`
	SettlementRef string           `json:"settlement_ref"`
}

type orderResponse struct {
	OrderID       string `json:"order_id"`
	Side          string `json:"side"`
	Price         string `json:"price"`
	Quantity      int64  `json:"quantity"`
	SettlementRef string `json:"settlement_ref"`
	CreatedAt     string `json:"created_at"`
}

type bookLevelResponse struct {
	Price         string `json:"price"`
	TotalQuantity int64  `json:"total_quantity"`
	OrderCount    int    `json:"order_count"`
}

type bookResponse struct {
	Bids       []bookLevelResponse `json:"bids"`
	Asks       []bookLevelResponse `json:"asks"`
	BidCount   int                 `json:"bid_count"`
	AskCount   int                 `json:"ask_count"`
	BestBid    *string             `json:"best_bid"`
	BestAsk    *string             `json:"best_ask"`
	Spread     *string             `json:"spread"`
	SnapshotAt string              `json:"snapshot_at"`
}

type cancelResponse struct {
	Side    string `json:"side"`
	Price   string `json:"price"`
	Removed int    `json:"removed"`
}

type quoteLevelResponse struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type quoteResponse struct {
	Side              string               `json:"side"`
	QuantityRequested int64                `json:"quantity_requested"`
	QuantityAvailable int64                `json:"quantity_available"`
	FullyFillable     bool                 `json:"fully_fillable"`
	EstimatedAvgPrice *string              `json:"estimated_avg_price"`
	EstimatedTotal    *string              `json:"estimated_total"`
	PriceLevels       []quoteLevelResponse `json:"price_levels"`
	QuotedAt          string               `json:"quoted_at"`
}

// AddBid handles POST /bids.
func (h *BookHandler) AddBid(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, domain.SideBid)
}

// AddAsk handles POST /asks.
func (h *BookHandler) AddAsk(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, domain.SideAsk)
}

func (h *BookHandler) add(w http.ResponseWriter, r *http.Request, side domain.Side) {
	var req addOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Price == nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "price is required")
		return
	}

	price, err := h.scale.ToMinor(*req.Price)
	if err != nil {
		mapError(w, err)
		return
	}

	var order domain.Order
	if side == domain.SideBid {
		order, err = h.books.AddBid(price, req.Quantity, req.SettlementRef)
	} else {
		order, err = h.books.AddAsk(price, req.Quantity, req.SettlementRef)
	}
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, orderResponse{
		OrderID:       order.ID,
		Side:          string(side),
		Price:         h.scale.Format(order.Price),
		Quantity:      order.Quantity,
		SettlementRef: order.SettlementRef,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
	})
}

// CancelBids handles DELETE /bids?price=.
func (h *BookHandler) CancelBids(w http.ResponseWriter, r *http.Request) {
	h.cancel(w, r, domain.SideBid)
}

// CancelAsks handles DELETE /asks?price=.
func (h *BookHandler) CancelAsks(w http.ResponseWriter, r *http.Request) {
	h.cancel(w, r, domain.SideAsk)
}

func (h *BookHandler) cancel(w http.ResponseWriter, r *http.Request, side domain.Side) {
	raw := r.URL.Query().Get("price")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "price query parameter is required")
		return
	}
	price, err := h.scale.Parse(raw)
	if err != nil {
		mapError(w, err)
		return
	}

	removed, err := h.books.Cancel(side, price)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, cancelResponse{
		Side:    string(side),
		Price:   h.scale.Format(price),
		Removed: removed,
	})
}

// GetBook handles GET /book.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	// Parse depth query param (default 10, max 50).
	depth := defaultDepth
	if d := r.URL.Query().Get("depth"); d != "" {
		var err error
		depth, err = strconv.Atoi(d)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "depth must be a valid integer")
			return
		}
	}

	view, err := h.books.View(depth)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := bookResponse{
		Bids:       h.levels(view.Bids),
		Asks:       h.levels(view.Asks),
		BidCount:   view.BidCount,
		AskCount:   view.AskCount,
		SnapshotAt: time.Now().UTC().Format(time.RFC3339),
	}
	if view.BestBid != nil {
		v := h.scale.Format(view.BestBid.Price)
		resp.BestBid = &v
	}
	if view.BestAsk != nil {
		v := h.scale.Format(view.BestAsk.Price)
		resp.BestAsk = &v
	}
	if spread, ok := view.Spread(); ok {
		v := h.scale.Format(spread)
		resp.Spread = &v
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h *BookHandler) levels(in []engine.PriceLevel) []bookLevelResponse {
	out := make([]bookLevelResponse, len(in))
	for i, pl := range in {
		out[i] = bookLevelResponse{
			Price:         h.scale.Format(pl.Price),
			TotalQuantity: pl.TotalQuantity,
			OrderCount:    pl.OrderCount,
		}
	}
	return out
}

// GetQuote handles GET /quote?side=&quantity=.
func (h *BookHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	side := r.URL.Query().Get("side")

	quantity, err := strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "quantity must be a positive integer")
		return
	}

	quote, err := h.books.Quote(domain.Side(side), quantity)
	if err != nil {
		mapError(w, err)
		return
	}

	levels := make([]quoteLevelResponse, len(quote.PriceLevels))
	for i, pl := range quote.PriceLevels {
		levels[i] = quoteLevelResponse{
			Price:    h.scale.Format(pl.Price),
			Quantity: pl.Quantity,
		}
	}

	resp := quoteResponse{
		Side:              side,
		QuantityRequested: quantity,
		QuantityAvailable: quote.QuantityAvailable,
		FullyFillable:     quote.FullyFillable,
		PriceLevels:       levels,
		QuotedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	if quote.QuantityAvailable > 0 {
		total := h.scale.Format(quote.TotalCost)
		avg := h.scale.Decimal(quote.TotalCost).
			Div(decimal.NewFromInt(quote.QuantityAvailable)).
			StringFixed(int32(h.scale))
		resp.EstimatedTotal = &total
		resp.EstimatedAvgPrice = &avg
	}

	WriteJSON(w, http.StatusOK, resp)
}
