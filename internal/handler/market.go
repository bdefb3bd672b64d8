package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
	"github.com/quotelab/marketsim/internal/engine"
)

// MarketHandler serves snapshots of instruments, books, trades, and
// participant ledgers.
type MarketHandler struct {
	engine *engine.Engine
}

// NewMarketHandler creates a MarketHandler over the given engine.
func NewMarketHandler(eng *engine.Engine) *MarketHandler {
	return &MarketHandler{engine: eng}
}

type instrumentResponse struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	BasePrice    decimal.Decimal `json:"base_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Shares       int64           `json:"shares"`
}

type orderResponse struct {
	OrderID   string          `json:"order_id"`
	OwnerID   string          `json:"owner_id"`
	Side      string          `json:"side"`
	Remaining int64           `json:"remaining"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

type bookResponse struct {
	Symbol string          `json:"symbol"`
	Buys   []orderResponse `json:"buys"`
	Sells  []orderResponse `json:"sells"`
}

type tradeResponse struct {
	TradeID    string          `json:"trade_id"`
	BuyerID    string          `json:"buyer_id"`
	SellerID   string          `json:"seller_id"`
	Symbol     string          `json:"symbol"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executed_at"`
}

type ledgerResponse struct {
	ID       string           `json:"id"`
	Cash     decimal.Decimal  `json:"cash"`
	Holdings map[string]int64 `json:"holdings"`
}

type participantsResponse struct {
	Buyers  []ledgerResponse `json:"buyers"`
	Sellers []ledgerResponse `json:"sellers"`
}

// ListInstruments returns every listed instrument with its current quote.
func (h *MarketHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	views := h.engine.InstrumentViews()
	out := make([]instrumentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, instrumentResponse{
			Symbol:       v.Symbol,
			Name:         v.Name,
			BasePrice:    v.BasePrice,
			CurrentPrice: v.CurrentPrice,
			Shares:       v.Shares,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

// GetBook returns the resting orders for one instrument, both sides in
// priority order.
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if _, err := h.engine.Quote(symbol); err != nil {
		WriteError(w, http.StatusNotFound, "instrument_not_found", "Unknown instrument: "+symbol)
		return
	}
	WriteJSON(w, http.StatusOK, bookResponse{
		Symbol: symbol,
		Buys:   toOrderResponses(h.engine.BuyOffers(symbol)),
		Sells:  toOrderResponses(h.engine.SellOffers(symbol)),
	})
}

// ListTrades returns the full trade history in execution order.
func (h *MarketHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	history := h.engine.History()
	out := make([]tradeResponse, 0, len(history))
	for _, t := range history {
		out = append(out, tradeResponse{
			TradeID:    t.ID.String(),
			BuyerID:    t.BuyerID,
			SellerID:   t.SellerID,
			Symbol:     t.Symbol,
			Quantity:   t.Quantity,
			Price:      t.Price,
			ExecutedAt: t.ExecutedAt,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

// ListParticipants returns snapshots of every registered ledger.
func (h *MarketHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	buyers, sellers := h.engine.Ledgers()
	WriteJSON(w, http.StatusOK, participantsResponse{
		Buyers:  toLedgerResponses(buyers),
		Sellers: toLedgerResponses(sellers),
	})
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse{
			OrderID:   o.ID.String(),
			OwnerID:   o.OwnerID,
			Side:      string(o.Side),
			Remaining: o.Remaining,
			Price:     o.Price,
			CreatedAt: o.CreatedAt,
		})
	}
	return out
}

func toLedgerResponses(ledgers []*domain.Ledger) []ledgerResponse {
	out := make([]ledgerResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, ledgerResponse{
			ID:       l.ID,
			Cash:     l.Cash,
			Holdings: l.Holdings,
		})
	}
	return out
}
