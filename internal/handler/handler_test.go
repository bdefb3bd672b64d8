package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
	"github.com/quotelab/marketsim/internal/engine"
)

func newTestRouter() (http.Handler, *engine.Engine) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(nil, rand.New(rand.NewSource(1)), log)
	eng.ListInstrument(domain.NewInstrument("AAPL", "Apple", decimal.NewFromInt(150), 1000))

	eng.RegisterBuyer(domain.NewLedger("B1", decimal.NewFromInt(10000)))
	seller := domain.NewLedger("S1", decimal.Zero)
	seller.Holdings["AAPL"] = 50
	eng.RegisterSeller(seller)

	return NewRouter(eng, log), eng
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter()
	rec := get(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListInstruments(t *testing.T) {
	h, _ := newTestRouter()
	rec := get(t, h, "/instruments")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out []instrumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Symbol != "AAPL" {
		t.Fatalf("unexpected instruments: %+v", out)
	}
	if !out[0].CurrentPrice.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected current price 150, got %s", out[0].CurrentPrice)
	}
}

func TestGetBook(t *testing.T) {
	h, eng := newTestRouter()
	eng.Submit(domain.NewOrder("S1", "AAPL", domain.SideSell, 10, decimal.NewFromInt(149)))
	eng.Submit(domain.NewOrder("B1", "AAPL", domain.SideBuy, 5, decimal.NewFromInt(140)))

	rec := get(t, h, "/instruments/AAPL/book")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out bookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Sells) != 1 || len(out.Buys) != 1 {
		t.Fatalf("expected 1 sell and 1 buy, got %d/%d", len(out.Sells), len(out.Buys))
	}
	if out.Sells[0].OwnerID != "S1" || out.Buys[0].OwnerID != "B1" {
		t.Error("unexpected book owners")
	}
}

func TestGetBook_UnknownInstrument(t *testing.T) {
	h, _ := newTestRouter()
	rec := get(t, h, "/instruments/NOPE/book")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListTrades(t *testing.T) {
	h, eng := newTestRouter()
	eng.Submit(domain.NewOrder("S1", "AAPL", domain.SideSell, 10, decimal.NewFromInt(145)))
	eng.Submit(domain.NewOrder("B1", "AAPL", domain.SideBuy, 4, decimal.NewFromInt(155)))

	rec := get(t, h, "/trades")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out []tradeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(out))
	}
	if !out[0].Price.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected midpoint 150, got %s", out[0].Price)
	}
	if out[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", out[0].Quantity)
	}
}

func TestListParticipants(t *testing.T) {
	h, _ := newTestRouter()
	rec := get(t, h, "/participants")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out participantsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Buyers) != 1 || len(out.Sellers) != 1 {
		t.Fatalf("expected 1 buyer and 1 seller, got %d/%d", len(out.Buyers), len(out.Sellers))
	}
	if out.Sellers[0].Holdings["AAPL"] != 50 {
		t.Errorf("expected seller to hold 50 AAPL, got %d", out.Sellers[0].Holdings["AAPL"])
	}
}
