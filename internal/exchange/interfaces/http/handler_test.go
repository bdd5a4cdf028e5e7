package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nesterrovv/currencyexchange/internal/exchange/application"
	"github.com/nesterrovv/currencyexchange/internal/exchange/domain"
)

func testRouter(t *testing.T) (*gin.Engine, *application.ExchangeService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := application.New(application.Config{
		Instruments: []domain.Instrument{
			{Symbol: "USD", Median: 80, Amplitude: 0.15},
			{Symbol: "EUR", Median: 85, Amplitude: 0.15},
		},
		BookInstrument: "USD",
		TickInterval:   10 * time.Millisecond,
		BookInterval:   20 * time.Millisecond,
		SampleInterval: 50 * time.Millisecond,
		Omega:          0.05,
		NoiseBound:     0.02,
		ImpactFactor:   10,
		AutoGenerate:   false,
	}, nil, nil)

	r := gin.New()
	NewHandler(r, svc)
	return r, svc
}

func TestPlaceOrder(t *testing.T) {
	r, _ := testRouter(t)

	t.Run("Accepted", func(t *testing.T) {
		body := `{"side":"BUY","currency":"USD","volume":25}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusAccepted {
			t.Errorf("status = %d, want %d (body: %s)", w.Code, http.StatusAccepted, w.Body.String())
		}
	})

	t.Run("With Limit Price", func(t *testing.T) {
		body := `{"side":"SELL","currency":"EUR","volume":10,"userPrice":84.5}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusAccepted {
			t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
		}
	})

	t.Run("Rejected Unknown Instrument", func(t *testing.T) {
		body := `{"side":"BUY","currency":"GBP","volume":25}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("Rejected Malformed Body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestSetAutoGenerate(t *testing.T) {
	r, svc := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/orderbook/auto", strings.NewReader(`{"enabled":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !svc.AutoGenerate() {
		t.Error("auto-generate not enabled through the endpoint")
	}
}

func TestGenerateOrderBookManual(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orderbook/manual", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var book domain.OrderBook
	if err := json.Unmarshal(w.Body.Bytes(), &book); err != nil {
		t.Fatalf("response not a book: %v", err)
	}
	if len(book.Bids) != domain.BookDepth || len(book.Asks) != domain.BookDepth {
		t.Errorf("book depth = (%d, %d), want (%d, %d)", len(book.Bids), len(book.Asks), domain.BookDepth, domain.BookDepth)
	}
	if err := book.Validate(); err != nil {
		t.Errorf("book invalid: %v", err)
	}
}

func TestListInstruments(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/instruments", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var instruments []domain.Instrument
	if err := json.Unmarshal(w.Body.Bytes(), &instruments); err != nil {
		t.Fatalf("response not an instrument list: %v", err)
	}
	if len(instruments) != 2 {
		t.Errorf("got %d instruments, want 2", len(instruments))
	}
}
