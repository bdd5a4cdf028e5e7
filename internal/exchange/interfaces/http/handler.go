// Package http exposes the simulation streams over server-sent events and
// accepts order submissions.
package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nesterrovv/currencyexchange/internal/exchange/application"
	"github.com/nesterrovv/currencyexchange/pkg/broadcast"
)

// Handler binds the exchange service to gin routes.
type Handler struct {
	app *application.ExchangeService
}

// NewHandler registers all routes on r.
func NewHandler(r *gin.Engine, app *application.ExchangeService) *Handler {
	h := &Handler{app: app}

	api := r.Group("/api")
	{
		api.GET("/currency", h.streamCurrency)
		api.GET("/orderbook", h.streamOrderBook)
		api.GET("/trades", h.streamTrades)
		api.GET("/stats", h.streamStats)
		api.GET("/notification", h.streamNotifications)

		api.POST("/order", h.placeOrder)
		api.PUT("/orderbook/auto", h.setAutoGenerate)
		api.GET("/orderbook/manual", h.generateOrderBook)
		api.GET("/instruments", h.listInstruments)
	}

	return h
}

func sseHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
}

// streamEvents forwards a subscription to the client until either side
// disconnects. Cancelling the subscription on the way out keeps a dropped
// client from affecting the producer or other subscribers.
func streamEvents[T any](c *gin.Context, sub *broadcast.Subscription[T]) {
	defer sub.Cancel()
	sseHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("message", v)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// streamCurrency emits quotes sampled at the configured interval. Generation
// runs at its own cadence; the newest quote per instrument wins each sample
// window.
func (h *Handler) streamCurrency(c *gin.Context) {
	sub := h.app.SubscribeQuotes()
	defer sub.Cancel()
	sseHeaders(c)

	instruments := h.app.Instruments()
	pending := make(map[string]interface{}, len(instruments))
	ticker := time.NewTicker(h.app.SampleInterval())
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		for {
			select {
			case <-c.Request.Context().Done():
				return false
			case q, ok := <-sub.C:
				if !ok {
					return false
				}
				pending[q.Instrument] = q
			case <-ticker.C:
				if len(pending) == 0 {
					continue
				}
				for _, inst := range instruments {
					if q, ok := pending[inst.Symbol]; ok {
						c.SSEvent("message", q)
						delete(pending, inst.Symbol)
					}
				}
				return true
			}
		}
	})
}

func (h *Handler) streamOrderBook(c *gin.Context) {
	streamEvents(c, h.app.SubscribeOrderBook())
}

func (h *Handler) streamTrades(c *gin.Context) {
	streamEvents(c, h.app.SubscribeTrades())
}

func (h *Handler) streamStats(c *gin.Context) {
	streamEvents(c, h.app.SubscribeStats())
}

func (h *Handler) streamNotifications(c *gin.Context) {
	streamEvents(c, h.app.SubscribeNotifications())
}

// placeOrder accepts a submission fire-and-forget; fills surface on the
// trade stream.
func (h *Handler) placeOrder(c *gin.Context) {
	var cmd application.SubmitOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.app.SubmitOrder(c.Request.Context(), cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type autoGenerateRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) setAutoGenerate(c *gin.Context) {
	var req autoGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.app.SetAutoGenerate(req.Enabled)
	c.JSON(http.StatusOK, gin.H{"autoGenerate": req.Enabled})
}

func (h *Handler) generateOrderBook(c *gin.Context) {
	book := h.app.GenerateOrderBook(c.Request.Context())
	c.JSON(http.StatusOK, book)
}

func (h *Handler) listInstruments(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Instruments())
}
