package application

// SubmitOrderCommand is the transport-facing order submission payload. Field
// names mirror the browser frontend's JSON.
type SubmitOrderCommand struct {
	Side       string   `json:"side" binding:"required"`
	Instrument string   `json:"currency" binding:"required"`
	Volume     float64  `json:"volume" binding:"required"`
	LimitPrice *float64 `json:"userPrice"`
}
