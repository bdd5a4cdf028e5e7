package domain

import (
	"errors"
	"strings"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

var (
	// ErrInvalidSide is returned for a side other than BUY or SELL.
	ErrInvalidSide = errors.New("order side must be BUY or SELL")
	// ErrNonPositiveVolume is returned for a zero or negative volume.
	ErrNonPositiveVolume = errors.New("order volume must be positive")
	// ErrUnknownInstrument is returned for an instrument outside the catalog.
	ErrUnknownInstrument = errors.New("unknown instrument")
)

// ParseSide normalizes a client-supplied side string.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case string(SideBuy):
		return SideBuy, nil
	case string(SideSell):
		return SideSell, nil
	default:
		return "", ErrInvalidSide
	}
}

// Order is a user submission. It is immutable after creation and consumed
// exactly once by the matching engine.
type Order struct {
	Side       Side    `json:"side"`
	Instrument string  `json:"currency"`
	Volume     float64 `json:"volume"`
	// LimitPrice caps (BUY) or floors (SELL) the acceptable level price.
	// When nil the engine prices the order off the instrument median.
	LimitPrice *float64 `json:"userPrice,omitempty"`
}

// Validate checks the order against the catalog before it may be enqueued.
func (o Order) Validate(catalog *InstrumentCatalog) error {
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidSide
	}
	if !(o.Volume > 0) {
		return ErrNonPositiveVolume
	}
	if !catalog.Has(o.Instrument) {
		return ErrUnknownInstrument
	}
	return nil
}
