package order

import (
	"encoding/json"

	apperrors "stall/pkg/errors"
)

// RequestPrice is the tier the caller believes they are buying at. It must
// match a listing tier exactly, including the quoted amount, so stale quotes
// are rejected instead of silently repriced.
type RequestPrice struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	QuantityAmount float64 `json:"quantity_amount"`
	QuantityUnit   string  `json:"quantity_unit"`
}

// RequestQuantity is the packaging the caller wants and how many of it.
type RequestQuantity struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Count  uint32  `json:"count"`
	MassG  float64 `json:"mass_g"`
	Label  string  `json:"label"`
}

type Request struct {
	Price    RequestPrice    `json:"price"`
	Quantity RequestQuantity `json:"quantity"`
}

type PayloadEvent struct {
	ID string `json:"id"`
}

// Payload is the JSON body of an order-marker input: the referenced listing
// event and the order against it.
type Payload struct {
	Event PayloadEvent `json:"event"`
	Order Request      `json:"order"`
}

func DecodePayload(data string) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, apperrors.ErrParseFailed.
			WithMessage("order payload could not be parsed: %v", err).
			WithCause(err)
	}
	if payload.Event.ID == "" {
		return nil, apperrors.ErrParseFailed.WithMessage("order payload names no event id")
	}
	return &payload, nil
}

type ResultQuantity struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Label  string  `json:"label"`
}

type ResultPrice struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	QuantityAmount float64 `json:"quantity_amount"`
	QuantityUnit   string  `json:"quantity_unit"`
}

type ResultDiscount struct {
	DiscountType    string   `json:"discount_type"`
	Threshold       *float64 `json:"threshold,omitempty"`
	ThresholdUnit   *string  `json:"threshold_unit,omitempty"`
	DiscountPerUnit *float64 `json:"discount_per_unit,omitempty"`
	DiscountUnit    *string  `json:"discount_unit,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	DiscountAmount  float64  `json:"discount_amount"`
	Currency        string   `json:"currency"`
}

type ResultTotal struct {
	PriceAmount    float64 `json:"price_amount"`
	PriceCurrency  string  `json:"price_currency"`
	QuantityAmount float64 `json:"quantity_amount"`
	QuantityUnit   string  `json:"quantity_unit"`
}

// Result is the computed order, serialized as the job result payload.
type Result struct {
	Quantity  ResultQuantity   `json:"quantity"`
	Price     ResultPrice      `json:"price"`
	Discounts []ResultDiscount `json:"discounts"`
	Subtotal  ResultTotal      `json:"subtotal"`
	Total     ResultTotal      `json:"total"`
}
