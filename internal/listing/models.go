package listing

import (
	"stall/internal/unit"
)

// Price is one tier: Amount of Currency buys QuantityAmount of QuantityUnit.
type Price struct {
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency"`
	QuantityAmount float64       `json:"quantity_amount"`
	QuantityUnit   unit.MassUnit `json:"quantity_unit"`
}

// Quantity is one purchasable packaging size.
type Quantity struct {
	Amount float64       `json:"amount"`
	Unit   unit.MassUnit `json:"unit"`
	Label  string        `json:"label"`
}

type DiscountType string

const (
	DiscountSubtotal DiscountType = "subtotal"
	DiscountMass     DiscountType = "mass"
	DiscountQuantity DiscountType = "quantity"
)

// Discount is a tagged variant; Type selects which field group is
// meaningful. Subtotal uses Threshold/Value/IsPercent, Mass uses
// DiscountUnit/Threshold/ThresholdUnit/DiscountPerUnit, Quantity uses
// ProductKey/MinCount/DiscountPerUnit.
type Discount struct {
	Type            DiscountType `json:"type"`
	Threshold       float64      `json:"threshold,omitempty"`
	Currency        string       `json:"currency"`
	Value           float64      `json:"value,omitempty"`
	IsPercent       bool         `json:"is_percent,omitempty"`
	DiscountUnit    string       `json:"discount_unit,omitempty"`
	ThresholdUnit   string       `json:"threshold_unit,omitempty"`
	DiscountPerUnit float64      `json:"discount_per_unit,omitempty"`
	ProductKey      string       `json:"product_key,omitempty"`
	MinCount        uint32       `json:"min_count,omitempty"`
}

type Meta struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Process  string `json:"process,omitempty"`
	Lot      string `json:"lot,omitempty"`
	Profile  string `json:"profile,omitempty"`
	Year     string `json:"year,omitempty"`
}

type Basis struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type Location struct {
	Address string `json:"address"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type Geolocation struct {
	Geohash string  `json:"geohash,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// EventClassified is the structured reconstruction of a classified listing
// event: pricing tiers, packaging quantities, discount rules and location.
// Immutable once built.
type EventClassified struct {
	ID          string       `json:"id"`
	Basis       Basis        `json:"basis"`
	Listing     Meta         `json:"listing"`
	Prices      []Price      `json:"prices"`
	Quantities  []Quantity   `json:"quantities"`
	Discounts   []Discount   `json:"discounts"`
	Location    *Location    `json:"location,omitempty"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
}
