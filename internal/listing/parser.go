package listing

import (
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"stall/internal/tags"
	"stall/internal/unit"
)

// builder accumulates tag contributions during a single pass over the event.
type builder struct {
	basis      Basis
	meta       Meta
	prices     []Price
	quantities []Quantity
	discounts  []Discount

	address *string
	region  *string
	country *string

	// raw coordinate strings are kept so precision comparison works on the
	// author's notation, not a float round-trip
	lat     string
	lng     string
	geohash string
}

// FromEvent reconstructs a classified listing from an arbitrary event's tag
// set. A tag that fails to parse drops only its own contribution; the
// reconstruction itself never fails.
func FromEvent(event *nostr.Event) *EventClassified {
	var b builder

	for _, tag := range event.Tags {
		b.fold(tag)
	}

	return b.finish(event.ID)
}

func (b *builder) fold(tag nostr.Tag) {
	kind, values := tags.Match(tag)

	switch kind {
	case "quantity":
		if len(values) < 3 {
			return
		}
		amount, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			return
		}
		u, err := unit.Parse(values[1])
		if err != nil {
			return
		}
		b.quantities = append(b.quantities, Quantity{Amount: amount, Unit: u, Label: values[2]})

	case "price":
		if len(values) < 4 {
			return
		}
		amount, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			return
		}
		quantityAmount, err := strconv.ParseFloat(values[2], 64)
		if err != nil {
			return
		}
		quantityUnit, err := unit.Parse(strings.ToLower(values[3]))
		if err != nil {
			return
		}
		b.prices = append(b.prices, Price{
			Amount:         amount,
			Currency:       values[1],
			QuantityAmount: quantityAmount,
			QuantityUnit:   quantityUnit,
		})

	case "key":
		if len(values) > 0 {
			b.meta.Key = values[0]
		}
	case "category":
		if len(values) > 0 {
			b.meta.Category = values[0]
		}
	case "process":
		if len(values) > 0 {
			b.meta.Process = values[0]
		}
	case "lot":
		if len(values) > 0 {
			b.meta.Lot = values[0]
		}
	case "profile":
		if len(values) > 0 {
			b.meta.Profile = values[0]
		}
	case "year":
		if len(values) > 0 {
			b.meta.Year = values[0]
		}

	case "price-discount-subtotal":
		if len(values) < 4 {
			return
		}
		b.discounts = append(b.discounts, Discount{
			Type:      DiscountSubtotal,
			Threshold: parseFloatOrZero(values[0]),
			Currency:  values[1],
			Value:     parseFloatOrZero(values[2]),
			IsPercent: values[3] == "%",
		})

	case "price-discount-mass":
		if len(values) < 5 {
			return
		}
		b.discounts = append(b.discounts, Discount{
			Type:            DiscountMass,
			DiscountUnit:    values[0],
			Threshold:       parseFloatOrZero(values[1]),
			ThresholdUnit:   values[2],
			DiscountPerUnit: parseFloatOrZero(values[3]),
			Currency:        values[4],
		})

	case "price-discount-quantity":
		if len(values) < 4 {
			return
		}
		b.discounts = append(b.discounts, Discount{
			Type:            DiscountQuantity,
			ProductKey:      values[0],
			MinCount:        parseUint32OrZero(values[1]),
			DiscountPerUnit: parseFloatOrZero(values[2]),
			Currency:        values[3],
		})

	default:
		b.foldStandard(tag)
	}
}

// foldStandard handles the standard (non-commerce) tag vocabulary.
func (b *builder) foldStandard(tag nostr.Tag) {
	if axis, raw, ok := tags.MatchCoordinate(tag); ok {
		// an unheld axis counts as precision 0, so only a value with at
		// least one decimal digit is ever kept
		switch axis {
		case "dd.lat":
			if tags.DecimalPrecision(raw) > tags.DecimalPrecision(b.lat) {
				b.lat = raw
			}
		case "dd.lon":
			if tags.DecimalPrecision(raw) > tags.DecimalPrecision(b.lng) {
				b.lng = raw
			}
		}
		return
	}

	if address, region, country, ok := tags.MatchLocation(tag); ok {
		b.address = &address
		b.region = &region
		b.country = &country
		return
	}

	if geohash, ok := tags.MatchGeohash(tag); ok {
		// a longer geohash is a more precise one
		if len(geohash) > len(b.geohash) {
			b.geohash = geohash
		}
		return
	}

	if title, ok := tags.MatchTitle(tag); ok {
		b.basis.Title = title
		return
	}

	if summary, ok := tags.MatchSummary(tag); ok {
		b.basis.Summary = summary
	}
}

func (b *builder) finish(id string) *EventClassified {
	classified := &EventClassified{
		ID:         id,
		Basis:      b.basis,
		Listing:    b.meta,
		Prices:     b.prices,
		Quantities: b.quantities,
		Discounts:  b.discounts,
	}

	if b.address != nil || b.region != nil || b.country != nil {
		loc := Location{}
		if b.address != nil {
			loc.Address = *b.address
		}
		if b.region != nil {
			loc.Region = *b.region
		}
		if b.country != nil {
			loc.Country = *b.country
		}
		classified.Location = &loc
	}

	if b.lat != "" && b.lng != "" {
		lat, latErr := strconv.ParseFloat(b.lat, 64)
		lng, lngErr := strconv.ParseFloat(b.lng, 64)
		if latErr == nil && lngErr == nil {
			classified.Geolocation = &Geolocation{
				Geohash: b.geohash,
				Lat:     lat,
				Lng:     lng,
			}
		}
	}

	return classified
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseUint32OrZero(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
