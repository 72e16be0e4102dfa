package listing

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stall/internal/unit"
)

func listingEvent(tags nostr.Tags) *nostr.Event {
	return &nostr.Event{ID: "listing1", Tags: tags}
}

func TestFromEventCommerce(t *testing.T) {
	ev := listingEvent(nostr.Tags{
		{"title", "Guatemala Huehuetenango"},
		{"summary", "Washed, medium roast"},
		{"key", "guat-huehue"},
		{"category", "coffee"},
		{"process", "washed"},
		{"lot", "2026-03"},
		{"profile", "chocolate, stone fruit"},
		{"year", "2026"},
		{"quantity", "1", "kg", "bag"},
		{"quantity", "250", "g", "pouch"},
		{"price", "10", "usd", "1", "kg"},
		{"price", "3", "usd", "250", "G"},
		{"price-discount-subtotal", "15", "usd", "10", "%"},
		{"price-discount-mass", "kg", "2", "kg", "1.5", "usd"},
		{"price-discount-quantity", "1-kg-bag", "2", "0.5", "usd"},
	})

	classified := FromEvent(ev)

	assert.Equal(t, "listing1", classified.ID)
	assert.Equal(t, "Guatemala Huehuetenango", classified.Basis.Title)
	assert.Equal(t, "Washed, medium roast", classified.Basis.Summary)
	assert.Equal(t, Meta{
		Key:      "guat-huehue",
		Category: "coffee",
		Process:  "washed",
		Lot:      "2026-03",
		Profile:  "chocolate, stone fruit",
		Year:     "2026",
	}, classified.Listing)

	require.Len(t, classified.Quantities, 2)
	assert.Equal(t, Quantity{Amount: 1, Unit: unit.Kilogram, Label: "bag"}, classified.Quantities[0])
	assert.Equal(t, Quantity{Amount: 250, Unit: unit.Gram, Label: "pouch"}, classified.Quantities[1])

	require.Len(t, classified.Prices, 2)
	assert.Equal(t, Price{Amount: 10, Currency: "usd", QuantityAmount: 1, QuantityUnit: unit.Kilogram}, classified.Prices[0])
	assert.Equal(t, Price{Amount: 3, Currency: "usd", QuantityAmount: 250, QuantityUnit: unit.Gram}, classified.Prices[1],
		"price unit is lowercased before parsing")

	require.Len(t, classified.Discounts, 3)
	assert.Equal(t, Discount{Type: DiscountSubtotal, Threshold: 15, Currency: "usd", Value: 10, IsPercent: true}, classified.Discounts[0])
	assert.Equal(t, Discount{Type: DiscountMass, DiscountUnit: "kg", Threshold: 2, ThresholdUnit: "kg", DiscountPerUnit: 1.5, Currency: "usd"}, classified.Discounts[1])
	assert.Equal(t, Discount{Type: DiscountQuantity, ProductKey: "1-kg-bag", MinCount: 2, DiscountPerUnit: 0.5, Currency: "usd"}, classified.Discounts[2])
}

func TestFromEventDropsMalformedTags(t *testing.T) {
	ev := listingEvent(nostr.Tags{
		{"quantity", "one", "kg", "bag"},
		{"quantity", "1", "stone", "bag"},
		{"quantity", "1", "kg"},
		{"price", "10", "usd", "1", "stone"},
		{"price", "10", "usd"},
		{"price-discount-subtotal", "15", "usd"},
	})

	classified := FromEvent(ev)
	assert.Empty(t, classified.Quantities)
	assert.Empty(t, classified.Prices)
	assert.Empty(t, classified.Discounts)
}

func TestFromEventIdempotent(t *testing.T) {
	ev := listingEvent(nostr.Tags{
		{"title", "A"},
		{"quantity", "1", "kg", "bag"},
		{"price", "10", "usd", "1", "kg"},
		{"l", "52.37", "dd.lat"},
		{"l", "4.89", "dd.lon"},
	})

	assert.Equal(t, FromEvent(ev), FromEvent(ev))
}

func TestFromEventGeolocationPrecision(t *testing.T) {
	t.Run("higher precision replaces", func(t *testing.T) {
		ev := listingEvent(nostr.Tags{
			{"l", "52.3", "dd.lat"},
			{"l", "52.370", "dd.lat"},
			{"l", "4.89", "dd.lon"},
		})

		classified := FromEvent(ev)
		require.NotNil(t, classified.Geolocation)
		assert.InDelta(t, 52.370, classified.Geolocation.Lat, 1e-9)
	})

	t.Run("lower precision does not replace", func(t *testing.T) {
		ev := listingEvent(nostr.Tags{
			{"l", "52.370", "dd.lat"},
			{"l", "52.4", "dd.lat"},
			{"l", "4.89", "dd.lon"},
		})

		classified := FromEvent(ev)
		require.NotNil(t, classified.Geolocation)
		assert.InDelta(t, 52.370, classified.Geolocation.Lat, 1e-9)
	})

	t.Run("integer coordinates are never kept", func(t *testing.T) {
		ev := listingEvent(nostr.Tags{
			{"l", "52", "dd.lat"},
			{"l", "4.89", "dd.lon"},
		})

		classified := FromEvent(ev)
		assert.Nil(t, classified.Geolocation)
	})

	t.Run("single axis yields no geolocation", func(t *testing.T) {
		ev := listingEvent(nostr.Tags{
			{"l", "52.370", "dd.lat"},
		})

		classified := FromEvent(ev)
		assert.Nil(t, classified.Geolocation)
	})
}

func TestFromEventGeohashLongerWins(t *testing.T) {
	ev := listingEvent(nostr.Tags{
		{"g", "u173zq"},
		{"g", "u17"},
		{"l", "52.37", "dd.lat"},
		{"l", "4.89", "dd.lon"},
	})

	classified := FromEvent(ev)
	require.NotNil(t, classified.Geolocation)
	assert.Equal(t, "u173zq", classified.Geolocation.Geohash)
}

func TestFromEventLocationAtomic(t *testing.T) {
	ev := listingEvent(nostr.Tags{
		{"location", "Old St 1", "ZH", "NL"},
		{"location", "Main St 2", "NH", "NL"},
	})

	classified := FromEvent(ev)
	require.NotNil(t, classified.Location)
	assert.Equal(t, &Location{Address: "Main St 2", Region: "NH", Country: "NL"}, classified.Location)
}

func TestFromEventNoLocation(t *testing.T) {
	ev := listingEvent(nostr.Tags{
		{"title", "A"},
	})

	classified := FromEvent(ev)
	assert.Nil(t, classified.Location)
	assert.Nil(t, classified.Geolocation)
}
