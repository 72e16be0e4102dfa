package order

import (
	"math"
	"strconv"
	"strings"

	"stall/internal/listing"
	"stall/internal/unit"
	apperrors "stall/pkg/errors"
)

// epsilon bounds float comparison when matching packaging sizes and price
// tiers against the requested values.
const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// packageKey renders a requested packaging as the key quantity discounts
// match against, e.g. "1-kg-bag".
func packageKey(q RequestQuantity) string {
	return strconv.FormatFloat(q.Amount, 'f', -1, 64) +
		"-" + strings.ToLower(q.Unit) +
		"-" + q.Label
}

// Compute prices an order against a reconstructed listing. The requested
// packaging must exist in the listing's quantities and the requested tier
// must match one of the listing's prices exactly, quoted amount included.
// Discounts are evaluated in listing order and all that match stack. The
// total is not clamped at zero.
func Compute(classified *listing.EventClassified, req *Request) (*Result, error) {
	qtyUnit, err := unit.Parse(req.Quantity.Unit)
	if err != nil {
		return nil, apperrors.Unsatisfiable("invalid quantity unit")
	}
	priceUnit, err := unit.Parse(req.Price.QuantityUnit)
	if err != nil {
		return nil, apperrors.Unsatisfiable("invalid price quantity unit")
	}

	totalQty := req.Quantity.Amount * float64(req.Quantity.Count)

	matchedPackaging := false
	for _, q := range classified.Quantities {
		if q.Unit == qtyUnit && approxEqual(q.Amount, req.Quantity.Amount) {
			matchedPackaging = true
			break
		}
	}
	if !matchedPackaging {
		return nil, apperrors.Unsatisfiable("requested packaging %v %s not available",
			req.Quantity.Amount, req.Quantity.Unit)
	}

	var tier *listing.Price
	for i := range classified.Prices {
		p := &classified.Prices[i]
		if p.QuantityUnit == priceUnit &&
			approxEqual(p.QuantityAmount, req.Price.QuantityAmount) &&
			strings.EqualFold(p.Currency, req.Price.Currency) {
			tier = p
			break
		}
	}
	if tier == nil {
		return nil, apperrors.Unsatisfiable("no matching price tier %v %s found",
			req.Price.QuantityAmount, req.Price.QuantityUnit)
	}

	if !approxEqual(tier.Amount, req.Price.Amount) {
		return nil, apperrors.Unsatisfiable("price mismatch: expected %v, got %v",
			tier.Amount, req.Price.Amount)
	}

	convertedQty := unit.Convert(totalQty, qtyUnit, priceUnit)
	subtotal := unit.Round2(unit.UnitPrice(tier.Amount, tier.QuantityAmount) * convertedQty)

	discounts := make([]ResultDiscount, 0)
	key := packageKey(req.Quantity)

	for _, d := range classified.Discounts {
		switch d.Type {
		case listing.DiscountSubtotal:
			if subtotal < d.Threshold {
				continue
			}
			var amt float64
			var percent *float64
			if d.IsPercent {
				amt = unit.Round2(subtotal * d.Value / 100)
				v := d.Value
				percent = &v
			} else {
				amt = unit.Round2(d.Value)
			}
			threshold := d.Threshold
			discounts = append(discounts, ResultDiscount{
				DiscountType:    string(listing.DiscountSubtotal),
				Threshold:       &threshold,
				DiscountPercent: percent,
				DiscountAmount:  amt,
				Currency:        d.Currency,
			})

		case listing.DiscountMass:
			thUnit, err := unit.Parse(d.ThresholdUnit)
			if err != nil {
				return nil, apperrors.Unsatisfiable("invalid threshold unit")
			}
			disUnit, err := unit.Parse(d.DiscountUnit)
			if err != nil {
				return nil, apperrors.Unsatisfiable("invalid discount unit")
			}

			if unit.Convert(totalQty, qtyUnit, thUnit) < d.Threshold {
				continue
			}

			amt := unit.Round2(unit.Convert(totalQty, qtyUnit, disUnit) * d.DiscountPerUnit)

			threshold := d.Threshold
			thresholdUnit := d.ThresholdUnit
			perUnit := d.DiscountPerUnit
			discountUnit := d.DiscountUnit
			discounts = append(discounts, ResultDiscount{
				DiscountType:    string(listing.DiscountMass),
				Threshold:       &threshold,
				ThresholdUnit:   &thresholdUnit,
				DiscountPerUnit: &perUnit,
				DiscountUnit:    &discountUnit,
				DiscountAmount:  amt,
				Currency:        d.Currency,
			})

		case listing.DiscountQuantity:
			if d.ProductKey != key || req.Quantity.Count < d.MinCount {
				continue
			}

			amt := unit.Round2(d.DiscountPerUnit * float64(req.Quantity.Count))

			threshold := float64(d.MinCount)
			perUnit := d.DiscountPerUnit
			discounts = append(discounts, ResultDiscount{
				DiscountType:    string(listing.DiscountQuantity),
				Threshold:       &threshold,
				DiscountPerUnit: &perUnit,
				DiscountAmount:  amt,
				Currency:        d.Currency,
			})

		default:
			// unknown discount variants are inert
		}
	}

	var totalDiscount float64
	for _, d := range discounts {
		totalDiscount += d.DiscountAmount
	}
	total := unit.Round2(subtotal - totalDiscount)

	return &Result{
		Quantity: ResultQuantity{
			Amount: req.Quantity.Amount,
			Unit:   req.Quantity.Unit,
			Label:  req.Quantity.Label,
		},
		Price: ResultPrice{
			Amount:         tier.Amount,
			Currency:       tier.Currency,
			QuantityAmount: tier.QuantityAmount,
			QuantityUnit:   req.Price.QuantityUnit,
		},
		Discounts: discounts,
		Subtotal: ResultTotal{
			PriceAmount:    subtotal,
			PriceCurrency:  tier.Currency,
			QuantityAmount: totalQty,
			QuantityUnit:   req.Quantity.Unit,
		},
		Total: ResultTotal{
			PriceAmount:    total,
			PriceCurrency:  tier.Currency,
			QuantityAmount: totalQty,
			QuantityUnit:   req.Quantity.Unit,
		},
	}, nil
}
