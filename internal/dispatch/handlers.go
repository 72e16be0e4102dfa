package dispatch

import (
	"context"
	"encoding/json"

	"github.com/nbd-wtf/go-nostr"

	"stall/internal/jobrequest"
	"stall/internal/listing"
	"stall/internal/order"
	apperrors "stall/pkg/errors"
)

// handleOrder prices an order against its referenced listing and publishes
// the signed job result.
func (d *Dispatcher) handleOrder(ctx context.Context, event *nostr.Event, input jobrequest.Input) error {
	payload, err := order.DecodePayload(input.Data)
	if err != nil {
		return err
	}

	classified, err := d.resolveListing(ctx, payload.Event.ID)
	if err != nil {
		return err
	}

	result, err := order.Compute(classified, &payload.Order)
	if err != nil {
		return err
	}

	resultEvent, err := buildResultEvent(d.profile, event, input, classified.ID, result)
	if err != nil {
		return apperrors.ErrInternal.
			WithMessage("result event could not be built").
			WithCause(err)
	}

	if err := d.publisher.Publish(ctx, resultEvent); err != nil {
		return err
	}

	d.logger.InfowCtx(ctx, "Order computed",
		"listing_id", classified.ID,
		"subtotal", result.Subtotal.PriceAmount,
		"total", result.Total.PriceAmount,
		"currency", result.Total.PriceCurrency,
		"discounts", len(result.Discounts),
	)
	return nil
}

// handleQuote acknowledges a quote request. Quotes reuse the order payload
// but are not priced yet.
//
// TODO: price quotes through the order engine without the packaging match,
// so a buyer can ask about amounts the listing does not package.
func (d *Dispatcher) handleQuote(ctx context.Context, event *nostr.Event, input jobrequest.Input) error {
	d.logger.InfowCtx(ctx, "Quote request received",
		"input_type", string(input.Type),
	)
	return nil
}

// handlePreview resolves the referenced listing so malformed references fail
// loudly, then acknowledges without publishing a result.
func (d *Dispatcher) handlePreview(ctx context.Context, event *nostr.Event, input jobrequest.Input) error {
	payload, err := order.DecodePayload(input.Data)
	if err != nil {
		return err
	}

	classified, err := d.resolveListing(ctx, payload.Event.ID)
	if err != nil {
		return err
	}

	d.logger.InfowCtx(ctx, "Preview request resolved",
		"listing_id", classified.ID,
		"title", classified.Basis.Title,
		"prices", len(classified.Prices),
	)
	return nil
}

// resolveListing returns the reconstructed listing for an event id, serving
// from cache when possible and caching on the way back.
func (d *Dispatcher) resolveListing(ctx context.Context, id string) (*listing.EventClassified, error) {
	if classified, ok := d.cache.Get(ctx, id); ok {
		return classified, nil
	}

	ev, err := d.fetcher.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperrors.ErrMissingReference.WithMessage("event %s not found on any relay", id)
	}

	classified := listing.FromEvent(ev)
	d.cache.Set(ctx, classified)
	return classified, nil
}

func marshalSourceEvent(event *nostr.Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
