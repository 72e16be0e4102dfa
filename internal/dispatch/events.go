package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"stall/internal/constants"
	"stall/internal/jobrequest"
	"stall/internal/keys"
	"stall/internal/order"
	apperrors "stall/pkg/errors"
)

// buildResultEvent assembles the signed job result. The source request rides
// along in the "request" tag so the submitter can verify what was answered,
// and "e_ref" names the listing the order was priced against.
func buildResultEvent(
	profile *keys.Profile,
	source *nostr.Event,
	input jobrequest.Input,
	listingID string,
	result *order.Result,
) (nostr.Event, error) {
	content, err := json.Marshal(result)
	if err != nil {
		return nostr.Event{}, err
	}

	sourceJSON, err := marshalSourceEvent(source)
	if err != nil {
		return nostr.Event{}, err
	}

	ev := nostr.Event{
		PubKey:    profile.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      constants.KindJobResult,
		Tags: nostr.Tags{
			{"request", sourceJSON},
			{"e", source.ID},
			{"p", source.PubKey},
			{"i", input.Data},
			{"e_ref", listingID},
		},
		Content: string(content),
	}

	if err := ev.Sign(profile.SecretKey); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to sign result event: %w", err)
	}
	return ev, nil
}

// buildFeedbackEvent assembles the signed feedback event reporting a failed
// job back to its submitter. The display text of the cause is carried
// verbatim in the status tag's extra-info slot.
func buildFeedbackEvent(profile *keys.Profile, source *nostr.Event, cause error) (nostr.Event, error) {
	ev := nostr.Event{
		PubKey:    profile.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      constants.KindJobFeedback,
		Tags: nostr.Tags{
			{"status", apperrors.FeedbackStatus(cause), apperrors.DisplayText(cause)},
			{"e", source.ID},
			{"p", source.PubKey},
		},
	}

	if err := ev.Sign(profile.SecretKey); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to sign feedback event: %w", err)
	}
	return ev, nil
}
