package jobrequest

import (
	"strconv"

	"github.com/nbd-wtf/go-nostr"

	"stall/internal/keys"
	"stall/internal/tags"
	apperrors "stall/pkg/errors"
)

func parseInputType(s string) (InputType, bool) {
	switch InputType(s) {
	case InputTypeURL, InputTypeEvent, InputTypeJob, InputTypeText:
		return InputType(s), true
	}
	return "", false
}

func parseMarker(s string) (Marker, bool) {
	switch Marker(s) {
	case MarkerOrder, MarkerQuote, MarkerPreview:
		return Marker(s), true
	}
	return "", false
}

// Parse resolves the event's tag set (decrypting an encrypted envelope when
// present) and folds it into a JobRequest. Tag order is preserved for
// inputs, hashtags and params.
func Parse(event *nostr.Event, profile *keys.Profile) (*JobRequest, error) {
	resolved, err := tags.Resolve(event, profile)
	if err != nil {
		return nil, err
	}

	req := &JobRequest{
		ID:   event.ID,
		Tags: resolved,
	}

	for _, tag := range resolved {
		kind, values := tags.Match(tag)

		switch kind {
		case "i":
			// [data, input_type, relay, marker]; shorter forms carry no
			// routable work and are skipped.
			if len(values) < 4 {
				continue
			}

			inputType, ok := parseInputType(values[1])
			if !ok {
				return nil, apperrors.ErrInvalidInputType.
					WithMessage("unrecognized input type %q", values[1]).
					WithDetail("input_type", values[1])
			}

			input := Input{
				Data:  values[0],
				Type:  inputType,
				Relay: values[2],
			}

			if values[3] != "" {
				marker, ok := parseMarker(values[3])
				if !ok {
					return nil, apperrors.ErrInvalidInputMarker.
						WithMessage("unrecognized input marker %q", values[3]).
						WithDetail("marker", values[3])
				}
				input.Marker = marker
			}

			req.Inputs = append(req.Inputs, input)

		case "t":
			if len(values) > 0 {
				req.Hashtags = append(req.Hashtags, values[0])
			}

		case "output":
			if len(values) > 0 {
				req.Output = values[0]
			}

		case "bid":
			if len(values) > 0 {
				if msat, err := strconv.ParseUint(values[0], 10, 64); err == nil {
					req.BidMsat = &msat
				}
			}

		case "param":
			if len(values) >= 2 {
				req.Params = append(req.Params, Param{Key: values[0], Value: values[1]})
			}

		case "p":
			if len(values) > 0 {
				req.ServiceProviders = append(req.ServiceProviders, values[0])
			}

		default:
			if relays, ok := tags.MatchRelays(tag); ok {
				req.Relays = append(req.Relays, relays...)
			}
		}
	}

	return req, nil
}
