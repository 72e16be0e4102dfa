package tags

import (
	"encoding/json"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"

	"stall/internal/keys"
	apperrors "stall/pkg/errors"
)

// Resolve returns the effective tag list of a job request. Unencrypted
// events pass their tags through untouched. Events carrying an "encrypted"
// tag must name this agent in a "p" tag; their content is then NIP-04
// decrypted and parsed as the real tag list.
func Resolve(event *nostr.Event, profile *keys.Profile) (nostr.Tags, error) {
	if !isEncrypted(event) {
		return event.Tags, nil
	}

	recipient := recipientKey(event)
	if recipient == "" {
		return nil, apperrors.ErrMissingRecipient.WithDetail("event_id", event.ID)
	}

	if recipient != profile.PublicKey {
		return nil, apperrors.ErrNotRecipient
	}

	shared, err := nip04.ComputeSharedSecret(event.PubKey, profile.SecretKey)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDecryptFailed)
	}

	plaintext, err := nip04.Decrypt(event.Content, shared)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDecryptFailed)
	}

	var resolved nostr.Tags
	if err := json.Unmarshal([]byte(plaintext), &resolved); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMalformedPayload)
	}

	return resolved, nil
}

func isEncrypted(event *nostr.Event) bool {
	for _, tag := range event.Tags {
		if tag.Key() == "encrypted" {
			return true
		}
	}
	return false
}

func recipientKey(event *nostr.Event) string {
	for _, tag := range event.Tags {
		if tag.Key() == "p" && len(tag) > 1 && tag[1] != "" {
			return tag[1]
		}
	}
	return ""
}
