package tags

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stall/internal/keys"
	apperrors "stall/pkg/errors"
)

func newProfile(t *testing.T) *keys.Profile {
	t.Helper()

	sk := nostr.GeneratePrivateKey()
	pub, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	return &keys.Profile{SecretKey: sk, PublicKey: pub}
}

func encryptFor(t *testing.T, senderSK, recipientPub, plaintext string) string {
	t.Helper()

	shared, err := nip04.ComputeSharedSecret(recipientPub, senderSK)
	require.NoError(t, err)

	ciphertext, err := nip04.Encrypt(plaintext, shared)
	require.NoError(t, err)
	return ciphertext
}

func TestResolvePassthrough(t *testing.T) {
	profile := newProfile(t)

	event := &nostr.Event{
		Tags: nostr.Tags{
			{"i", "payload", "text", "", "order"},
			{"t", "coffee"},
		},
	}

	resolved, err := Resolve(event, profile)
	require.NoError(t, err)
	assert.Equal(t, event.Tags, resolved)
}

func TestResolveMissingRecipient(t *testing.T) {
	profile := newProfile(t)

	event := &nostr.Event{
		ID:      "abc",
		Content: "ciphertext",
		Tags: nostr.Tags{
			{"encrypted"},
		},
	}

	_, err := Resolve(event, profile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingRecipient))
}

func TestResolveNotRecipient(t *testing.T) {
	profile := newProfile(t)
	other := newProfile(t)

	event := &nostr.Event{
		Content: "ciphertext",
		Tags: nostr.Tags{
			{"encrypted"},
			{"p", other.PublicKey},
		},
	}

	_, err := Resolve(event, profile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotRecipient))
}

func TestResolveDecryptsPayload(t *testing.T) {
	profile := newProfile(t)
	sender := newProfile(t)

	payload := nostr.Tags{
		{"i", "data", "text", "", "order"},
		{"output", "application/json"},
	}
	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)

	event := &nostr.Event{
		PubKey:  sender.PublicKey,
		Content: encryptFor(t, sender.SecretKey, profile.PublicKey, string(payloadJSON)),
		Tags: nostr.Tags{
			{"encrypted"},
			{"p", profile.PublicKey},
		},
	}

	resolved, err := Resolve(event, profile)
	require.NoError(t, err)
	assert.Equal(t, payload, resolved)
}

func TestResolveMalformedPayload(t *testing.T) {
	profile := newProfile(t)
	sender := newProfile(t)

	event := &nostr.Event{
		PubKey:  sender.PublicKey,
		Content: encryptFor(t, sender.SecretKey, profile.PublicKey, "not a tag list"),
		Tags: nostr.Tags{
			{"encrypted"},
			{"p", profile.PublicKey},
		},
	}

	_, err := Resolve(event, profile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedPayload))
}

func TestResolveGarbageCiphertext(t *testing.T) {
	profile := newProfile(t)
	sender := newProfile(t)

	event := &nostr.Event{
		PubKey:  sender.PublicKey,
		Content: "not?iv=base64",
		Tags: nostr.Tags{
			{"encrypted"},
			{"p", profile.PublicKey},
		},
	}

	_, err := Resolve(event, profile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDecryptFailed))
}
