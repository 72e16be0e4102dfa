package keys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nbd-wtf/go-nostr"

	"stall/internal/constants"
)

// Profile is the agent's signing identity, stored as a small JSON file next
// to the config. Identifier, when set, names the NIP-89 handler announcement.
type Profile struct {
	SecretKey  string `json:"secret_key"`
	PublicKey  string `json:"public_key"`
	Identifier string `json:"identifier,omitempty"`
}

func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key profile %s: %w", path, err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse key profile %s: %w", path, err)
	}

	if profile.SecretKey == "" {
		return nil, fmt.Errorf("key profile %s has no secret key", path)
	}

	pub, err := nostr.GetPublicKey(profile.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	if profile.PublicKey != "" && profile.PublicKey != pub {
		return nil, fmt.Errorf("key profile %s public key does not match its secret key", path)
	}
	profile.PublicKey = pub

	return &profile, nil
}

func Generate(path, identifier string) (*Profile, error) {
	sk := nostr.GeneratePrivateKey()
	pub, err := nostr.GetPublicKey(sk)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	profile := &Profile{
		SecretKey:  sk,
		PublicKey:  pub,
		Identifier: identifier,
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key profile %s: %w", path, err)
	}

	return profile, nil
}

// LoadOrGenerate loads the profile, creating it first when generate is set
// and the file does not exist yet.
func LoadOrGenerate(path string, generate bool, identifier string) (*Profile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !generate {
			return nil, fmt.Errorf("key profile %s not found (set keys.generate to create one)", path)
		}
		return Generate(path, identifier)
	}
	return Load(path)
}

type Metadata struct {
	Name  string `json:"name,omitempty"`
	About string `json:"about,omitempty"`
	NIP05 string `json:"nip05,omitempty"`
}

// MetadataEvent builds the signed kind-0 profile event announced at startup.
func (p *Profile) MetadataEvent(meta Metadata) (nostr.Event, error) {
	content, err := json.Marshal(meta)
	if err != nil {
		return nostr.Event{}, err
	}

	ev := nostr.Event{
		PubKey:    p.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      constants.KindProfileMetadata,
		Tags:      nostr.Tags{},
		Content:   string(content),
	}
	if err := ev.Sign(p.SecretKey); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to sign metadata event: %w", err)
	}
	return ev, nil
}

// HandlerEvent builds the NIP-89 announcement declaring which job kind this
// agent serves. Returns false when no identifier is configured.
func (p *Profile) HandlerEvent() (nostr.Event, bool, error) {
	if p.Identifier == "" {
		return nostr.Event{}, false, nil
	}

	ev := nostr.Event{
		PubKey:    p.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      constants.KindHandlerInformation,
		Tags: nostr.Tags{
			{"d", p.Identifier},
			{"k", fmt.Sprintf("%d", constants.KindJobRequest)},
		},
	}
	if err := ev.Sign(p.SecretKey); err != nil {
		return nostr.Event{}, false, fmt.Errorf("failed to sign handler event: %w", err)
	}
	return ev, true, nil
}
