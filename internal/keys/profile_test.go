package keys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stall/internal/constants"
)

func TestGenerateAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	generated, err := Generate(path, "stall-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, generated.SecretKey)
	assert.NotEmpty(t, generated.PublicKey)
	assert.Equal(t, "stall-agent", generated.Identifier)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, generated, loaded)
}

func TestLoadRejectsMismatchedPublicKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	profile, err := Generate(path, "")
	require.NoError(t, err)

	other, err := Generate(filepath.Join(t.TempDir(), "other.json"), "")
	require.NoError(t, err)

	profile.PublicKey = other.PublicKey
	data, err := json.Marshal(profile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestLoadOrGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	_, err := LoadOrGenerate(path, false, "")
	require.Error(t, err, "missing profile without generate must fail")

	created, err := LoadOrGenerate(path, true, "agent")
	require.NoError(t, err)

	loaded, err := LoadOrGenerate(path, true, "ignored-on-load")
	require.NoError(t, err)
	assert.Equal(t, created.PublicKey, loaded.PublicKey)
	assert.Equal(t, "agent", loaded.Identifier)
}

func TestMetadataEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	profile, err := Generate(path, "")
	require.NoError(t, err)

	ev, err := profile.MetadataEvent(Metadata{Name: "stall", About: "order agent"})
	require.NoError(t, err)

	assert.Equal(t, constants.KindProfileMetadata, ev.Kind)
	assert.Equal(t, profile.PublicKey, ev.PubKey)
	assert.NotEmpty(t, ev.Sig)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(ev.Content), &meta))
	assert.Equal(t, "stall", meta.Name)
}

func TestHandlerEvent(t *testing.T) {
	t.Run("with identifier", func(t *testing.T) {
		profile, err := Generate(filepath.Join(t.TempDir(), "keys.json"), "stall-agent")
		require.NoError(t, err)

		ev, ok, err := profile.HandlerEvent()
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, constants.KindHandlerInformation, ev.Kind)
		assert.Equal(t, "stall-agent", ev.Tags.GetFirst([]string{"d"}).Value())
		assert.Equal(t, "5300", ev.Tags.GetFirst([]string{"k"}).Value())
	})

	t.Run("without identifier", func(t *testing.T) {
		profile, err := Generate(filepath.Join(t.TempDir(), "keys.json"), "")
		require.NoError(t, err)

		_, ok, err := profile.HandlerEvent()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
