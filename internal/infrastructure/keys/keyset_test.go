package keys

import (
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSet(t *testing.T) {
	set, err := NewSet(3, 2048, zap.NewNop())
	require.NoError(t, err)

	t.Run("random returns a member of the set", func(t *testing.T) {
		key, err := set.Random()
		require.NoError(t, err)

		found, ok := set.Lookup(key.ID)
		require.True(t, ok)
		assert.Equal(t, key.Private, found.Private)
	})

	t.Run("lookup of unknown kid", func(t *testing.T) {
		_, ok := set.Lookup("no-such-kid")
		assert.False(t, ok)
	})

	t.Run("publishes a parseable JWKS", func(t *testing.T) {
		doc, err := set.JWKS()
		require.NoError(t, err)

		parsed, err := jwk.Parse(doc)
		require.NoError(t, err)
		assert.Equal(t, 3, parsed.Len())

		key, err := set.Random()
		require.NoError(t, err)
		_, ok := parsed.LookupKeyID(key.ID)
		assert.True(t, ok)
	})

	t.Run("rotation replaces every key", func(t *testing.T) {
		rotating, err := NewSet(2, 2048, zap.NewNop())
		require.NoError(t, err)
		before, err := rotating.Random()
		require.NoError(t, err)

		require.NoError(t, rotating.Rotate())

		_, ok := rotating.Lookup(before.ID)
		assert.False(t, ok)
	})
}
