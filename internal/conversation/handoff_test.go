package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoffSets(t *testing.T) {
	_, client := newTestRedis(t)
	sets := map[string]HandoffSet{
		"memory": NewMemoryHandoffSet(),
		"redis":  NewRedisHandoffSet(client, "whatsapp"),
	}

	for name, set := range sets {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			in, err := set.Contains(ctx, "+1555")
			require.NoError(t, err)
			assert.False(t, in)

			added, err := set.Add(ctx, "+1555")
			require.NoError(t, err)
			assert.True(t, added)

			added, err = set.Add(ctx, "+1555")
			require.NoError(t, err)
			assert.False(t, added, "second add must report existing member")

			in, err = set.Contains(ctx, "+1555")
			require.NoError(t, err)
			assert.True(t, in)

			size, err := set.Size(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, size)
		})
	}
}
