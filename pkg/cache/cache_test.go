package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*Cache{nil, New(nil, "catalog:")} {
		require.NoError(t, c.Set(ctx, "k", []string{"a"}, time.Minute))
		var got []string
		require.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
		require.NoError(t, c.Delete(ctx, "k"))
	}
}
