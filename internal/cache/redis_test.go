package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRedisIsEmptyCache(t *testing.T) {
	var r *Redis
	ctx := context.Background()

	require.NoError(t, r.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var dst map[string]int
	hit, err := r.GetJSON(ctx, "k", &dst)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, dst)

	assert.NoError(t, r.Publish(ctx, "notifications:x", "hello"))
	assert.NoError(t, r.Delete(ctx, "k"))
	assert.Error(t, r.Ping(ctx))
	assert.NoError(t, r.Close())
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
