package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClient_NilIsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()

	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())

	var dst map[string]string
	assert.False(t, c.GetJSON(ctx, "k", &dst))
	assert.NoError(t, c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute))
}

func TestClient_UnreachableBehavesLikeMiss(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
}
