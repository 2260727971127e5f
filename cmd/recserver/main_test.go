package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recipekit/config"
	"github.com/rushteam/recipekit/core"
)

func TestOpenStorage_Memory(t *testing.T) {
	ctx := context.Background()
	repo, kv, closers, err := openStorage(ctx, config.StoreSettings{Driver: "memory"})
	require.NoError(t, err)
	for _, c := range closers {
		defer c.Close()
	}
	require.NotNil(t, kv)

	require.NoError(t, repo.PutUser(ctx, core.User{ID: "u1", Username: "anna"}))
	u, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "anna", u.Username)
}

func TestOpenStorage_RedisUnavailable(t *testing.T) {
	_, _, closers, err := openStorage(context.Background(), config.StoreSettings{
		Driver:    "redis",
		RedisAddr: "127.0.0.1:1",
	})
	assert.Error(t, err)
	assert.Empty(t, closers)
}
