package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	require.NoError(t, st.SaveDefinition(ctx, d))

	strict := NewResolver(st, false)
	got, err := strict.Resolve(ctx, "/users/{id}", "get")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = strict.Resolve(ctx, "/USERS/{ID}", "GET")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = strict.Resolve(ctx, "/users/{id}", "POST")
	assert.ErrorIs(t, err, ErrNoEndpoint)

	loose := NewResolver(st, true)
	got, err = loose.Resolve(ctx, "/users/{id}", "POST")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = strict.ByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Get User", got.Title)
	_, err = strict.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
