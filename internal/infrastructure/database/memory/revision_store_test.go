package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/domain/environment"
	pkgerrors "github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

func TestRevisionStore_AppendListGet(t *testing.T) {
	store := NewRevisionStore()
	ctx := context.Background()
	env := newEnv(t, "[#6:1]-[#8:2]")

	require.NoError(t, store.Append(ctx, env.Revision(environment.OpCreate)))
	second := env.Revision(environment.OpAddAtom)
	second.Version = 2
	second.SMIRKS = "[#6:1](-[#8:2])-[#1]"
	require.NoError(t, store.Append(ctx, second))

	// Revisions are immutable.
	dup := second
	dup.SMIRKS = "[*:1]"
	require.NoError(t, store.Append(ctx, dup))

	list, err := store.List(ctx, env.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].Version)
	assert.Equal(t, environment.OpCreate, list[0].Operation)
	assert.Equal(t, int64(2), list[1].Version)

	got, err := store.Get(ctx, env.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "[#6:1](-[#8:2])-[#1]", got.SMIRKS)

	_, err = store.Get(ctx, env.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeRevisionNotFound))
}

func TestRevisionStore_UnknownEnvironment(t *testing.T) {
	store := NewRevisionStore()
	list, err := store.List(context.Background(), common.NewID())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRevisionStore_CancelledContext(t *testing.T) {
	store := NewRevisionStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Append(ctx, envtypes.EnvironmentRevision{EnvironmentID: "x", Version: 1, RecordedAt: time.Now()}), context.Canceled)
}

//Personal.AI order the ending
