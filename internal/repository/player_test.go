package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/tictactoe-rooms/internal/apperror"
	"github.com/playgrid/tictactoe-rooms/internal/entity"
	"github.com/playgrid/tictactoe-rooms/testing/suite"
)

func TestPlayerRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	playerRepo := NewPlayerRepository(st.Storage)

	// Given: a seated player
	player := entity.NewPlayer("conn-1", "r1", entity.Seat1, "alice")

	// When: CreateOrUpdate is called
	err := playerRepo.CreateOrUpdate(ctx, player)

	// Then: no error should be returned and the player is stored
	require.NoError(t, err)

	stored, err := playerRepo.GetByConnectionID(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, player, stored)
}

func TestPlayerRepository_GetByConnectionID(t *testing.T) {
	t.Run("GetByConnectionID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		playerRepo := NewPlayerRepository(st.Storage)

		// When: GetByConnectionID is called with an unknown connection
		player, err := playerRepo.GetByConnectionID(ctx, "nobody")

		// Then: an ErrPlayerNotFound error should be returned
		require.Error(t, err)
		require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
		assert.Nil(t, player)
	})

	t.Run("GetByConnectionID_DefaultNickname", func(t *testing.T) {
		ctx, st := suite.New(t)

		playerRepo := NewPlayerRepository(st.Storage)

		// Given: a player created without a nickname
		player := entity.NewPlayer("conn-2", "r1", entity.Seat2, "")
		require.NoError(t, playerRepo.CreateOrUpdate(ctx, player))

		// When: the player is loaded back
		stored, err := playerRepo.GetByConnectionID(ctx, "conn-2")

		// Then: the default nickname is in place
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultNickname, stored.Nickname)
	})
}

func TestPlayerRepository_DeleteByConnectionID(t *testing.T) {
	ctx, st := suite.New(t)

	playerRepo := NewPlayerRepository(st.Storage)

	player := entity.NewPlayer("conn-3", "r1", entity.Seat1, "bob")
	require.NoError(t, playerRepo.CreateOrUpdate(ctx, player))

	// When: DeleteByConnectionID is called
	require.NoError(t, playerRepo.DeleteByConnectionID(ctx, "conn-3"))

	// Then: the player is gone
	_, err := playerRepo.GetByConnectionID(ctx, "conn-3")
	require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
}
